package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/boxprojection/utils"
)

// Corner offsets of a box before rotation, in units of (w/2, h, l/2). Consumers index corners
// by position in this table, so its order must not change. Camera y points down, so the box
// extends from its center y up to y-h.
var boxCornerSigns = [8][3]float64{
	{1, -1, 1},
	{-1, -1, 1},
	{-1, -1, -1},
	{1, -1, -1},
	{1, 0, 1},
	{-1, 0, 1},
	{-1, 0, -1},
	{1, 0, -1},
}

// Box3D is an oriented box in the camera frame as produced by a monocular 3D detector. Center is
// the center of the bottom face; Yaw rotates the box about the camera y axis. Label and Score only
// matter for rendering.
type Box3D struct {
	Center r3.Vector `json:"center"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Length float64   `json:"length"`
	Yaw    float64   `json:"yaw"`
	Label  int       `json:"label"`
	Score  float64   `json:"score"`
}

// Dims returns (w, h, l).
func (b Box3D) Dims() r3.Vector {
	return r3.Vector{X: b.Width, Y: b.Height, Z: b.Length}
}

// IsDegenerate is true when any dimension is not strictly positive.
func (b Box3D) IsDegenerate() bool {
	return !(b.Width > 0) || !(b.Height > 0) || !(b.Length > 0)
}

// String returns a human readable string that represents the box.
func (b Box3D) String() string {
	return fmt.Sprintf("Type: Box3D | Center: X:%.2f, Y:%.2f, Z:%.2f | Dims: W:%.2f, H:%.2f, L:%.2f | Yaw: %.1fdeg",
		b.Center.X, b.Center.Y, b.Center.Z, b.Width, b.Height, b.Length, utils.RadToDeg(b.Yaw))
}

// CornerOffsets returns the 3x8 matrix of corner offsets relative to the center, before rotation.
func (b Box3D) CornerOffsets() *mat.Dense {
	offsets := mat.NewDense(3, 8, nil)
	for i, signs := range boxCornerSigns {
		offsets.Set(0, i, signs[0]*b.Width/2)
		offsets.Set(1, i, signs[1]*b.Height)
		offsets.Set(2, i, signs[2]*b.Length/2)
	}
	return offsets
}

// CornerMatrix returns the 3x8 matrix of corners in the camera frame: R(yaw) times the offsets,
// translated by the center.
func (b Box3D) CornerMatrix() *mat.Dense {
	var corners mat.Dense
	corners.Mul(RotationAboutY(b.Yaw), b.CornerOffsets())
	center := [3]float64{b.Center.X, b.Center.Y, b.Center.Z}
	corners.Apply(func(i, _ int, v float64) float64 {
		return v + center[i]
	}, &corners)
	return &corners
}

// Corners returns the 8 corners in the camera frame, in table order.
func (b Box3D) Corners() [8]r3.Vector {
	m := b.CornerMatrix()
	var out [8]r3.Vector
	for i := range out {
		out[i] = r3.Vector{X: m.At(0, i), Y: m.At(1, i), Z: m.At(2, i)}
	}
	return out
}

// Volume is w*h*l.
func (b Box3D) Volume() float64 {
	return b.Width * b.Height * b.Length
}

// GravityCenter is the center of the box volume, half the height above the bottom center.
func (b Box3D) GravityCenter() r3.Vector {
	return r3.Vector{X: b.Center.X, Y: b.Center.Y - b.Height/2, Z: b.Center.Z}
}

// LocalYaw is the yaw relative to the ray from the camera to the gravity center.
func (b Box3D) LocalYaw() float64 {
	g := b.GravityCenter()
	return b.Yaw - math.Atan2(g.X, g.Z)
}

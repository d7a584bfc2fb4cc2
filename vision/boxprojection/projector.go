// Package boxprojection projects oriented 3D boxes in the camera frame onto the image plane and
// describes the resulting wireframes for drawing.
package boxprojection

import (
	"context"
	"fmt"
	"image"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/boxprojection/logging"
	"go.viam.com/boxprojection/rimage/transform"
	"go.viam.com/boxprojection/spatialmath"
	"go.viam.com/boxprojection/utils"
)

// WireframeEdges are the 12 box edges as index pairs into the 8 corners: the y=-h face, the
// y=0 face, then the four edges joining them.
var WireframeEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// ProjectedBox is one box after projection.
type ProjectedBox struct {
	// Index is the position of the box in the input list.
	Index         int
	Box           spatialmath.Box3D
	CameraCorners [8]r3.Vector
	// ImageCorners are already shifted and rounded; see transform.FrameConverter.ProjectCameraToImage.
	ImageCorners [8]r2.Point
	// Markers are the (x, z) camera-frame footprints of corners 0 and 2.
	Markers [2]r2.Point
	Style   RenderStyle
	// Degenerate is set when the box has a non-positive size or a corner at or behind the
	// camera plane. The coordinates are best effort in that case.
	Degenerate bool
}

// Segments returns the wireframe as image-space line segments, in WireframeEdges order.
func (pb ProjectedBox) Segments() [12][2]r2.Point {
	var out [12][2]r2.Point
	for i, e := range WireframeEdges {
		out[i] = [2]r2.Point{pb.ImageCorners[e[0]], pb.ImageCorners[e[1]]}
	}
	return out
}

// Pixels converts the image corners to integer pixels. ok is false if any corner is not finite.
func (pb ProjectedBox) Pixels() (pixels [8]image.Point, ok bool) {
	for i, c := range pb.ImageCorners {
		if !utils.IsFinite(c.X) || !utils.IsFinite(c.Y) {
			return [8]image.Point{}, false
		}
		pixels[i] = image.Point{X: int(c.X), Y: int(c.Y)}
	}
	return pixels, true
}

// Bounds is the smallest rectangle containing every finite image corner. Max is exclusive.
func (pb ProjectedBox) Bounds() image.Rectangle {
	var rect image.Rectangle
	first := true
	for _, c := range pb.ImageCorners {
		if !utils.IsFinite(c.X) || !utils.IsFinite(c.Y) {
			continue
		}
		pt := image.Rect(int(c.X), int(c.Y), int(c.X)+1, int(c.Y)+1)
		if first {
			rect = pt
			first = false
			continue
		}
		rect = rect.Union(pt)
	}
	return rect
}

// BoxProjector turns boxes into projected wireframes using a converter's camera-to-image matrix.
type BoxProjector struct {
	converter *transform.FrameConverter
	logger    logging.Logger
}

// NewBoxProjector returns a projector over the converter, which must have a camera-to-image matrix.
// Strictness follows the converter: with transform.WithStrictGeometry, non-positive box sizes and
// corners behind the camera become errors.
func NewBoxProjector(converter *transform.FrameConverter, logger logging.Logger) (*BoxProjector, error) {
	if converter == nil || !converter.HasCameraToImage() {
		return nil, transform.NewMissingCalibrationError("camera-to-image")
	}
	if logger == nil {
		logger = logging.NewBlankLogger("box_projector")
	}
	return &BoxProjector{converter: converter, logger: logger}, nil
}

// ProjectBox projects a single box.
func (bp *BoxProjector) ProjectBox(box spatialmath.Box3D) (ProjectedBox, error) {
	out, err := bp.Project([]spatialmath.Box3D{box})
	if err != nil {
		return ProjectedBox{}, err
	}
	return out[0], nil
}

// Project projects every box, keeping input order. The corners of all boxes go through the
// converter in one batch.
func (bp *BoxProjector) Project(boxes []spatialmath.Box3D) ([]ProjectedBox, error) {
	if len(boxes) == 0 {
		return []ProjectedBox{}, nil
	}

	out := make([]ProjectedBox, len(boxes))
	corners := make([]r3.Vector, 0, 8*len(boxes))
	for i, box := range boxes {
		if box.IsDegenerate() && bp.converter.Strict() {
			return nil, transform.NewDegenerateGeometryError(fmt.Sprintf("box %d has non-positive size %v", i, box.Dims()))
		}
		cc := box.Corners()
		out[i] = ProjectedBox{
			Index:         i,
			Box:           box,
			CameraCorners: cc,
			Markers:       [2]r2.Point{{X: cc[0].X, Y: cc[0].Z}, {X: cc[2].X, Y: cc[2].Z}},
			Style:         NewRenderStyle(box.Label, box.Score),
			Degenerate:    box.IsDegenerate(),
		}
		corners = append(corners, cc[:]...)
	}

	pixels, err := bp.converter.ProjectCameraToImage(corners)
	if err != nil {
		return nil, errors.Wrap(err, "projecting box corners")
	}
	for i := range out {
		copy(out[i].ImageCorners[:], pixels[8*i:8*i+8])
		for _, c := range out[i].CameraCorners {
			if c.Z <= 0 {
				out[i].Degenerate = true
				break
			}
		}
	}
	return out, nil
}

// ProjectFrames projects independent frames concurrently. The result has one entry per frame in
// input order. No state is shared between frames.
func (bp *BoxProjector) ProjectFrames(ctx context.Context, frames [][]spatialmath.Box3D) ([][]ProjectedBox, error) {
	out := make([][]ProjectedBox, len(frames))
	err := utils.ParallelForEach(ctx, len(frames), func(_ context.Context, i int) error {
		projected, err := bp.Project(frames[i])
		if err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
		out[i] = projected
		return nil
	})
	if err != nil {
		return nil, err
	}
	bp.logger.Debugw("projected frames", "frames", len(frames))
	return out, nil
}

package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// RotationAboutY returns the 3x3 rotation by theta radians about the y axis:
//
//	[[ cos 0 sin],
//	 [  0  1  0 ],
//	 [-sin 0 cos]]
func RotationAboutY(theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	return mat.NewDense(3, 3, []float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

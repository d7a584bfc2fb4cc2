package transform

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// PinholeCameraIntrinsics holds the scalar parameters derived from a camera-to-image matrix.
type PinholeCameraIntrinsics struct {
	Fx  float64 `json:"fx"`
	Fy  float64 `json:"fy"`
	Ppx float64 `json:"ppx"`
	Ppy float64 `json:"ppy"`
	// Bx and By are the baseline offsets encoded in the fourth column.
	Bx float64 `json:"bx"`
	By float64 `json:"by"`
}

// NewPinholeCameraIntrinsics reads the intrinsics out of a 3x4 or 4x4 camera-to-image matrix.
//
// By is divided by -Fx, not -Fy, matching the calibration files this package consumes.
func NewPinholeCameraIntrinsics(cameraToImage mat.Matrix) (*PinholeCameraIntrinsics, error) {
	if err := checkProjectionShape("camera-to-image", cameraToImage); err != nil {
		return nil, err
	}
	fx, fy := cameraToImage.At(0, 0), cameraToImage.At(1, 1)
	params := &PinholeCameraIntrinsics{
		Fx:  fx,
		Fy:  fy,
		Ppx: cameraToImage.At(0, 2),
		Ppy: cameraToImage.At(1, 2),
		Bx:  cameraToImage.At(0, 3) / -fx,
		By:  cameraToImage.At(1, 3) / -fx,
	}
	return params, params.CheckValid()
}

// CheckValid checks that both focal lengths are usable as divisors.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewMissingCalibrationError("camera-to-image")
	}
	if params.Fx == 0 || math.IsNaN(params.Fx) {
		return errors.Wrap(ErrInvalidCalibration, fmt.Sprintf("invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy == 0 || math.IsNaN(params.Fy) {
		return errors.Wrap(ErrInvalidCalibration, fmt.Sprintf("invalid focal length Fy = %#v", params.Fy))
	}
	return nil
}

// GetCameraMatrix creates a new 3x3 camera matrix and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *PinholeCameraIntrinsics) GetCameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}

// checkProjectionShape accepts the 3x4 and 4x4 forms of a frame transform.
func checkProjectionShape(name string, m mat.Matrix) error {
	if m == nil {
		return NewMissingCalibrationError(name)
	}
	r, c := m.Dims()
	if (r != 3 && r != 4) || c != 4 {
		return NewDimensionMismatchError(name+" matrix", r, c, "3x4 or 4x4")
	}
	return nil
}

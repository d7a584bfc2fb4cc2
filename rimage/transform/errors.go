package transform

import (
	"github.com/pkg/errors"
)

var (
	// ErrMissingCalibration is returned when a projection needs a matrix that was never supplied.
	ErrMissingCalibration = errors.New("calibration matrix is not available")
	// ErrDimensionMismatch is returned when a point batch or matrix has the wrong shape.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrDegenerateGeometry is returned in strict mode for non-positive box sizes or depths.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrInvalidCalibration is returned when a camera-to-image matrix has a zero focal length.
	ErrInvalidCalibration = errors.New("invalid calibration matrix")
)

// NewMissingCalibrationError is used when the named matrix was never supplied.
func NewMissingCalibrationError(name string) error {
	return errors.Wrapf(ErrMissingCalibration, "%s matrix is required", name)
}

// NewDimensionMismatchError is used when a shape does not match what an operation expects.
func NewDimensionMismatchError(what string, gotRows, gotCols int, want string) error {
	return errors.Wrapf(ErrDimensionMismatch, "%s has shape %dx%d, expected %s", what, gotRows, gotCols, want)
}

// NewDegenerateGeometryError is used in strict mode when geometry cannot produce a meaningful projection.
func NewDegenerateGeometryError(msg string) error {
	return errors.Wrap(ErrDegenerateGeometry, msg)
}

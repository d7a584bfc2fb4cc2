package transform

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/boxprojection/logging"
)

// FrameConverter projects points between the sensor, camera and image frames. Its matrices are
// copied at construction and never mutated afterwards, so a FrameConverter is safe for concurrent use.
type FrameConverter struct {
	sensorToCamera *mat.Dense
	cameraToImage  *mat.Dense
	intrinsics     *PinholeCameraIntrinsics
	strict         bool
	logger         logging.Logger
}

// Option configures a FrameConverter.
type Option func(*FrameConverter)

// WithStrictGeometry makes projections fail with ErrDegenerateGeometry instead of returning
// best-effort coordinates for points at or behind the camera plane.
func WithStrictGeometry() Option {
	return func(fc *FrameConverter) {
		fc.strict = true
	}
}

// NewFrameConverter builds a converter from an optional sensor-to-camera matrix and an optional
// camera-to-image matrix. Both must be 3x4 or 4x4 when present. Operations that need a missing
// matrix fail with ErrMissingCalibration when they are called.
func NewFrameConverter(
	sensorToCamera, cameraToImage mat.Matrix,
	logger logging.Logger,
	opts ...Option,
) (*FrameConverter, error) {
	if logger == nil {
		logger = logging.NewBlankLogger("frame_converter")
	}
	fc := &FrameConverter{logger: logger}
	for _, opt := range opts {
		opt(fc)
	}

	if !isNilMatrix(sensorToCamera) {
		if err := checkProjectionShape("sensor-to-camera", sensorToCamera); err != nil {
			return nil, err
		}
		fc.sensorToCamera = mat.DenseCopyOf(sensorToCamera)
	}
	if !isNilMatrix(cameraToImage) {
		intrinsics, err := NewPinholeCameraIntrinsics(cameraToImage)
		if err != nil {
			return nil, err
		}
		fc.cameraToImage = mat.DenseCopyOf(cameraToImage)
		fc.intrinsics = intrinsics
	}
	return fc, nil
}

// Strict reports whether degenerate geometry is an error for this converter.
func (fc *FrameConverter) Strict() bool {
	return fc.strict
}

// HasSensorToCamera reports whether a sensor-to-camera matrix was supplied.
func (fc *FrameConverter) HasSensorToCamera() bool {
	return fc.sensorToCamera != nil
}

// HasCameraToImage reports whether a camera-to-image matrix was supplied.
func (fc *FrameConverter) HasCameraToImage() bool {
	return fc.cameraToImage != nil
}

// SensorToCamera returns a copy of the sensor-to-camera matrix.
func (fc *FrameConverter) SensorToCamera() (*mat.Dense, error) {
	if fc.sensorToCamera == nil {
		return nil, NewMissingCalibrationError("sensor-to-camera")
	}
	return mat.DenseCopyOf(fc.sensorToCamera), nil
}

// CameraToImage returns a copy of the camera-to-image matrix.
func (fc *FrameConverter) CameraToImage() (*mat.Dense, error) {
	if fc.cameraToImage == nil {
		return nil, NewMissingCalibrationError("camera-to-image")
	}
	return mat.DenseCopyOf(fc.cameraToImage), nil
}

// Intrinsics returns the scalar parameters derived from the camera-to-image matrix.
func (fc *FrameConverter) Intrinsics() (PinholeCameraIntrinsics, error) {
	if fc.intrinsics == nil {
		return PinholeCameraIntrinsics{}, NewMissingCalibrationError("camera-to-image")
	}
	return *fc.intrinsics, nil
}

// PrincipalPoint returns (c_u, c_v).
func (fc *FrameConverter) PrincipalPoint() (r2.Point, error) {
	in, err := fc.Intrinsics()
	return r2.Point{X: in.Ppx, Y: in.Ppy}, err
}

// FocalLength returns (f_u, f_v).
func (fc *FrameConverter) FocalLength() (r2.Point, error) {
	in, err := fc.Intrinsics()
	return r2.Point{X: in.Fx, Y: in.Fy}, err
}

// Baseline returns (b_x, b_y). Both components are normalized by f_u; see NewPinholeCameraIntrinsics.
func (fc *FrameConverter) Baseline() (r2.Point, error) {
	in, err := fc.Intrinsics()
	return r2.Point{X: in.Bx, Y: in.By}, err
}

// ToHomogeneous appends a 1 to every point.
func ToHomogeneous(points []r3.Vector) [][4]float64 {
	out := make([][4]float64, len(points))
	for i, pt := range points {
		out[i] = [4]float64{pt.X, pt.Y, pt.Z, 1}
	}
	return out
}

// ProjectCameraToImage projects camera-frame points onto the image plane. The homogeneous points
// are multiplied by the transpose of the camera-to-image matrix in a single product, divided by
// their third component, shifted by -1 and rounded half away from zero. This is the only place
// the shift-and-round step happens; callers must not apply it again.
func (fc *FrameConverter) ProjectCameraToImage(points []r3.Vector) ([]r2.Point, error) {
	if fc.cameraToImage == nil {
		return nil, NewMissingCalibrationError("camera-to-image")
	}
	if len(points) == 0 {
		return []r2.Point{}, nil
	}

	var projected mat.Dense
	projected.Mul(homogeneousDense(points), fc.cameraToImage.T())

	out := make([]r2.Point, len(points))
	behind := 0
	for i, pt := range points {
		depth := projected.At(i, 2)
		if depth <= 0 || pt.Z <= 0 {
			behind++
		}
		out[i] = r2.Point{
			X: math.Round(projected.At(i, 0)/depth - 1),
			Y: math.Round(projected.At(i, 1)/depth - 1),
		}
	}
	if behind > 0 {
		if fc.strict {
			return nil, NewDegenerateGeometryError(
				fmt.Sprintf("%d of %d points are at or behind the camera plane", behind, len(points)))
		}
		fc.logger.Debugw("projecting points at or behind the camera plane", "count", behind, "total", len(points))
	}
	return out, nil
}

// ProjectSensorToCamera moves sensor-frame points into the camera frame. With a 4x4 matrix the
// homogeneous fourth component of the result is dropped.
func (fc *FrameConverter) ProjectSensorToCamera(points []r3.Vector) ([]r3.Vector, error) {
	if fc.sensorToCamera == nil {
		return nil, NewMissingCalibrationError("sensor-to-camera")
	}
	if len(points) == 0 {
		return []r3.Vector{}, nil
	}

	var moved mat.Dense
	moved.Mul(homogeneousDense(points), fc.sensorToCamera.T())

	out := make([]r3.Vector, len(points))
	for i := range out {
		out[i] = r3.Vector{X: moved.At(i, 0), Y: moved.At(i, 1), Z: moved.At(i, 2)}
	}
	return out, nil
}

// ProjectSensorToImage is ProjectSensorToCamera followed by ProjectCameraToImage.
func (fc *FrameConverter) ProjectSensorToImage(points []r3.Vector) ([]r2.Point, error) {
	if fc.cameraToImage == nil {
		return nil, NewMissingCalibrationError("camera-to-image")
	}
	camPts, err := fc.ProjectSensorToCamera(points)
	if err != nil {
		return nil, err
	}
	return fc.ProjectCameraToImage(camPts)
}

// PointsFromRows converts dense rows of (x, y, z) into a point batch.
func PointsFromRows(rows [][]float64) ([]r3.Vector, error) {
	out := make([]r3.Vector, len(rows))
	for i, row := range rows {
		if len(row) != 3 {
			return nil, NewDimensionMismatchError(fmt.Sprintf("point %d", i), 1, len(row), "1x3")
		}
		out[i] = r3.Vector{X: row[0], Y: row[1], Z: row[2]}
	}
	return out, nil
}

// homogeneousDense lays the points out as the rows of an Nx4 matrix. points must not be empty.
func homogeneousDense(points []r3.Vector) *mat.Dense {
	data := make([]float64, 0, len(points)*4)
	for _, pt := range points {
		data = append(data, pt.X, pt.Y, pt.Z, 1)
	}
	return mat.NewDense(len(points), 4, data)
}

func isNilMatrix(m mat.Matrix) bool {
	if m == nil {
		return true
	}
	d, ok := m.(*mat.Dense)
	return ok && d == nil
}

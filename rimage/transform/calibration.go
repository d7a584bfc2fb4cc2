package transform

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/boxprojection/logging"
)

// Calibration is the row-major matrix pair supplied by a calibration provider.
type Calibration struct {
	SensorToCamera [][]float64 `json:"vel2cam,omitempty"`
	CameraToImage  [][]float64 `json:"cam2img,omitempty"`
}

// DecodeCalibration decodes loosely typed attributes, as parsed from JSON, into a Calibration.
func DecodeCalibration(attrs map[string]interface{}) (*Calibration, error) {
	cal := &Calibration{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  cal,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attrs); err != nil {
		return nil, errors.Wrap(err, "error decoding calibration")
	}
	return cal, nil
}

// ReadCalibrationFile takes in a file path to a JSON calibration and parses it.
func ReadCalibrationFile(jsonPath string) (*Calibration, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)

	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrap(err, "error reading JSON data")
	}
	attrs := map[string]interface{}{}
	if err := json.Unmarshal(byteValue, &attrs); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return DecodeCalibration(attrs)
}

// Validate checks the shape of every supplied matrix and reports all problems at once.
func (cal *Calibration) Validate() error {
	if cal == nil {
		return NewMissingCalibrationError("calibration")
	}
	var errs error
	if cal.SensorToCamera != nil {
		if _, err := cal.sensorToCameraMatrix(); err != nil {
			errs = multierr.Combine(errs, errors.Wrap(err, "vel2cam"))
		}
	}
	if cal.CameraToImage != nil {
		if _, err := cal.cameraToImageMatrix(); err != nil {
			errs = multierr.Combine(errs, errors.Wrap(err, "cam2img"))
		}
	}
	return errs
}

// NewFrameConverterFromCalibration validates the calibration and builds a converter from it.
func NewFrameConverterFromCalibration(cal *Calibration, logger logging.Logger, opts ...Option) (*FrameConverter, error) {
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	var sensorToCamera, cameraToImage mat.Matrix
	if cal.SensorToCamera != nil {
		m, err := cal.sensorToCameraMatrix()
		if err != nil {
			return nil, err
		}
		sensorToCamera = m
	}
	if cal.CameraToImage != nil {
		m, err := cal.cameraToImageMatrix()
		if err != nil {
			return nil, err
		}
		cameraToImage = m
	}
	return NewFrameConverter(sensorToCamera, cameraToImage, logger, opts...)
}

func (cal *Calibration) sensorToCameraMatrix() (*mat.Dense, error) {
	m, err := MatrixFromRows(cal.SensorToCamera)
	if err != nil {
		return nil, err
	}
	return m, checkProjectionShape("sensor-to-camera", m)
}

// cameraToImageMatrix accepts a bare 3x3 intrinsic matrix as well, padding it with a zero
// fourth column so that it carries no baseline.
func (cal *Calibration) cameraToImageMatrix() (*mat.Dense, error) {
	m, err := MatrixFromRows(cal.CameraToImage)
	if err != nil {
		return nil, err
	}
	if r, c := m.Dims(); r == 3 && c == 3 {
		padded := mat.NewDense(3, 4, nil)
		padded.Slice(0, 3, 0, 3).(*mat.Dense).Copy(m)
		m = padded
	}
	if err := checkProjectionShape("camera-to-image", m); err != nil {
		return nil, err
	}
	_, err = NewPinholeCameraIntrinsics(m)
	return m, err
}

// MatrixFromRows builds a dense matrix from rows that must all have the same, non-zero, length.
func MatrixFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, NewDimensionMismatchError("matrix", len(rows), 0, "at least 1x1")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.Wrapf(ErrDimensionMismatch, "row %d has %d columns, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// String is used in log lines.
func (cal *Calibration) String() string {
	return fmt.Sprintf("Calibration{vel2cam: %v, cam2img: %v}", cal.SensorToCamera, cal.CameraToImage)
}

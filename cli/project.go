package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/boxprojection/logging"
	"go.viam.com/boxprojection/rimage"
	"go.viam.com/boxprojection/rimage/transform"
	"go.viam.com/boxprojection/spatialmath"
	"go.viam.com/boxprojection/utils"
	"go.viam.com/boxprojection/vision/boxprojection"
)

type projectedBoxOutput struct {
	Index      int            `json:"index"`
	Label      int            `json:"label"`
	Score      float64        `json:"score"`
	Corners    [8][2]*float64 `json:"corners"`
	Markers    [2][2]*float64 `json:"markers"`
	Color      string         `json:"color"`
	Thickness  int            `json:"thickness"`
	Degenerate bool           `json:"degenerate"`
}

func newLogger(c *cli.Context) logging.Logger {
	if c.Bool(generalFlagDebug) {
		return logging.NewDebugLogger("boxproject")
	}
	return logging.NewBlankLogger("boxproject")
}

func converterOptions(c *cli.Context) []transform.Option {
	if c.Bool(generalFlagStrict) {
		return []transform.Option{transform.WithStrictGeometry()}
	}
	return nil
}

// ProjectAction projects every frame of a detections file and writes the wireframes as JSON,
// optionally rendering them to PNG files.
func ProjectAction(c *cli.Context) error {
	logger := newLogger(c)
	frames, err := boxprojection.ReadDetectionsFile(c.String(projectFlagDetections))
	if err != nil {
		return err
	}

	var shared *transform.Calibration
	if path := c.String(generalFlagCalibration); path != "" {
		shared, err = transform.ReadCalibrationFile(path)
		if err != nil {
			return err
		}
		logger.Debugw("loaded calibration", "calibration", shared.String())
	}

	projected := make([][]boxprojection.ProjectedBox, len(frames))
	for i, frame := range frames {
		cal := shared
		if cal == nil {
			if frame.CameraToImage == nil {
				return errors.Wrapf(transform.ErrMissingCalibration,
					"frame %d has no cam2img and no --%s was given", i, generalFlagCalibration)
			}
			cal = &transform.Calibration{CameraToImage: frame.CameraToImage}
		}
		fc, err := transform.NewFrameConverterFromCalibration(cal, logger.Sublogger("converter"), converterOptions(c)...)
		if err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
		projector, err := boxprojection.NewBoxProjector(fc, logger.Sublogger("projector"))
		if err != nil {
			return err
		}
		boxes, err := frame.Boxes()
		if err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
		projected[i], err = projector.Project(boxes)
		if err != nil {
			return errors.Wrapf(err, "frame %d", i)
		}
		logger.Debugw("projected frame", "frame", i, "boxes", len(boxes))
	}

	if path := c.String(projectFlagRender); path != "" {
		if err := renderFrames(c, path, projected); err != nil {
			return err
		}
	}

	out := make([][]projectedBoxOutput, len(projected))
	for i, frame := range projected {
		out[i] = make([]projectedBoxOutput, len(frame))
		for j, pb := range frame {
			out[i][j] = newProjectedBoxOutput(pb)
		}
	}
	return writeJSON(c, out)
}

func renderFrames(c *cli.Context, path string, frames [][]boxprojection.ProjectedBox) error {
	for i, frame := range frames {
		var dc *gg.Context
		if bg := c.String(projectFlagBackground); bg != "" {
			img, err := gg.LoadImage(bg)
			if err != nil {
				return errors.Wrap(err, "error loading background image")
			}
			dc = gg.NewContextForImage(img)
		} else {
			dc = gg.NewContext(c.Int(projectFlagWidth), c.Int(projectFlagHeight))
		}

		boxprojection.DrawAll(dc, frame, c.Bool(projectFlagAnnotate))
		if c.Bool(projectFlagBounds) {
			for _, pb := range frame {
				if _, ok := pb.Pixels(); ok {
					rimage.DrawRectangleEmpty(dc, pb.Bounds(), pb.Style.Color, 1)
				}
			}
		}

		if err := dc.SavePNG(framePath(path, i)); err != nil {
			return errors.Wrapf(err, "error writing frame %d", i)
		}
	}
	return nil
}

// framePath leaves the first frame at path and numbers the rest before the extension.
func framePath(path string, frame int) string {
	if frame == 0 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), frame, ext)
}

func newProjectedBoxOutput(pb boxprojection.ProjectedBox) projectedBoxOutput {
	out := projectedBoxOutput{
		Index:      pb.Index,
		Label:      pb.Box.Label,
		Score:      pb.Box.Score,
		Color:      pb.Style.Hex(),
		Thickness:  pb.Style.Thickness,
		Degenerate: pb.Degenerate,
	}
	for i, c := range pb.ImageCorners {
		out.Corners[i] = jsonPoint(c)
	}
	for i, m := range pb.Markers {
		out.Markers[i] = jsonPoint(m)
	}
	return out
}

// InspectAction writes the derived record of a single box.
func InspectAction(c *cli.Context) error {
	frames, err := boxprojection.ReadDetectionsFile(c.String(projectFlagDetections))
	if err != nil {
		return err
	}
	frameNum, index := c.Int(inspectFlagFrame), c.Int(inspectFlagIndex)
	if frameNum < 0 || frameNum >= len(frames) {
		return errors.Errorf("frame %d out of range, file has %d frames", frameNum, len(frames))
	}
	boxes, err := frames[frameNum].Boxes()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(boxes) {
		return errors.Errorf("box %d out of range, frame %d has %d boxes", index, frameNum, len(boxes))
	}
	return writeJSON(c, spatialmath.NewBoxRecord(boxes[index]))
}

// ConvertAction moves a list of points from one frame to another.
func ConvertAction(c *cli.Context) error {
	logger := newLogger(c)
	cal, err := transform.ReadCalibrationFile(c.String(generalFlagCalibration))
	if err != nil {
		return err
	}
	fc, err := transform.NewFrameConverterFromCalibration(cal, logger.Sublogger("converter"), converterOptions(c)...)
	if err != nil {
		return err
	}
	pts, err := readPoints(c.String(convertFlagPoints))
	if err != nil {
		return err
	}

	from, to := c.String(convertFlagFrom), c.String(convertFlagTo)
	switch {
	case from == frameSensor && to == frameCamera:
		moved, err := fc.ProjectSensorToCamera(pts)
		if err != nil {
			return err
		}
		out := make([][3]float64, len(moved))
		for i, p := range moved {
			out[i] = [3]float64{p.X, p.Y, p.Z}
		}
		return writeJSON(c, out)
	case from == frameSensor && to == frameImage:
		px, err := fc.ProjectSensorToImage(pts)
		if err != nil {
			return err
		}
		return writeJSON(c, jsonPoints(px))
	case from == frameCamera && to == frameImage:
		px, err := fc.ProjectCameraToImage(pts)
		if err != nil {
			return err
		}
		return writeJSON(c, jsonPoints(px))
	default:
		return errors.Errorf("cannot convert from %q to %q", from, to)
	}
}

func readPoints(path string) ([]r3.Vector, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "error reading points file")
	}
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return transform.PointsFromRows(rows)
}

func writeJSON(c *cli.Context, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path := c.String(generalFlagOut); path != "" {
		return os.WriteFile(path, data, 0o600)
	}
	_, err = c.App.Writer.Write(data)
	return err
}

// jsonPoint maps non-finite coordinates to null since JSON has no representation for them.
func jsonPoint(p r2.Point) [2]*float64 {
	return [2]*float64{jsonFloat(p.X), jsonFloat(p.Y)}
}

func jsonPoints(pts []r2.Point) [][2]*float64 {
	out := make([][2]*float64, len(pts))
	for i, p := range pts {
		out[i] = jsonPoint(p)
	}
	return out
}

func jsonFloat(f float64) *float64 {
	if !utils.IsFinite(f) {
		return nil
	}
	return &f
}

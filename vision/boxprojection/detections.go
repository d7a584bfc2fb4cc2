package boxprojection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/boxprojection/rimage/transform"
	"go.viam.com/boxprojection/spatialmath"
)

// tensorWidth is the number of values per box row: x, y, z, w, h, l, yaw.
const tensorWidth = 7

// DetectionSet is what a detection provider hands over for one frame: box rows plus parallel
// label and score arrays, and optionally the frame's camera-to-image matrix.
type DetectionSet struct {
	BBoxes        [][]float64 `json:"bboxes_3d"`
	Labels        []int       `json:"labels_3d"`
	Scores        []float64   `json:"scores_3d"`
	CameraToImage [][]float64 `json:"cam2img,omitempty"`
}

// BoxFromTensor builds a box from one (x, y, z, w, h, l, yaw) row.
func BoxFromTensor(row []float64, label int, score float64) (spatialmath.Box3D, error) {
	if len(row) != tensorWidth {
		return spatialmath.Box3D{}, transform.NewDimensionMismatchError("box row", 1, len(row), fmt.Sprintf("1x%d", tensorWidth))
	}
	return spatialmath.Box3D{
		Center: r3.Vector{X: row[0], Y: row[1], Z: row[2]},
		Width:  row[3],
		Height: row[4],
		Length: row[5],
		Yaw:    row[6],
		Label:  label,
		Score:  score,
	}, nil
}

// Boxes checks that the arrays line up and converts the rows into boxes.
func (ds *DetectionSet) Boxes() ([]spatialmath.Box3D, error) {
	if len(ds.Labels) != len(ds.BBoxes) || len(ds.Scores) != len(ds.BBoxes) {
		return nil, errors.Wrapf(transform.ErrDimensionMismatch,
			"%d boxes, %d labels and %d scores", len(ds.BBoxes), len(ds.Labels), len(ds.Scores))
	}
	boxes := make([]spatialmath.Box3D, len(ds.BBoxes))
	for i, row := range ds.BBoxes {
		box, err := BoxFromTensor(row, ds.Labels[i], ds.Scores[i])
		if err != nil {
			return nil, errors.Wrapf(err, "detection %d", i)
		}
		boxes[i] = box
	}
	return boxes, nil
}

// ReadDetectionsFile reads a JSON file holding either a single DetectionSet or a list of them,
// one per frame.
func ReadDetectionsFile(jsonPath string) ([]DetectionSet, error) {
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
	return ParseDetections(byteValue)
}

// ParseDetections parses the contents of a detections file; see ReadDetectionsFile.
func ParseDetections(data []byte) ([]DetectionSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var frames []DetectionSet
		if err := json.Unmarshal(trimmed, &frames); err != nil {
			return nil, errors.Wrap(err, "error parsing JSON string")
		}
		return frames, nil
	}
	var frame DetectionSet
	if err := json.Unmarshal(trimmed, &frame); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return []DetectionSet{frame}, nil
}

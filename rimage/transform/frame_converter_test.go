package transform

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/boxprojection/logging"
)

func identityCameraToImage() *mat.Dense {
	return mat.NewDense(3, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	})
}

func kittiCameraToImage() *mat.Dense {
	return mat.NewDense(3, 4, []float64{
		721.5377, 0, 609.5593, 44.85728,
		0, 721.5377, 172.854, 0.2163791,
		0, 0, 1, 0.002745884,
	})
}

func TestToHomogeneous(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		out := ToHomogeneous(nil)
		test.That(t, out, test.ShouldHaveLength, 0)
	})

	t.Run("appends one and keeps order", func(t *testing.T) {
		pts := []r3.Vector{{1, 2, 3}, {-4, 5.5, 0}, {7, 8, 9}}
		out := ToHomogeneous(pts)
		test.That(t, out, test.ShouldHaveLength, len(pts))
		for i, pt := range pts {
			test.That(t, out[i], test.ShouldResemble, [4]float64{pt.X, pt.Y, pt.Z, 1})
		}
	})
}

func TestNewFrameConverter(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("no matrices", func(t *testing.T) {
		fc, err := NewFrameConverter(nil, nil, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, fc.HasCameraToImage(), test.ShouldBeFalse)
		test.That(t, fc.HasSensorToCamera(), test.ShouldBeFalse)

		_, err = fc.ProjectCameraToImage([]r3.Vector{{0, 0, 1}})
		test.That(t, errors.Is(err, ErrMissingCalibration), test.ShouldBeTrue)
		_, err = fc.ProjectSensorToCamera([]r3.Vector{{0, 0, 1}})
		test.That(t, errors.Is(err, ErrMissingCalibration), test.ShouldBeTrue)
		_, err = fc.ProjectSensorToImage([]r3.Vector{{0, 0, 1}})
		test.That(t, errors.Is(err, ErrMissingCalibration), test.ShouldBeTrue)
		_, err = fc.PrincipalPoint()
		test.That(t, errors.Is(err, ErrMissingCalibration), test.ShouldBeTrue)
		_, err = fc.CameraToImage()
		test.That(t, errors.Is(err, ErrMissingCalibration), test.ShouldBeTrue)
	})

	t.Run("typed nil matrix counts as missing", func(t *testing.T) {
		var missing *mat.Dense
		fc, err := NewFrameConverter(missing, identityCameraToImage(), logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, fc.HasSensorToCamera(), test.ShouldBeFalse)
	})

	t.Run("bad shapes", func(t *testing.T) {
		_, err := NewFrameConverter(nil, mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), logger)
		test.That(t, errors.Is(err, ErrDimensionMismatch), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "3x3")

		_, err = NewFrameConverter(mat.NewDense(2, 4, nil), nil, logger)
		test.That(t, errors.Is(err, ErrDimensionMismatch), test.ShouldBeTrue)
	})

	t.Run("zero focal length", func(t *testing.T) {
		m := identityCameraToImage()
		m.Set(1, 1, 0)
		_, err := NewFrameConverter(nil, m, logger)
		test.That(t, errors.Is(err, ErrInvalidCalibration), test.ShouldBeTrue)
	})

	t.Run("matrices are copied", func(t *testing.T) {
		m := identityCameraToImage()
		fc, err := NewFrameConverter(nil, m, logger)
		test.That(t, err, test.ShouldBeNil)
		m.Set(0, 0, 50)

		got, err := fc.CameraToImage()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got.At(0, 0), test.ShouldEqual, 1.0)
		got.Set(0, 0, 70)
		again, err := fc.CameraToImage()
		test.That(t, err, test.ShouldBeNil)
		test.That(t, again.At(0, 0), test.ShouldEqual, 1.0)
	})
}

func TestIntrinsicAccessors(t *testing.T) {
	fc, err := NewFrameConverter(nil, kittiCameraToImage(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	pp, err := fc.PrincipalPoint()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pp, test.ShouldResemble, r2.Point{X: 609.5593, Y: 172.854})

	f, err := fc.FocalLength()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f, test.ShouldResemble, r2.Point{X: 721.5377, Y: 721.5377})

	b, err := fc.Baseline()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.X, test.ShouldAlmostEqual, 44.85728/-721.5377)
	test.That(t, b.Y, test.ShouldAlmostEqual, 0.2163791/-721.5377)

	in, err := fc.Intrinsics()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Equal(in.GetCameraMatrix(), mat.NewDense(3, 3, []float64{
		721.5377, 0, 609.5593,
		0, 721.5377, 172.854,
		0, 0, 1,
	})), test.ShouldBeTrue)
}

func TestBaselineYUsesHorizontalFocalLength(t *testing.T) {
	m := mat.NewDense(3, 4, []float64{
		100, 0, 10, 50,
		0, 400, 20, 80,
		0, 0, 1, 0,
	})
	fc, err := NewFrameConverter(nil, m, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	b, err := fc.Baseline()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.X, test.ShouldEqual, -0.5)
	// 80 / -f_u, not 80 / -f_v.
	test.That(t, b.Y, test.ShouldEqual, -0.8)
	test.That(t, b.Y, test.ShouldNotEqual, -0.2)
}

func TestProjectCameraToImage(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("identity-like matrix", func(t *testing.T) {
		fc, err := NewFrameConverter(nil, identityCameraToImage(), logger)
		test.That(t, err, test.ShouldBeNil)

		pts := []r3.Vector{{10, 20, 2}, {-3, 7, 4}, {5, 5, 10}, {1, 1, 1}}
		out, err := fc.ProjectCameraToImage(pts)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldHaveLength, len(pts))
		for i, pt := range pts {
			test.That(t, out[i].X, test.ShouldEqual, math.Round(pt.X/pt.Z-1))
			test.That(t, out[i].Y, test.ShouldEqual, math.Round(pt.Y/pt.Z-1))
		}
		test.That(t, out[0], test.ShouldResemble, r2.Point{X: 4, Y: 9})
		// -3/4 - 1 = -1.75 and 7/4 - 1 = 0.75
		test.That(t, out[1], test.ShouldResemble, r2.Point{X: -2, Y: 1})
	})

	t.Run("ties round away from zero", func(t *testing.T) {
		fc, err := NewFrameConverter(nil, identityCameraToImage(), logger)
		test.That(t, err, test.ShouldBeNil)
		// 3/2 - 1 = 0.5 and -1/2 - 1 = -1.5
		out, err := fc.ProjectCameraToImage([]r3.Vector{{3, -1, 2}})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out[0], test.ShouldResemble, r2.Point{X: 1, Y: -2})
	})

	t.Run("empty batch", func(t *testing.T) {
		fc, err := NewFrameConverter(nil, identityCameraToImage(), logger)
		test.That(t, err, test.ShouldBeNil)
		out, err := fc.ProjectCameraToImage(nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldHaveLength, 0)
	})

	t.Run("4x4 matrix", func(t *testing.T) {
		m := mat.NewDense(4, 4, []float64{
			1000, 0, 320, 0,
			0, 1000, 240, 0,
			0, 0, 1, 0,
			0, 0, 0, 1,
		})
		fc, err := NewFrameConverter(nil, m, logger)
		test.That(t, err, test.ShouldBeNil)
		out, err := fc.ProjectCameraToImage([]r3.Vector{{1, -0.5, 10}})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out[0], test.ShouldResemble, r2.Point{X: 419, Y: 189})
	})

	t.Run("depth at or behind camera", func(t *testing.T) {
		pts := []r3.Vector{{1, 1, 5}, {1, 1, -2}, {1, 1, 0}}

		fc, err := NewFrameConverter(nil, identityCameraToImage(), logger)
		test.That(t, err, test.ShouldBeNil)
		out, err := fc.ProjectCameraToImage(pts)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldHaveLength, 3)
		test.That(t, out[1], test.ShouldResemble, r2.Point{X: math.Round(1.0/-2 - 1), Y: math.Round(1.0/-2 - 1)})
		test.That(t, math.IsInf(out[2].X, 1), test.ShouldBeTrue)

		strict, err := NewFrameConverter(nil, identityCameraToImage(), logger, WithStrictGeometry())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, strict.Strict(), test.ShouldBeTrue)
		_, err = strict.ProjectCameraToImage(pts)
		test.That(t, errors.Is(err, ErrDegenerateGeometry), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "2 of 3")

		_, err = strict.ProjectCameraToImage(pts[:1])
		test.That(t, err, test.ShouldBeNil)
	})

	t.Run("advisory is logged", func(t *testing.T) {
		observed, logs := logging.NewObservedTestLogger(t)
		fc, err := NewFrameConverter(nil, identityCameraToImage(), observed)
		test.That(t, err, test.ShouldBeNil)
		_, err = fc.ProjectCameraToImage([]r3.Vector{{0, 0, -1}})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, logs.FilterMessageSnippet("behind the camera").Len(), test.ShouldEqual, 1)
	})
}

func TestProjectSensorToCamera(t *testing.T) {
	logger := logging.NewTestLogger(t)
	// KITTI style: sensor x forward, y left, z up; camera x right, y down, z forward.
	sensorToCamera := mat.NewDense(3, 4, []float64{
		0, -1, 0, 0.1,
		0, 0, -1, 0.2,
		1, 0, 0, 0.3,
	})

	fc, err := NewFrameConverter(sensorToCamera, identityCameraToImage(), logger)
	test.That(t, err, test.ShouldBeNil)

	pts := []r3.Vector{{10, 2, 1}, {5, -1, 0}}
	out, err := fc.ProjectSensorToCamera(pts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldHaveLength, 2)
	test.That(t, out[0].X, test.ShouldAlmostEqual, -1.9)
	test.That(t, out[0].Y, test.ShouldAlmostEqual, -0.8)
	test.That(t, out[0].Z, test.ShouldAlmostEqual, 10.3)
	test.That(t, out[1].X, test.ShouldAlmostEqual, 1.1)
	test.That(t, out[1].Y, test.ShouldAlmostEqual, 0.2)
	test.That(t, out[1].Z, test.ShouldAlmostEqual, 5.3)

	t.Run("4x4 drops homogeneous component", func(t *testing.T) {
		full := mat.NewDense(4, 4, nil)
		full.Slice(0, 3, 0, 4).(*mat.Dense).Copy(sensorToCamera)
		full.Set(3, 3, 1)
		fc4, err := NewFrameConverter(full, nil, logger)
		test.That(t, err, test.ShouldBeNil)
		out4, err := fc4.ProjectSensorToCamera(pts)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out4, test.ShouldHaveLength, len(out))
		for i := range out {
			test.That(t, out4[i].X, test.ShouldAlmostEqual, out[i].X)
			test.That(t, out4[i].Y, test.ShouldAlmostEqual, out[i].Y)
			test.That(t, out4[i].Z, test.ShouldAlmostEqual, out[i].Z)
		}
	})

	t.Run("sensor to image composes", func(t *testing.T) {
		img, err := fc.ProjectSensorToImage(pts)
		test.That(t, err, test.ShouldBeNil)
		direct, err := fc.ProjectCameraToImage(out)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, img, test.ShouldResemble, direct)
	})

	t.Run("sensor to image needs camera matrix", func(t *testing.T) {
		onlySensor, err := NewFrameConverter(sensorToCamera, nil, logger)
		test.That(t, err, test.ShouldBeNil)
		_, err = onlySensor.ProjectSensorToImage(pts)
		test.That(t, errors.Is(err, ErrMissingCalibration), test.ShouldBeTrue)
	})

	t.Run("empty batch", func(t *testing.T) {
		out, err := fc.ProjectSensorToImage([]r3.Vector{})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldHaveLength, 0)
	})
}

func TestPointsFromRows(t *testing.T) {
	pts, err := PointsFromRows([][]float64{{1, 2, 3}, {4, 5, 6}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pts, test.ShouldResemble, []r3.Vector{{1, 2, 3}, {4, 5, 6}})

	_, err = PointsFromRows([][]float64{{1, 2, 3}, {4, 5}})
	test.That(t, errors.Is(err, ErrDimensionMismatch), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "point 1")
}

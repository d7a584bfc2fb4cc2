package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngleConversion(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldEqual, 90.)
	test.That(t, RadToDeg(DegToRad(37)), test.ShouldAlmostEqual, 37.)
}

func TestClampInt(t *testing.T) {
	test.That(t, ClampInt(-4, 0, 255), test.ShouldEqual, 0)
	test.That(t, ClampInt(300, 0, 255), test.ShouldEqual, 255)
	test.That(t, ClampInt(17, 0, 255), test.ShouldEqual, 17)
	test.That(t, MaxInt(2, 3), test.ShouldEqual, 3)
	test.That(t, MinInt(2, 3), test.ShouldEqual, 2)
}

func TestIsFinite(t *testing.T) {
	test.That(t, IsFinite(1.5), test.ShouldBeTrue)
	test.That(t, IsFinite(math.NaN()), test.ShouldBeFalse)
	test.That(t, IsFinite(math.Inf(1)), test.ShouldBeFalse)
	test.That(t, IsFinite(math.Inf(-1)), test.ShouldBeFalse)
}

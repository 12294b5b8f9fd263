// SPDX-License-Identifier: GPL-2.0-or-later

package spline

import (
	"testing"

	"github.com/chewxy/math32"

	"gochoreo/math/vec"
)

const epsilon = 1e-5

func near(a, b float32) bool {
	return math32.Abs(a-b) < epsilon
}

var (
	pre   = vec.Vec3{X: 0, Y: 0}
	start = vec.Vec3{X: 1, Y: 0.25}
	end   = vec.Vec3{X: 2, Y: 0.75}
	next  = vec.Vec3{X: 3, Y: 1}
)

func TestInterpolateEndpoints(t *testing.T) {
	// BSpline and the tangent are not interpolating, exponential decay never
	// fully reaches the end value.
	for kind := Default; kind < NumInterpolators; kind++ {
		switch kind {
		case BSpline, CatmullRomTangent, ExponentialDecay, Hold:
			continue
		}
		if got := Interpolate(kind, pre, start, end, next, 0); !near(got.Y, start.Y) {
			t.Errorf("Interpolate(%s, 0).Y = %v, want %v", InterpolatorName(kind), got.Y, start.Y)
		}
		if got := Interpolate(kind, pre, start, end, next, 1); !near(got.Y, end.Y) {
			t.Errorf("Interpolate(%s, 1).Y = %v, want %v", InterpolatorName(kind), got.Y, end.Y)
		}
	}
}

func TestInterpolateLinear(t *testing.T) {
	got := Interpolate(Linear, pre, start, end, next, 0.5)
	if !near(got.Y, 0.5) {
		t.Errorf("Interpolate(Linear, 0.5).Y = %v, want 0.5", got.Y)
	}
}

func TestInterpolateHold(t *testing.T) {
	for _, f := range []float32{0, 0.3, 0.99, 1} {
		got := Interpolate(Hold, pre, start, end, next, f)
		if got.Y != start.Y {
			t.Errorf("Interpolate(Hold, %v).Y = %v, want %v", f, got.Y, start.Y)
		}
	}
}

func TestCatmullRomOnLine(t *testing.T) {
	// collinear, evenly spaced points stay on the line
	a := vec.Vec3{X: 0, Y: 0}
	b := vec.Vec3{X: 1, Y: 1}
	c := vec.Vec3{X: 2, Y: 2}
	d := vec.Vec3{X: 3, Y: 3}
	got := CatmullRomSpline(a, b, c, d, 0.5)
	if !near(got.Y, 1.5) || !near(got.X, 1.5) {
		t.Errorf("CatmullRomSpline(line, 0.5) = %v, want {1.5 1.5 0}", got)
	}
	kb := KochanekBartelsSpline(0, 0, 0, a, b, c, d, 0.5)
	if !near(kb.Y, got.Y) {
		t.Errorf("KochanekBartelsSpline(0,0,0) = %v, want %v", kb, got)
	}
}

func TestCurveTypePacking(t *testing.T) {
	ct := MakeCurveType(EaseIn, Hold)
	if InType(ct) != EaseIn {
		t.Errorf("InType(%d) = %d, want %d", ct, InType(ct), EaseIn)
	}
	if OutType(ct) != Hold {
		t.Errorf("OutType(%d) = %d, want %d", ct, OutType(ct), Hold)
	}
}

func TestCurveNames(t *testing.T) {
	for _, tc := range []struct {
		name string
		want int
	}{
		{"curve_default_to_curve_default", CurveDefault},
		{"curve_catmullrom_normalize_x_to_curve_catmullrom_normalize_x", CurveCatmullRom},
		{"curve_easein_to_curve_linear_interp", MakeCurveType(EaseIn, Linear)},
		{"CURVE_HOLD_TO_CURVE_KOCHANEK_LATE", MakeCurveType(Hold, KochanekBartelsLate)},
	} {
		got, ok := CurveForName(tc.name)
		if !ok {
			t.Errorf("CurveForName(%q) failed", tc.name)
			continue
		}
		if got != tc.want {
			t.Errorf("CurveForName(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}
	if _, ok := CurveForName("curve_foo_to_curve_bar"); ok {
		t.Errorf("CurveForName accepted an unknown interpolator")
	}
	n := CurveName(MakeCurveType(BSpline, EaseOut))
	if n != "curve_bspline_to_curve_easeout" {
		t.Errorf("CurveName = %q", n)
	}
}

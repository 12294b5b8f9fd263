// SPDX-License-Identifier: GPL-2.0-or-later

package spline

import (
	"fmt"
	"strings"
)

// Interpolator ids. The numeric values are persisted in sample curve types.
const (
	Default = iota
	CatmullRomNormalizeX
	EaseIn
	EaseOut
	EaseInOut
	BSpline
	Linear
	KochanekBartels
	KochanekBartelsEarly
	KochanekBartelsLate
	SimpleCubic
	CatmullRom
	CatmullRomNormalize
	CatmullRomTangent
	ExponentialDecay
	Hold
	NumInterpolators
)

var interpolatorNames = [NumInterpolators]string{
	"default",
	"catmullrom_normalize_x",
	"easein",
	"easeout",
	"easeinout",
	"bspline",
	"linear_interp",
	"kochanek",
	"kochanek_early",
	"kochanek_late",
	"simple_cubic",
	"catmullrom",
	"catmullrom_normalize",
	"catmullrom_tangent",
	"exponential_decay",
	"hold",
}

const (
	// CurveDefault defers to the owner's default curve type.
	CurveDefault = 0
	// CurveCatmullRom is the default curve type of events and scenes.
	CurveCatmullRom = CatmullRomNormalizeX<<8 | CatmullRomNormalizeX

	curvePrefix = "curve_"
	curveInfix  = "_to_"
)

// MakeCurveType packs the interpolator used when entering a sample and the
// one used when leaving it.
func MakeCurveType(in, out int) int {
	return (in&0xff)<<8 | out&0xff
}

// InType is the interpolator used on the segment ending at the sample.
func InType(curveType int) int {
	return (curveType >> 8) & 0xff
}

// OutType is the interpolator used on the segment starting at the sample.
func OutType(curveType int) int {
	return curveType & 0xff
}

// InterpolatorName returns the text name of an interpolator id.
func InterpolatorName(i int) string {
	if i < 0 || i >= NumInterpolators {
		return interpolatorNames[Default]
	}
	return interpolatorNames[i]
}

// InterpolatorForName returns the id of the named interpolator.
func InterpolatorForName(name string) (int, bool) {
	for i, n := range interpolatorNames {
		if strings.EqualFold(n, name) {
			return i, true
		}
	}
	return Default, false
}

// CurveName returns the text form "curve_<in>_to_curve_<out>".
func CurveName(curveType int) string {
	return fmt.Sprintf("%s%s%s%s%s",
		curvePrefix, InterpolatorName(InType(curveType)),
		curveInfix,
		curvePrefix, InterpolatorName(OutType(curveType)))
}

// CurveForName parses a name produced by CurveName.
func CurveForName(name string) (int, bool) {
	in, out, ok := strings.Cut(strings.ToLower(name), curveInfix+curvePrefix)
	if !ok || !strings.HasPrefix(in, curvePrefix) {
		return CurveDefault, false
	}
	i, ok1 := InterpolatorForName(strings.TrimPrefix(in, curvePrefix))
	o, ok2 := InterpolatorForName(out)
	if !ok1 || !ok2 {
		return CurveDefault, false
	}
	return MakeCurveType(i, o), true
}

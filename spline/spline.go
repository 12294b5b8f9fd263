// SPDX-License-Identifier: GPL-2.0-or-later

package spline

import (
	"github.com/chewxy/math32"

	qm "gochoreo/math"
	"gochoreo/math/vec"
)

// CatmullRomSpline evaluates the uniform Catmull-Rom segment between p2 and
// p3 at t in [0,1].
func CatmullRomSpline(p1, p2, p3, p4 vec.Vec3, t float32) vec.Vec3 {
	tSqr := t * t * 0.5
	tSqrSqr := t * tSqr
	t *= 0.5

	out := p2
	out = vec.Add(out, vec.Sum4(
		p1.Scale(-tSqrSqr),
		p2.Scale(tSqrSqr*3),
		p3.Scale(tSqrSqr*-3),
		p4.Scale(tSqrSqr)))
	out = vec.Add(out, vec.Sum4(
		p1.Scale(tSqr*2),
		p2.Scale(tSqr*-5),
		p3.Scale(tSqr*4),
		p4.Scale(-tSqr)))
	out = vec.Add(out, vec.Add(p1.Scale(-t), p3.Scale(t)))
	return out
}

// CatmullRomTangentSpline returns the derivative of the Catmull-Rom segment.
func CatmullRomTangentSpline(p1, p2, p3, p4 vec.Vec3, t float32) vec.Vec3 {
	tOne := 3 * t * t * 0.5
	tTwo := 2 * t * 0.5
	tThree := float32(0.5)

	out := vec.Sum4(
		p1.Scale(-tOne),
		p2.Scale(tOne*3),
		p3.Scale(tOne*-3),
		p4.Scale(tOne))
	out = vec.Add(out, vec.Sum4(
		p1.Scale(tTwo*2),
		p2.Scale(tTwo*-5),
		p3.Scale(tTwo*4),
		p4.Scale(-tTwo)))
	out = vec.Add(out, vec.Add(p1.Scale(-tThree), p3.Scale(tThree)))
	return out
}

// normalizeX rescales the outer control points so their x spacing matches
// the spacing of the evaluated segment.
func normalizeX(p1, p2, p3, p4 vec.Vec3) (vec.Vec3, vec.Vec3) {
	dt := p3.X - p2.X
	p1n, p4n := p1, p4
	if dt != 0 {
		if p1.X != p2.X {
			p1n = vec.Lerp(p2, p1, dt/(p2.X-p1.X))
		}
		if p4.X != p3.X {
			p4n = vec.Lerp(p3, p4, dt/(p4.X-p3.X))
		}
	}
	return p1n, p4n
}

// CatmullRomSplineNormalizeX is a Catmull-Rom segment with the outer points
// rescaled along x. This is the default interpolator.
func CatmullRomSplineNormalizeX(p1, p2, p3, p4 vec.Vec3, t float32) vec.Vec3 {
	p1n, p4n := normalizeX(p1, p2, p3, p4)
	return CatmullRomSpline(p1n, p2, p3, p4n, t)
}

// CatmullRomSplineNormalize rescales the outer points to the length of the
// evaluated segment.
func CatmullRomSplineNormalize(p1, p2, p3, p4 vec.Vec3, t float32) vec.Vec3 {
	dt := vec.Distance(p3, p2)
	p1n := vec.Add(p2, vec.Sub(p1, p2).Normalize().Scale(dt))
	p4n := vec.Add(p3, vec.Sub(p4, p3).Normalize().Scale(dt))
	return CatmullRomSpline(p1n, p2, p3, p4n, t)
}

// KochanekBartelsSpline evaluates a TCB spline segment.
func KochanekBartelsSpline(tension, bias, continuity float32, p1, p2, p3, p4 vec.Vec3, t float32) vec.Vec3 {
	ffa := (1 - tension) * (1 + continuity) * (1 + bias)
	ffb := (1 - tension) * (1 - continuity) * (1 - bias)
	ffc := (1 - tension) * (1 - continuity) * (1 + bias)
	ffd := (1 - tension) * (1 + continuity) * (1 - bias)

	tSqr := t * t * 0.5
	tSqrSqr := t * tSqr
	t *= 0.5

	out := p2
	out = vec.Add(out, vec.Sum4(
		p1.Scale(tSqrSqr*-ffa),
		p2.Scale(tSqrSqr*(4+ffa-ffb-ffc)),
		p3.Scale(tSqrSqr*(-4+ffb+ffc-ffd)),
		p4.Scale(tSqrSqr*ffd)))
	out = vec.Add(out, vec.Sum4(
		p1.Scale(tSqr*2*ffa),
		p2.Scale(tSqr*(-6-2*ffa+2*ffb+ffc)),
		p3.Scale(tSqr*(6-2*ffb-ffc+ffd)),
		p4.Scale(tSqr*-ffd)))
	out = vec.Add(out, vec.Add(
		p1.Scale(t*-ffa),
		vec.Add(p2.Scale(t*(ffa-ffb)), p3.Scale(t*ffb))))
	return out
}

// KochanekBartelsSplineNormalizeX is the x normalized TCB spline.
func KochanekBartelsSplineNormalizeX(tension, bias, continuity float32, p1, p2, p3, p4 vec.Vec3, t float32) vec.Vec3 {
	p1n, p4n := normalizeX(p1, p2, p3, p4)
	return KochanekBartelsSpline(tension, bias, continuity, p1n, p2, p3, p4n, t)
}

// CubicSpline is a hermite segment from p2 to p3 using the outer segments as
// tangents.
func CubicSpline(p1, p2, p3, p4 vec.Vec3, t float32) vec.Vec3 {
	tSqr := t * t
	tSqrSqr := t * tSqr
	m1 := vec.Sub(p2, p1)
	m2 := vec.Sub(p4, p3)
	return vec.Sum4(
		p2.Scale(2*tSqrSqr-3*tSqr+1),
		p3.Scale(-2*tSqrSqr+3*tSqr),
		m1.Scale(tSqrSqr-2*tSqr+t),
		m2.Scale(tSqrSqr-tSqr))
}

// CubicSplineNormalizeX is the x normalized hermite segment.
func CubicSplineNormalizeX(p1, p2, p3, p4 vec.Vec3, t float32) vec.Vec3 {
	p1n, p4n := normalizeX(p1, p2, p3, p4)
	return CubicSpline(p1n, p2, p3, p4n, t)
}

// BSplineSegment evaluates a uniform cubic b-spline. The curve does not pass
// through the control points.
func BSplineSegment(p1, p2, p3, p4 vec.Vec3, t float32) vec.Vec3 {
	it := 1 - t
	tSqr := t * t
	tCube := tSqr * t
	const sixth = 1.0 / 6.0
	return vec.Sum4(
		p1.Scale(it*it*it*sixth),
		p2.Scale((3*tCube-6*tSqr+4)*sixth),
		p3.Scale((-3*tCube+3*tSqr+3*t+1)*sixth),
		p4.Scale(tCube*sixth))
}

func kochanekBartelsParams(kind int) (tension, bias, continuity float32) {
	switch kind {
	case KochanekBartelsEarly:
		return 0.77, -1, 0.77
	case KochanekBartelsLate:
		return 0.77, 1, 0.77
	default:
		return 0.77, 0, 0.77
	}
}

// Interpolate evaluates interpolator kind on the segment start..end with the
// neighbours pre and next. Only the Y component of the result is meaningful
// for all kinds.
func Interpolate(kind int, pre, start, end, next vec.Vec3, f float32) vec.Vec3 {
	switch kind {
	default:
		// unknown kinds use the default spline
		fallthrough
	case Default, CatmullRomNormalizeX:
		return CatmullRomSplineNormalizeX(pre, start, end, next, f)
	case CatmullRom:
		return CatmullRomSpline(pre, start, end, next, f)
	case CatmullRomNormalize:
		return CatmullRomSplineNormalize(pre, start, end, next, f)
	case CatmullRomTangent:
		return CatmullRomTangentSpline(pre, start, end, next, f)
	case EaseIn:
		f = math32.Sin(qm.Pi * f * 0.5)
		return vec.Lerp(start, end, f)
	case EaseOut:
		f = 1 - math32.Sin(qm.Pi*f*0.5+0.5*qm.Pi)
		return vec.Lerp(start, end, f)
	case EaseInOut:
		return vec.Lerp(start, end, qm.SimpleSpline(f))
	case Linear:
		return vec.Lerp(start, end, f)
	case KochanekBartels, KochanekBartelsEarly, KochanekBartelsLate:
		tension, bias, continuity := kochanekBartelsParams(kind)
		return KochanekBartelsSplineNormalizeX(tension, bias, continuity, pre, start, end, next, f)
	case SimpleCubic:
		return CubicSplineNormalizeX(pre, start, end, next, f)
	case BSpline:
		return BSplineSegment(pre, start, end, next, f)
	case ExponentialDecay:
		out := start
		if dt := end.X - start.X; dt > 0 {
			val := 1 - qm.ExponentialDecay(0.001, dt, f*dt)
			out.Y = start.Y + val*(end.Y-start.Y)
		}
		return out
	case Hold:
		return start
	}
}

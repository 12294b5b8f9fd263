// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

import (
	"sort"

	qm "gochoreo/math"
	"gochoreo/math/vec"
	"gochoreo/spline"
)

// ExpressionSample is one control point of a curve. Curve packs the in and
// out interpolators, see spline.MakeCurveType.
type ExpressionSample struct {
	Time  float32
	Value float32
	Curve int
}

// EdgeInfo describes the implicit sample at either end of a curve.
type EdgeInfo struct {
	Active    bool
	CurveType int
	ZeroValue float32
}

// CurveDataAccessor provides the timing context a curve is evaluated in.
type CurveDataAccessor interface {
	Duration() float32
	CurveHasEndTime() bool
	DefaultCurveType() int
}

// curve evaluates a sorted sample list bounded by two synthetic samples at
// time 0 and at duration.
type curve struct {
	samples      []ExpressionSample
	left, right  ExpressionSample
	defaultCurve int
}

func (c *curve) bounded(i int) ExpressionSample {
	if i < 0 {
		return c.left
	}
	if i >= len(c.samples) {
		return c.right
	}
	return c.samples[i]
}

func (c *curve) contains(i int, t float32) bool {
	return c.bounded(i).Time <= t && t <= c.bounded(i+1).Time
}

// span returns i such that bounded(i) and bounded(i+1) bracket t. With
// repeated times the lowest such i wins.
func (c *curve) span(t float32) int {
	n := len(c.samples)
	j := max(n/2, 1)
	i := j
	steps := 0
	for i > -2 && i < n+1 {
		start, end := c.bounded(i), c.bounded(i+1)
		j = max(j/2, 1)
		if t < start.Time {
			i -= j
		} else if t > end.Time {
			i += j
		} else {
			break
		}
		steps++
		if steps > 2*n+8 {
			// unsorted data can bounce forever
			return c.scan(t)
		}
	}
	for i > -1 && c.contains(i-1, t) {
		i--
	}
	return i
}

func (c *curve) scan(t float32) int {
	n := len(c.samples)
	for i := -1; i < n; i++ {
		if c.contains(i, t) {
			return i
		}
	}
	if t < c.left.Time {
		return -1
	}
	return n
}

func (c *curve) resolve(ct int) int {
	if ct == spline.CurveDefault {
		return c.defaultCurve
	}
	return ct
}

// segment evaluates the span starting at bounded(i) at time t.
func (c *curve) segment(i int, t float32) float32 {
	pre, start, end, next := c.bounded(i-1), c.bounded(i), c.bounded(i+1), c.bounded(i+2)
	var f float32
	if dt := end.Time - start.Time; dt > 0 {
		f = qm.Clamp(0, (t-start.Time)/dt, 1)
	}
	early := spline.OutType(c.resolve(start.Curve))
	later := spline.InType(c.resolve(end.Curve))
	if early == spline.Hold || later == spline.Hold {
		return start.Value
	}
	vp := vec.Vec3{X: pre.Time, Y: pre.Value}
	vs := vec.Vec3{X: start.Time, Y: start.Value}
	ve := vec.Vec3{X: end.Time, Y: end.Value}
	vn := vec.Vec3{X: next.Time, Y: next.Value}
	out := spline.Interpolate(early, vp, vs, ve, vn, f)
	if early != later {
		out2 := spline.Interpolate(later, vp, vs, ve, vn, f)
		return qm.Lerp(out.Y, out2.Y, f)
	}
	return out.Y
}

func (c *curve) value(t float32) float32 {
	return qm.Clamp(0, c.segment(c.span(t), t), 1)
}

const simpsonSteps = 16

// area integrates value over [a,b] inside span i.
func (c *curve) area(i int, a, b float32) float32 {
	if b <= a {
		return 0
	}
	h := (b - a) / simpsonSteps
	f := func(t float32) float32 {
		return qm.Clamp(0, c.segment(i, t), 1)
	}
	sum := f(a) + f(b)
	for k := 1; k < simpsonSteps; k++ {
		w := float32(2)
		if k%2 == 1 {
			w = 4
		}
		sum += w * f(a+float32(k)*h)
	}
	return sum * h / 3
}

// CurveData is a ramp: a sorted list of samples plus edge behaviour.
type CurveData struct {
	samples []ExpressionSample
	edges   [2]EdgeInfo

	// cumulative area at each bounded sample, valid for areaDuration
	areaCache    []float32
	areaDuration float32
}

const (
	edgeLeft  = 0
	edgeRight = 1
)

func edgeIndex(left bool) int {
	if left {
		return edgeLeft
	}
	return edgeRight
}

func (c *CurveData) invalidate() {
	c.areaCache = nil
}

func (c *CurveData) Count() int {
	return len(c.samples)
}

// Sample returns the i-th sample.
func (c *CurveData) Sample(i int) (ExpressionSample, bool) {
	if i < 0 || i >= len(c.samples) {
		return ExpressionSample{}, false
	}
	return c.samples[i], true
}

// Samples returns a copy of all samples.
func (c *CurveData) Samples() []ExpressionSample {
	return append([]ExpressionSample(nil), c.samples...)
}

// Add appends a sample with the default curve type and returns its index.
// Call Resort after adding out of order.
func (c *CurveData) Add(t, v float32) int {
	c.samples = append(c.samples, ExpressionSample{Time: t, Value: v})
	c.invalidate()
	return len(c.samples) - 1
}

// AddSample appends s and returns its index.
func (c *CurveData) AddSample(s ExpressionSample) int {
	c.samples = append(c.samples, s)
	c.invalidate()
	return len(c.samples) - 1
}

func (c *CurveData) SetSample(i int, s ExpressionSample) bool {
	if i < 0 || i >= len(c.samples) {
		return false
	}
	c.samples[i] = s
	c.invalidate()
	return true
}

func (c *CurveData) Delete(i int) bool {
	if i < 0 || i >= len(c.samples) {
		return false
	}
	c.samples = append(c.samples[:i], c.samples[i+1:]...)
	c.invalidate()
	return true
}

func (c *CurveData) Clear() {
	c.samples = nil
	c.invalidate()
}

// Resort orders the samples by time and drops the ones outside
// [0, acc.Duration()].
func (c *CurveData) Resort(acc CurveDataAccessor) {
	c.samples = resortSamples(c.samples, acc.Duration())
	c.invalidate()
}

func resortSamples(s []ExpressionSample, duration float32) []ExpressionSample {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Time < s[j].Time
	})
	out := s[:0]
	for _, e := range s {
		if e.Time < 0 || e.Time > duration {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (c *CurveData) EdgeInfo(left bool) EdgeInfo {
	return c.edges[edgeIndex(left)]
}

func (c *CurveData) SetEdgeInfo(left bool, e EdgeInfo) {
	c.edges[edgeIndex(left)] = e
	c.invalidate()
}

// EdgeZeroValue is the value of the implicit sample at the given end.
func (c *CurveData) EdgeZeroValue(left bool) float32 {
	if e := c.edges[edgeIndex(left)]; e.Active {
		return e.ZeroValue
	}
	return 0
}

// EdgeCurveType is the curve type of the implicit sample at the given end.
func (c *CurveData) EdgeCurveType(left bool) int {
	if e := c.edges[edgeIndex(left)]; e.Active {
		return e.CurveType
	}
	return spline.CurveDefault
}

func (c *CurveData) curve(acc CurveDataAccessor) *curve {
	return &curve{
		samples:      c.samples,
		left:         ExpressionSample{Time: 0, Value: c.EdgeZeroValue(true), Curve: c.EdgeCurveType(true)},
		right:        ExpressionSample{Time: acc.Duration(), Value: c.EdgeZeroValue(false), Curve: c.EdgeCurveType(false)},
		defaultCurve: acc.DefaultCurveType(),
	}
}

// BoundedSample returns sample i where index -1 and Count() are the edge
// samples at time 0 and at the accessor duration.
func (c *CurveData) BoundedSample(acc CurveDataAccessor, i int) ExpressionSample {
	return c.curve(acc).bounded(i)
}

// Intensity evaluates the ramp at t, measured from the start of its owner.
// The result lies in [0,1]. At and outside the ends it is the edge zero
// value. Inside, an empty ramp is full intensity.
func (c *CurveData) Intensity(acc CurveDataAccessor, t float32) float32 {
	if !acc.CurveHasEndTime() || t <= 0 {
		return c.EdgeZeroValue(true)
	}
	if t >= acc.Duration() {
		return c.EdgeZeroValue(false)
	}
	if len(c.samples) == 0 {
		return 1
	}
	return c.curve(acc).value(t)
}

// IntensityArea integrates Intensity from 0 to t.
func (c *CurveData) IntensityArea(acc CurveDataAccessor, t float32) float32 {
	if !acc.CurveHasEndTime() || t <= 0 {
		return 0
	}
	d := acc.Duration()
	t = min(t, d)
	if len(c.samples) == 0 {
		return t
	}
	cv := c.curve(acc)
	if c.areaCache == nil || c.areaDuration != d {
		c.buildArea(cv, d)
	}
	i := qm.Clamp(-1, cv.span(t), len(c.samples))
	return c.areaCache[i+1] + cv.area(i, cv.bounded(i).Time, t)
}

func (c *CurveData) buildArea(cv *curve, d float32) {
	n := len(c.samples)
	c.areaCache = make([]float32, n+2)
	for i := -1; i < n; i++ {
		c.areaCache[i+2] = c.areaCache[i+1] + cv.area(i, cv.bounded(i).Time, cv.bounded(i+1).Time)
	}
	c.areaDuration = d
}

// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

import (
	qm "gochoreo/math"
	"gochoreo/spline"
)

// Flex track sample lists. A combo track carries a balance curve next to
// the amount curve.
const (
	SideAmount  = 0
	SideBalance = 1
)

// FlexAnimationTrack drives one flex controller over the lifetime of a
// FlexAnimation event.
type FlexAnimationTrack struct {
	event   *Event
	name    string
	active  bool
	combo   bool
	min     float32
	max     float32
	samples [2][]ExpressionSample
	edges   [2]EdgeInfo
}

func newFlexAnimationTrack(e *Event, name string) *FlexAnimationTrack {
	return &FlexAnimationTrack{
		event:  e,
		name:   name,
		active: true,
		max:    1,
	}
}

func (t *FlexAnimationTrack) Event() *Event {
	return t.event
}

func (t *FlexAnimationTrack) Name() string {
	return t.name
}

func (t *FlexAnimationTrack) SetName(n string) {
	t.name = n
}

func (t *FlexAnimationTrack) IsActive() bool {
	return t.active
}

func (t *FlexAnimationTrack) SetActive(a bool) {
	t.active = a
}

// IsComboType reports whether the track has a balance curve.
func (t *FlexAnimationTrack) IsComboType() bool {
	return t.combo
}

func (t *FlexAnimationTrack) SetComboType(c bool) {
	t.combo = c
}

func (t *FlexAnimationTrack) Min() float32 {
	return t.min
}

func (t *FlexAnimationTrack) Max() float32 {
	return t.max
}

func (t *FlexAnimationTrack) SetMin(v float32) {
	t.min = v
}

func (t *FlexAnimationTrack) SetMax(v float32) {
	t.max = v
}

// IsInverted reports a range that maps fraction 0 above fraction 1.
func (t *FlexAnimationTrack) IsInverted() bool {
	return t.min > t.max
}

func validSide(side int) bool {
	return side == SideAmount || side == SideBalance
}

func (t *FlexAnimationTrack) NumSamples(side int) int {
	if !validSide(side) {
		return 0
	}
	return len(t.samples[side])
}

func (t *FlexAnimationTrack) Sample(side, i int) (ExpressionSample, bool) {
	if !validSide(side) || i < 0 || i >= len(t.samples[side]) {
		return ExpressionSample{}, false
	}
	return t.samples[side][i], true
}

// AddSample appends a sample and returns its index, or -1 for a bad side.
func (t *FlexAnimationTrack) AddSample(side int, s ExpressionSample) int {
	if !validSide(side) {
		return -1
	}
	t.samples[side] = append(t.samples[side], s)
	return len(t.samples[side]) - 1
}

func (t *FlexAnimationTrack) SetSample(side, i int, s ExpressionSample) bool {
	if !validSide(side) || i < 0 || i >= len(t.samples[side]) {
		return false
	}
	t.samples[side][i] = s
	return true
}

func (t *FlexAnimationTrack) RemoveSample(side, i int) bool {
	if !validSide(side) || i < 0 || i >= len(t.samples[side]) {
		return false
	}
	t.samples[side] = append(t.samples[side][:i], t.samples[side][i+1:]...)
	return true
}

func (t *FlexAnimationTrack) Clear(side int) {
	if validSide(side) {
		t.samples[side] = nil
	}
}

// Resort orders both sample lists and drops samples outside the event.
func (t *FlexAnimationTrack) Resort() {
	var d float32
	if t.event != nil {
		d = t.event.Duration()
	}
	for side := range t.samples {
		t.samples[side] = resortSamples(t.samples[side], d)
	}
}

func (t *FlexAnimationTrack) EdgeInfo(left bool) EdgeInfo {
	return t.edges[edgeIndex(left)]
}

func (t *FlexAnimationTrack) SetEdgeInfo(left bool, e EdgeInfo) {
	t.edges[edgeIndex(left)] = e
}

// ZeroValue is the fraction a side rests at outside its samples. Balance
// rests centered. Without an active edge the amount rests where the
// controller value is zero.
func (t *FlexAnimationTrack) ZeroValue(side int, left bool) float32 {
	if side == SideBalance {
		return 0.5
	}
	if e := t.edges[edgeIndex(left)]; e.Active {
		return e.ZeroValue
	}
	if t.max != t.min {
		return qm.Clamp(0, -t.min/(t.max-t.min), 1)
	}
	return 0
}

func (t *FlexAnimationTrack) edgeCurveType(side int, left bool) int {
	if side == SideAmount {
		if e := t.edges[edgeIndex(left)]; e.Active {
			return e.CurveType
		}
	}
	return spline.CurveDefault
}

// FracIntensity evaluates a side at scene time, as a fraction in [0,1].
func (t *FlexAnimationTrack) FracIntensity(sceneTime float32, side int) float32 {
	if !validSide(side) {
		return 0
	}
	if side == SideBalance && !t.combo {
		return 0.5
	}
	e := t.event
	if e == nil || !e.HasEndTime() || sceneTime < e.StartTime() {
		return t.ZeroValue(side, true)
	}
	if sceneTime > e.EndTime() {
		return t.ZeroValue(side, false)
	}
	s := t.samples[side]
	if len(s) == 0 {
		return t.ZeroValue(side, true)
	}
	cv := &curve{
		samples:      s,
		left:         ExpressionSample{Time: 0, Value: t.ZeroValue(side, true), Curve: t.edgeCurveType(side, true)},
		right:        ExpressionSample{Time: e.Duration(), Value: t.ZeroValue(side, false), Curve: t.edgeCurveType(side, false)},
		defaultCurve: spline.CurveCatmullRom,
	}
	return cv.value(sceneTime - e.StartTime())
}

// Intensity maps the amount fraction into [min,max]. The balance side is
// returned as a fraction.
func (t *FlexAnimationTrack) Intensity(sceneTime float32, side int) float32 {
	f := t.FracIntensity(sceneTime, side)
	if side == SideBalance {
		return f
	}
	return t.min + f*(t.max-t.min)
}

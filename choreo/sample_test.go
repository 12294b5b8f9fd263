// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

import (
	"testing"

	"github.com/chewxy/math32"

	"gochoreo/spline"
)

type fixedAccessor struct {
	d float32
}

func (f fixedAccessor) Duration() float32     { return f.d }
func (f fixedAccessor) CurveHasEndTime() bool { return true }
func (f fixedAccessor) DefaultCurveType() int { return spline.CurveCatmullRom }

func near(a, b, eps float32) bool {
	return math32.Abs(a-b) <= eps
}

func TestIntensityBoundaries(t *testing.T) {
	var c CurveData
	c.SetEdgeInfo(true, EdgeInfo{Active: true, ZeroValue: 0.25})
	c.SetEdgeInfo(false, EdgeInfo{Active: true, ZeroValue: 0.75})
	c.Add(0.5, 1)
	c.Add(1.5, 0.5)
	acc := fixedAccessor{2}
	tests := []struct {
		t    float32
		want float32
	}{
		{-1, 0.25},
		{0, 0.25},
		{0.5, 1},
		{1.5, 0.5},
		{2, 0.75},
		{3, 0.75},
	}
	for _, tt := range tests {
		if got := c.Intensity(acc, tt.t); !near(got, tt.want, 1e-5) {
			t.Errorf("Intensity(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
	for x := float32(0); x <= 2; x += 0.05 {
		if v := c.Intensity(acc, x); v < 0 || v > 1 {
			t.Errorf("Intensity(%v) = %v, outside [0,1]", x, v)
		}
	}
}

func TestIntensityEmpty(t *testing.T) {
	var c CurveData
	acc := fixedAccessor{2}
	if got := c.Intensity(acc, 1); got != 1 {
		t.Errorf("empty Intensity(1) = %v, want 1", got)
	}
	if got := c.Intensity(acc, -1); got != 0 {
		t.Errorf("empty Intensity(-1) = %v, want 0", got)
	}
}

func TestEmptyRampEdges(t *testing.T) {
	e := NewScene(nil).AddEvent(Expression, "e")
	e.SetStartTime(1)
	e.SetEndTime(3)
	r := e.Ramp()
	r.SetEdgeInfo(true, EdgeInfo{Active: true, ZeroValue: 0.25})
	r.SetEdgeInfo(false, EdgeInfo{Active: true, ZeroValue: 0.75})
	tests := []struct {
		t    float32
		want float32
	}{
		{0.5, 0.25},
		{1, 0.25},
		{2, 1},
		{3, 0.75},
		{4, 0.75},
	}
	for _, tt := range tests {
		if got := e.RampIntensity(tt.t); got != tt.want {
			t.Errorf("RampIntensity(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
	e.SetEndTime(NoEndTime)
	if got := e.RampIntensity(2); got != 0.25 {
		t.Errorf("RampIntensity(2) without end = %v, want 0.25", got)
	}
}

func TestResortDropsOutside(t *testing.T) {
	var c CurveData
	c.Add(1.5, 0.2)
	c.Add(-0.5, 1)
	c.Add(0.5, 1)
	c.Add(2.5, 1)
	c.Resort(fixedAccessor{2})
	got := c.Samples()
	if len(got) != 2 || got[0].Time != 0.5 || got[1].Time != 1.5 {
		t.Errorf("Samples() = %v, want times 0.5, 1.5", got)
	}
	if v := c.Intensity(fixedAccessor{2}, 1.5); !near(v, 0.2, 1e-5) {
		t.Errorf("Intensity(1.5) = %v, want 0.2", v)
	}
}

func TestIntensityCurveTypes(t *testing.T) {
	linear := spline.MakeCurveType(spline.Linear, spline.Linear)
	hold := spline.MakeCurveType(spline.Hold, spline.Hold)
	tests := []struct {
		name  string
		curve int
		t     float32
		want  float32
	}{
		{"linear mid", linear, 1.5, 0.5},
		{"linear quarter", linear, 1.25, 0.25},
		{"hold", hold, 1.9, 0},
	}
	for _, tt := range tests {
		var c CurveData
		c.AddSample(ExpressionSample{Time: 1, Value: 0, Curve: tt.curve})
		c.AddSample(ExpressionSample{Time: 2, Value: 1, Curve: tt.curve})
		c.AddSample(ExpressionSample{Time: 3, Value: 1, Curve: tt.curve})
		if got := c.Intensity(fixedAccessor{4}, tt.t); !near(got, tt.want, 1e-5) {
			t.Errorf("%s: Intensity(%v) = %v, want %v", tt.name, tt.t, got, tt.want)
		}
	}
}

func TestSpanTies(t *testing.T) {
	cv := &curve{
		samples: []ExpressionSample{
			{Time: 1, Value: 0.1},
			{Time: 1, Value: 0.2},
			{Time: 1, Value: 0.3},
			{Time: 2, Value: 0.4},
		},
		right: ExpressionSample{Time: 3},
	}
	// bounded(-1) is the left edge at 0, bounded(0) the first sample at 1
	if got := cv.span(1); got != -1 {
		t.Errorf("span(1) = %v, want -1", got)
	}
	if got := cv.span(1.5); got != 2 {
		t.Errorf("span(1.5) = %v, want 2", got)
	}
	if got := cv.span(3); got != 3 {
		t.Errorf("span(3) = %v, want 3", got)
	}
}

func TestSpanMatchesScan(t *testing.T) {
	for n := 0; n < 20; n++ {
		cv := &curve{right: ExpressionSample{Time: float32(n + 1)}}
		for i := 0; i < n; i++ {
			cv.samples = append(cv.samples, ExpressionSample{Time: float32(i) + 0.5})
		}
		for x := float32(0); x <= float32(n+1); x += 0.25 {
			if got, want := cv.span(x), cv.scan(x); got != want {
				t.Errorf("n=%d: span(%v) = %v, scan = %v", n, x, got, want)
			}
		}
	}
}

func TestSpanUnsorted(t *testing.T) {
	cv := &curve{
		samples: []ExpressionSample{{Time: 5}, {Time: 1}, {Time: 4}, {Time: 2}, {Time: 3}},
		right:   ExpressionSample{Time: 6},
	}
	for x := float32(0); x <= 6; x += 0.5 {
		cv.span(x)
	}
}

func TestIntensityArea(t *testing.T) {
	var c CurveData
	acc := fixedAccessor{2}
	if got := c.IntensityArea(acc, 1.5); !near(got, 1.5, 1e-5) {
		t.Errorf("empty IntensityArea(1.5) = %v, want 1.5", got)
	}
	flat := spline.MakeCurveType(spline.Linear, spline.Linear)
	c.SetEdgeInfo(true, EdgeInfo{Active: true, CurveType: flat, ZeroValue: 1})
	c.SetEdgeInfo(false, EdgeInfo{Active: true, CurveType: flat, ZeroValue: 1})
	c.AddSample(ExpressionSample{Time: 1, Value: 1, Curve: flat})
	if got := c.IntensityArea(acc, 1.5); !near(got, 1.5, 1e-4) {
		t.Errorf("flat IntensityArea(1.5) = %v, want 1.5", got)
	}
	if c.areaCache == nil {
		t.Fatalf("area cache not built")
	}
	c.SetSample(0, ExpressionSample{Time: 1, Value: 0, Curve: flat})
	if c.areaCache != nil {
		t.Errorf("SetSample did not invalidate the area cache")
	}
	// triangle 1 -> 0 -> 1 over [0,2]
	if got := c.IntensityArea(acc, 2); !near(got, 1, 1e-4) {
		t.Errorf("triangle IntensityArea(2) = %v, want 1", got)
	}
	if got := c.IntensityArea(acc, 1); !near(got, 0.5, 1e-4) {
		t.Errorf("triangle IntensityArea(1) = %v, want 0.5", got)
	}
	c.Add(0.5, 0.5)
	if c.areaCache != nil {
		t.Errorf("Add did not invalidate the area cache")
	}
	c.Resort(acc)
	c.IntensityArea(acc, 1)
	c.Delete(0)
	if c.areaCache != nil {
		t.Errorf("Delete did not invalidate the area cache")
	}
}

func TestResort(t *testing.T) {
	var c CurveData
	c.Add(1.5, 0.1)
	c.Add(-1, 0.2)
	c.Add(0.5, 0.3)
	c.Add(3, 0.4)
	c.Resort(fixedAccessor{2})
	got := c.Samples()
	if len(got) != 2 || got[0].Time != 0.5 || got[1].Time != 1.5 {
		t.Errorf("Resort() = %v, want samples at 0.5 and 1.5", got)
	}
}

func TestFlexTrackZeroSamples(t *testing.T) {
	s := NewScene(nil)
	e := s.AddEvent(FlexAnimation, "flex")
	e.SetStartTime(1)
	e.SetEndTime(3)
	tr := e.AddTrack("jaw_drop")
	tr.SetMin(-1)
	tr.SetMax(1)
	for x := float32(1); x <= 3; x += 0.25 {
		if got := tr.FracIntensity(x, SideAmount); got != 0.5 {
			t.Errorf("FracIntensity(%v) = %v, want 0.5", x, got)
		}
		if got := tr.Intensity(x, SideAmount); got != 0 {
			t.Errorf("Intensity(%v) = %v, want 0", x, got)
		}
		if got := tr.FracIntensity(x, SideBalance); got != 0.5 {
			t.Errorf("balance FracIntensity(%v) = %v, want 0.5", x, got)
		}
	}
}

func TestFlexTrackIntensity(t *testing.T) {
	s := NewScene(nil)
	e := s.AddEvent(FlexAnimation, "flex")
	e.SetStartTime(1)
	e.SetEndTime(3)
	tr := e.AddTrack("smile")
	tr.SetMin(0)
	tr.SetMax(2)
	tr.SetEdgeInfo(true, EdgeInfo{Active: true, ZeroValue: 0.25})
	tr.SetEdgeInfo(false, EdgeInfo{Active: true, ZeroValue: 0.75})
	tr.AddSample(SideAmount, ExpressionSample{Time: 1, Value: 1})
	tests := []struct {
		t    float32
		want float32
	}{
		{0, 0.5},
		{1, 0.5},
		{2, 2},
		{3, 1.5},
		{4, 1.5},
	}
	for _, tt := range tests {
		if got := tr.Intensity(tt.t, SideAmount); !near(got, tt.want, 1e-5) {
			t.Errorf("Intensity(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
	tr.SetComboType(true)
	tr.AddSample(SideBalance, ExpressionSample{Time: 1, Value: 0})
	if got := tr.Intensity(2, SideBalance); !near(got, 0, 1e-5) {
		t.Errorf("balance Intensity(2) = %v, want 0", got)
	}
}

func TestEventIntensityUsesSceneRamp(t *testing.T) {
	s := NewScene(nil)
	e := s.AddEvent(Expression, "e")
	e.SetStartTime(0)
	e.SetEndTime(4)
	if got := e.Intensity(2); got != 1 {
		t.Errorf("Intensity(2) = %v, want 1", got)
	}
	flat := spline.MakeCurveType(spline.Linear, spline.Linear)
	r := s.Ramp()
	r.SetEdgeInfo(true, EdgeInfo{Active: true, CurveType: flat, ZeroValue: 0.5})
	r.SetEdgeInfo(false, EdgeInfo{Active: true, CurveType: flat, ZeroValue: 0.5})
	r.AddSample(ExpressionSample{Time: 2, Value: 0.5, Curve: flat})
	if got := e.Intensity(2); !near(got, 0.5, 1e-5) {
		t.Errorf("Intensity(2) with scene ramp = %v, want 0.5", got)
	}
}

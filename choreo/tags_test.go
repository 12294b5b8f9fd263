// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

import (
	"testing"

	"github.com/pkg/errors"
)

func TestPreventTagOverlap(t *testing.T) {
	tests := []struct {
		name  string
		in    []float32
		moved bool
	}{
		{"ordered", []float32{0.1, 0.5, 0.9}, false},
		{"collide", []float32{0.5, 0.5, 0.5}, true},
		{"reversed", []float32{0.9, 0.5, 0.1}, true},
		{"out of range", []float32{-0.5, 0.5, 1.5}, true},
		{"all at end", []float32{1, 1, 1, 1}, true},
	}
	for _, tt := range tests {
		tags := make([]AbsoluteTag, len(tt.in))
		for i, p := range tt.in {
			tags[i] = newAbsoluteTag("t", p)
		}
		if got := preventTagOverlap(tags); got != tt.moved {
			t.Errorf("%s: preventTagOverlap = %v, want %v", tt.name, got, tt.moved)
		}
		for i, tag := range tags {
			if tag.Percentage < 0 || tag.Percentage > 1 {
				t.Errorf("%s: tag %d at %v outside [0,1]", tt.name, i, tag.Percentage)
			}
			if i > 0 && tag.Percentage < tags[i-1].Percentage {
				t.Errorf("%s: tag %d at %v before tag %d at %v", tt.name, i, tag.Percentage, i-1, tags[i-1].Percentage)
			}
		}
		if preventTagOverlap(tags) {
			t.Errorf("%s: second preventTagOverlap moved tags", tt.name)
		}
	}
}

func TestEntryExitTags(t *testing.T) {
	s := NewScene(nil)
	e := s.AddEvent(Gesture, "g")
	e.AddAbsoluteTag(PlaybackTags, "end", 0.8)
	e.AddAbsoluteTag(PlaybackTags, "Apex", 0.2)
	e.AddAbsoluteTag(PlaybackTags, "loop", 0.5)
	if got := e.FindEntryTag(PlaybackTags); got != 0 {
		t.Errorf("FindEntryTag = %v, want 0", got)
	}
	if got := e.FindExitTag(PlaybackTags); got != 2 {
		t.Errorf("FindExitTag = %v, want 2", got)
	}
	if got := e.FindEntryTag(OriginalTags); got != -1 {
		t.Errorf("FindEntryTag(original) = %v, want -1", got)
	}
}

func TestGesturePercentageMapping(t *testing.T) {
	s := NewScene(nil)
	e := s.AddEvent(Gesture, "g")
	e.SetStartTime(0)
	e.SetEndTime(2)
	e.AddAbsoluteTag(PlaybackTags, "apex", 0.5)
	e.AddAbsoluteTag(OriginalTags, "apex", 0.25)
	tests := []struct {
		playback, original float32
	}{
		{0, 0},
		{0.25, 0.125},
		{0.5, 0.25},
		{0.75, 0.625},
		{1, 1},
	}
	for _, tt := range tests {
		got, err := e.OriginalPercentageFromPlayback(tt.playback)
		if err != nil || !near(got, tt.original, 1e-6) {
			t.Errorf("OriginalPercentageFromPlayback(%v) = %v, %v, want %v", tt.playback, got, err, tt.original)
		}
		back, err := e.PlaybackPercentageFromOriginal(tt.original)
		if err != nil || !near(back, tt.playback, 1e-6) {
			t.Errorf("PlaybackPercentageFromOriginal(%v) = %v, %v, want %v", tt.original, back, err, tt.playback)
		}
	}
	if got, _ := e.GestureCycle(1); !near(got, 0.25, 1e-6) {
		t.Errorf("GestureCycle(1) = %v, want 0.25", got)
	}
	e.AddAbsoluteTag(OriginalTags, "end", 0.9)
	if _, err := e.OriginalPercentageFromPlayback(0.5); !errors.Is(err, ErrTagMismatch) {
		t.Errorf("mismatched timelines: err = %v, want %v", err, ErrTagMismatch)
	}
}

func TestRescaleGestureTimes(t *testing.T) {
	s := NewScene(nil)
	e := s.AddEvent(Gesture, "g")
	e.SetStartTime(0)
	e.SetEndTime(2)
	e.AddAbsoluteTag(PlaybackTags, "apex", 0.5)
	if err := e.RescaleGestureTimes(0, 4, true); err != nil {
		t.Fatalf("RescaleGestureTimes: %v", err)
	}
	if got := e.AbsoluteTagTime(PlaybackTags, 0); !near(got, 1, 1e-6) {
		t.Errorf("tag time after absolute rescale = %v, want 1", got)
	}
	if err := e.RescaleGestureTimes(0, 2, false); err != nil {
		t.Fatalf("RescaleGestureTimes: %v", err)
	}
	if tag, _ := e.AbsoluteTag(PlaybackTags, 0); !near(tag.Percentage, 0.25, 1e-6) {
		t.Errorf("tag percentage after relative rescale = %v, want 0.25", tag.Percentage)
	}
	sp := s.AddEvent(Speak, "s")
	if err := sp.RescaleGestureTimes(0, 1, true); !errors.Is(err, ErrNotGesture) {
		t.Errorf("RescaleGestureTimes on speak: err = %v, want %v", err, ErrNotGesture)
	}
}

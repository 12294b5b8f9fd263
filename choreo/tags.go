// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

import (
	"strings"

	qm "gochoreo/math"
)

// RelativeTag marks a point inside a Speak event that other events can
// synchronize to.
type RelativeTag struct {
	Name       string
	Percentage float32
}

// TimingTag marks a point inside a FlexAnimation event.
type TimingTag struct {
	Name       string
	Percentage float32
	Locked     bool
}

// AbsoluteTagType selects one of the two gesture timelines.
type AbsoluteTagType int

const (
	// PlaybackTags carry the times at which tags play in the scene.
	PlaybackTags AbsoluteTagType = iota
	// OriginalTags carry the times at which tags occur in the animation.
	OriginalTags
	NumAbsoluteTagTypes
)

var absoluteTagTypeNames = [NumAbsoluteTagTypes]string{"playback_time", "shifted_time"}

func (t AbsoluteTagType) String() string {
	if t < 0 || t >= NumAbsoluteTagTypes {
		return "unknown"
	}
	return absoluteTagTypeNames[t]
}

// AbsoluteTagTypeForName is the inverse of String.
func AbsoluteTagTypeForName(n string) (AbsoluteTagType, bool) {
	for i, s := range absoluteTagTypeNames {
		if strings.EqualFold(s, n) {
			return AbsoluteTagType(i), true
		}
	}
	return 0, false
}

// AbsoluteTag is a named point on a gesture timeline. Entry and exit tags
// are recognized by name and drive gesture blending.
type AbsoluteTag struct {
	Name       string
	Percentage float32
	Locked     bool
	Linear     bool
	Entry      bool
	Exit       bool
}

// clampPercentage keeps a tag position inside its event.
func clampPercentage(p float32) float32 {
	return qm.Clamp(0, p, 1)
}

func newAbsoluteTag(name string, pct float32) AbsoluteTag {
	l := strings.ToLower(name)
	return AbsoluteTag{
		Name:       name,
		Percentage: clampPercentage(pct),
		Entry:      strings.HasPrefix(l, "apex"),
		Exit:       strings.HasPrefix(l, "end"),
	}
}

const minTagSpacing = 0.01

// preventTagOverlap keeps percentages in [0,1] and strictly decreasing when
// walked from the back. It returns true if anything moved.
func preventTagOverlap(tags []AbsoluteTag) bool {
	moved := false
	for i := range tags {
		if p := tags[i].Percentage; p < 0 || p > 1 {
			tags[i].Percentage = min(max(p, 0), 1)
			moved = true
		}
	}
	minDp := float32(minTagSpacing)
	minP := float32(1)
	for i := len(tags) - 1; i >= 0; i-- {
		if tags[i].Percentage > minP {
			tags[i].Percentage = minP
			minDp = min(minTagSpacing, minP/float32(i+1))
			moved = true
		} else {
			minP = tags[i].Percentage
		}
		minP = max(minP-minDp, 0)
	}
	return moved
}

// SPDX-License-Identifier: GPL-2.0-or-later

// Package gametime is the frame clock that drives scene playback.
package gametime

import (
	"gochoreo/cvars"
	"gochoreo/math"
)

type GameTime struct {
	time       float64
	oldTime    float64
	frameTime  float64
	frameCount int
}

func (h *GameTime) Reset() {
	*h = GameTime{}
}

func (h *GameTime) Time() float64      { return h.time }
func (h *GameTime) OldTime() float64   { return h.oldTime }
func (h *GameTime) FrameTime() float64 { return h.frameTime }
func (h *GameTime) FrameCount() int    { return h.frameCount }

// Advance moves the clock by a real frame delta. The delta is clamped by
// scene_clamp_frametime and scaled by scene_timescale; negative deltas and
// non positive scales stop the clock. It returns the resulting frame time.
func (h *GameTime) Advance(dt float64) float64 {
	h.frameCount++
	h.oldTime = h.time
	if dt < 0 {
		dt = 0
	}
	if c := float64(cvars.SceneClampFrameTime.Value()); c > 0 {
		dt = math.Clamp(0, dt, c)
	}
	if s := float64(cvars.SceneTimeScale.Value()); s > 0 {
		dt *= s
	} else {
		dt = 0
	}
	h.frameTime = dt
	h.time += dt
	return dt
}

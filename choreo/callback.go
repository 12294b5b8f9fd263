// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

// EventCallback is implemented by the host to react to scene events.
//
// Calls happen synchronously from Scene.Think. A panic in a callback is not
// recovered; it unwinds through Think to the caller and leaves the scene in
// whatever state the tick had reached.
type EventCallback interface {
	// StartEvent is called when an event becomes active.
	StartEvent(currentTime float32, scene *Scene, event *Event)
	// EndEvent is called when an event with an end time stops being active.
	// Events without an end time never get EndEvent.
	EndEvent(currentTime float32, scene *Scene, event *Event)
	// ProcessEvent is called every tick an event with an end time stays active.
	ProcessEvent(currentTime float32, scene *Scene, event *Event)
	// CheckEvent is polled while the scene waits on a resume condition. The
	// scene continues once every pending event reports true.
	CheckEvent(currentTime float32, scene *Scene, event *Event) bool
}

// CallbackFuncs adapts plain functions to EventCallback. Nil functions are
// skipped; a nil Check reports completion.
type CallbackFuncs struct {
	Start   func(currentTime float32, scene *Scene, event *Event)
	End     func(currentTime float32, scene *Scene, event *Event)
	Process func(currentTime float32, scene *Scene, event *Event)
	Check   func(currentTime float32, scene *Scene, event *Event) bool
}

func (c *CallbackFuncs) StartEvent(t float32, s *Scene, e *Event) {
	if c.Start != nil {
		c.Start(t, s, e)
	}
}

func (c *CallbackFuncs) EndEvent(t float32, s *Scene, e *Event) {
	if c.End != nil {
		c.End(t, s, e)
	}
}

func (c *CallbackFuncs) ProcessEvent(t float32, s *Scene, e *Event) {
	if c.Process != nil {
		c.Process(t, s, e)
	}
}

func (c *CallbackFuncs) CheckEvent(t float32, s *Scene, e *Event) bool {
	if c.Check != nil {
		return c.Check(t, s, e)
	}
	return true
}

type nopCallback struct{}

func (nopCallback) StartEvent(float32, *Scene, *Event)      {}
func (nopCallback) EndEvent(float32, *Scene, *Event)        {}
func (nopCallback) ProcessEvent(float32, *Scene, *Event)    {}
func (nopCallback) CheckEvent(float32, *Scene, *Event) bool { return true }

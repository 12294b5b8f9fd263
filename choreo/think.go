// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

import (
	"gochoreo/conlog"
)

// maxLoopJumps bounds the loop rewinds a single Think may perform before it
// gives up on the remaining loops of that tick.
const maxLoopJumps = 64

// Time is the current simulation time.
func (s *Scene) Time() float32 {
	return s.currentTime
}

// IsPaused reports whether the scene waits on resume conditions.
func (s *Scene) IsPaused() bool {
	return s.paused
}

// PauseEvents returns the resume condition events the scene waits on.
func (s *Scene) PauseEvents() []*Event {
	var r []*Event
	for _, id := range s.pauseEvents {
		if e := s.events.get(id); e != nil {
			r = append(r, e)
		}
	}
	return r
}

func (s *Scene) enabled(e *Event) bool {
	if !e.active {
		return false
	}
	if a := s.actors.get(e.actor); a != nil && !a.active {
		return false
	}
	if c := s.channels.get(e.channel); c != nil && !c.active {
		return false
	}
	return true
}

// effectiveStart is the time an event starts during simulation.
func (s *Scene) effectiveStart(e *Event) float32 {
	if e.typ == Speak {
		return e.start - s.soundLatency
	}
	return e.start
}

// findStopTime returns the latest end of the enabled events, or the start
// for events without an end. The flag is false if a loop repeats forever.
func (s *Scene) findStopTime() (float32, bool) {
	var last float32
	finite := true
	for _, e := range s.Events() {
		if !s.enabled(e) {
			continue
		}
		t := e.start
		if e.HasEndTime() {
			t = e.end
		}
		last = max(last, t)
		if e.typ == Loop && e.loopsRemaining < 0 {
			finite = false
		}
	}
	return last, finite
}

// FindStopTime returns the natural end of the scene. It reports false if a
// loop in the scene repeats forever.
func (s *Scene) FindStopTime() (float32, bool) {
	t, ok := s.findStopTime()
	if !ok {
		return 0, false
	}
	return t, true
}

// ResetSimulation clears all transient event state and puts the clock at
// the start (or the end, when playing backward) of [startTime,endTime].
// A zero length window plays to the natural stop time.
func (s *Scene) ResetSimulation(forward bool, startTime, endTime float32) {
	for _, e := range s.Events() {
		e.resetSimulation()
	}
	s.pauseEvents = nil
	s.paused = false
	s.forward = forward
	s.startTime = startTime
	s.endTime = endTime
	s.currentTime = startTime
	if !forward && endTime > startTime {
		s.currentTime = endTime
	}
}

// SimulationFinished reports whether the clock has passed the end of the
// simulation window.
func (s *Scene) SimulationFinished() bool {
	if s.paused {
		return false
	}
	if !s.forward {
		return s.currentTime <= s.startTime
	}
	stop := s.endTime
	if stop <= s.startTime {
		t, ok := s.FindStopTime()
		if !ok {
			return false
		}
		stop = t
	}
	return s.currentTime >= stop
}

// CheckEventCompletion polls the pending resume conditions and reports
// whether all of them are done.
func (s *Scene) CheckEventCompletion() bool {
	cb := s.cb()
	done := true
	for _, e := range s.PauseEvents() {
		if !cb.CheckEvent(s.currentTime, s, e) {
			done = false
		}
	}
	return done
}

// Think advances the simulation clock to t and dispatches every event
// transition on the way. While the scene is paused the clock holds until all
// resume conditions complete. A loop that jumps back ends the tick; Time
// then reports the time jumped to.
func (s *Scene) Think(t float32) {
	cb := s.cb()
	if s.paused {
		if !s.CheckEventCompletion() {
			return
		}
		s.pauseEvents = nil
		s.paused = false
	}
	prev := s.currentTime
	for jumps := 0; ; jumps++ {
		stop := s.nextStopPoint(prev, t)
		target := t
		if stop != nil {
			target = s.effectiveStart(stop)
		}
		s.process(cb, prev, target)
		s.currentTime = target
		if stop == nil {
			return
		}
		if stop.typ == Loop {
			stop.fired = true
			if jumps < maxLoopJumps && s.loopBack(cb, stop) {
				return
			}
			prev = target
			continue
		}
		s.pauseAt(target)
		return
	}
}

// nextStopPoint finds the earliest loop or resume condition crossed moving
// forward from prev to t.
func (s *Scene) nextStopPoint(prev, t float32) *Event {
	if t < prev {
		return nil
	}
	var best *Event
	for _, e := range s.Events() {
		if !s.enabled(e) {
			continue
		}
		switch {
		case e.typ == Loop && !e.fired:
		case e.typ != Loop && e.resumeCondition && !e.pauseHandled:
		default:
			continue
		}
		st := s.effectiveStart(e)
		if st < prev || st > t {
			continue
		}
		if best == nil || st < s.effectiveStart(best) {
			best = e
		}
	}
	return best
}

func (s *Scene) pauseAt(t float32) {
	for _, e := range s.Events() {
		if e.typ == Loop || !e.resumeCondition || e.pauseHandled || !s.enabled(e) {
			continue
		}
		if s.effectiveStart(e) == t {
			e.pauseHandled = true
			s.pauseEvents = append(s.pauseEvents, e.id)
		}
	}
	s.paused = len(s.pauseEvents) > 0
}

func (s *Scene) loopBack(cb EventCallback, e *Event) bool {
	if e.loopsRemaining == 0 {
		return false
	}
	back, ok := e.LoopBackTime()
	if !ok || back >= e.start {
		conlog.Printf("loop %q: bad loop back time %q\n", e.name, e.params[0])
		return false
	}
	if e.loopsRemaining > 0 {
		e.loopsRemaining--
	}
	s.rewind(cb, back)
	return true
}

// rewind moves the clock back to t, ending events that no longer contain t
// and re-arming everything at or after t.
func (s *Scene) rewind(cb EventCallback, t float32) {
	for _, e := range s.Events() {
		st := s.effectiveStart(e)
		if e.processing && !(st <= t && t < e.end) {
			e.processing = false
			s.dispatchEnd(cb, s.currentTime, e)
		}
		if st >= t {
			e.fired = false
			e.pauseHandled = false
		}
	}
	s.currentTime = t
	s.process(cb, t, t)
}

// process applies every event transition between prev and cur.
func (s *Scene) process(cb EventCallback, prev, cur float32) {
	forward := cur >= prev
	for _, e := range s.Events() {
		st := s.effectiveStart(e)
		if !forward && st > cur {
			e.fired = false
			e.pauseHandled = false
		}
		if e.typ == Loop {
			continue
		}
		if !s.enabled(e) {
			if e.processing {
				e.processing = false
				s.dispatchEnd(cb, cur, e)
			}
			continue
		}
		if !e.HasEndTime() {
			if forward && !e.fired && prev <= st && st <= cur {
				e.fired = true
				s.dispatchStart(cb, cur, e)
			}
			continue
		}
		inside := st <= cur && cur < e.end
		switch {
		case e.processing && inside:
			s.dispatchProcess(cb, cur, e)
		case e.processing:
			e.processing = false
			s.dispatchEnd(cb, cur, e)
		case inside:
			e.processing = true
			e.fired = true
			s.dispatchStart(cb, cur, e)
		case forward && !e.fired && prev <= st && e.end <= cur:
			// the whole window passed within this tick
			e.fired = true
			s.dispatchStart(cb, cur, e)
			s.dispatchEnd(cb, cur, e)
		}
	}
}

func (s *Scene) dispatchStart(cb EventCallback, t float32, e *Event) {
	if s.printEvents {
		conlog.Printf("%8.4f:  start %s %q\n", t, e.typ, e.name)
	}
	cb.StartEvent(t, s, e)
}

func (s *Scene) dispatchEnd(cb EventCallback, t float32, e *Event) {
	if s.printEvents {
		conlog.Printf("%8.4f:  end   %s %q\n", t, e.typ, e.name)
	}
	cb.EndEvent(t, s, e)
}

func (s *Scene) dispatchProcess(cb EventCallback, t float32, e *Event) {
	cb.ProcessEvent(t, s, e)
}

// SPDX-License-Identifier: GPL-2.0-or-later

// Package choreo implements choreographed scenes: actors with channels of
// timed events, evaluated by a simulation clock that reports event
// transitions through an EventCallback.
package choreo

import (
	"slices"
	"sort"
	"strings"

	"gochoreo/spline"
)

const DefaultFPS = 60

// Scene owns actors, channels and events and drives their simulation.
// A Scene is not safe for concurrent use.
type Scene struct {
	actors   arena[Actor]
	channels arena[Channel]
	events   arena[Event]

	actorOrder []ActorID
	eventOrder []EventID

	ramp           CurveData
	filename       string
	mapName        string
	fps            int
	snap           bool
	ignorePhonemes bool
	scaleSettings  map[string]string

	callback     EventCallback
	soundLatency float32
	printEvents  bool

	currentTime float32
	startTime   float32
	endTime     float32
	forward     bool
	paused      bool
	pauseEvents []EventID
}

// NewScene returns an empty scene. cb may be nil.
func NewScene(cb EventCallback) *Scene {
	return &Scene{
		fps:           DefaultFPS,
		scaleSettings: make(map[string]string),
		callback:      cb,
		forward:       true,
	}
}

func (s *Scene) SetCallback(cb EventCallback) {
	s.callback = cb
}

func (s *Scene) Callback() EventCallback {
	return s.callback
}

func (s *Scene) cb() EventCallback {
	if s.callback == nil {
		return nopCallback{}
	}
	return s.callback
}

// SetSoundLatency makes Speak events start early by l seconds.
func (s *Scene) SetSoundLatency(l float32) {
	s.soundLatency = max(l, 0)
}

func (s *Scene) SoundLatency() float32 {
	return s.soundLatency
}

// SetPrintEvents logs every dispatched callback.
func (s *Scene) SetPrintEvents(b bool) {
	s.printEvents = b
}

func (s *Scene) Filename() string {
	return s.filename
}

func (s *Scene) SetFilename(n string) {
	s.filename = n
}

func (s *Scene) MapName() string {
	return s.mapName
}

func (s *Scene) SetMapName(n string) {
	s.mapName = n
}

func (s *Scene) FPS() int {
	return s.fps
}

func (s *Scene) SetFPS(fps int) {
	s.fps = fps
}

func (s *Scene) IsUsingFrameSnap() bool {
	return s.snap
}

func (s *Scene) SetUsingFrameSnap(b bool) {
	s.snap = b
}

// SnapTime rounds t to the scene frame rate if snapping is on.
func (s *Scene) SnapTime(t float32) float32 {
	if !s.snap || s.fps <= 0 {
		return t
	}
	f := float32(s.fps)
	return float32(int(t*f+0.5)) / f
}

func (s *Scene) IgnorePhonemes() bool {
	return s.ignorePhonemes
}

func (s *Scene) SetIgnorePhonemes(b bool) {
	s.ignorePhonemes = b
}

// ScaleSetting returns the authoring tool zoom stored for a view.
func (s *Scene) ScaleSetting(key string) (string, bool) {
	v, ok := s.scaleSettings[key]
	return v, ok
}

func (s *Scene) SetScaleSetting(key, value string) {
	s.scaleSettings[key] = value
}

// ScaleSettingKeys returns all scale setting keys, sorted.
func (s *Scene) ScaleSettingKeys() []string {
	keys := make([]string, 0, len(s.scaleSettings))
	for k := range s.scaleSettings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Scene ramp

func (s *Scene) Ramp() *CurveData {
	return &s.ramp
}

// Duration makes the scene the CurveDataAccessor of its own ramp.
func (s *Scene) Duration() float32 {
	t, _ := s.findStopTime()
	return t
}

func (s *Scene) CurveHasEndTime() bool {
	return true
}

func (s *Scene) DefaultCurveType() int {
	return spline.CurveCatmullRom
}

// SceneRampIntensity is the global intensity at scene time t.
func (s *Scene) SceneRampIntensity(t float32) float32 {
	return s.ramp.Intensity(s, t)
}

// Actors

// AddActor appends a new actor.
func (s *Scene) AddActor(name string) *Actor {
	a := &Actor{
		scene:  s,
		name:   boundName(name),
		active: true,
	}
	a.id = s.actors.add(a)
	s.actorOrder = append(s.actorOrder, a.id)
	return a
}

func (s *Scene) NumActors() int {
	return len(s.actorOrder)
}

func (s *Scene) Actor(i int) *Actor {
	if i < 0 || i >= len(s.actorOrder) {
		return nil
	}
	return s.actors.get(s.actorOrder[i])
}

func (s *Scene) Actors() []*Actor {
	r := make([]*Actor, 0, len(s.actorOrder))
	for _, id := range s.actorOrder {
		if a := s.actors.get(id); a != nil {
			r = append(r, a)
		}
	}
	return r
}

// FindActor looks an actor up by name, case insensitive.
func (s *Scene) FindActor(name string) *Actor {
	for _, a := range s.Actors() {
		if strings.EqualFold(a.name, name) {
			return a
		}
	}
	return nil
}

func (s *Scene) ActorByID(id ActorID) *Actor {
	return s.actors.get(id)
}

func (s *Scene) ChannelByID(id ChannelID) *Channel {
	return s.channels.get(id)
}

func (s *Scene) EventByID(id EventID) *Event {
	return s.events.get(id)
}

// RemoveActor removes a and everything it owns.
func (s *Scene) RemoveActor(a *Actor) bool {
	if a == nil || s.actors.get(a.id) != a {
		return false
	}
	for _, c := range a.Channels() {
		a.RemoveChannel(c)
	}
	s.actorOrder = removeID(s.actorOrder, a.id)
	s.actors.remove(a.id)
	a.scene = nil
	return true
}

// Events

// AddEvent appends a global event that belongs to no channel.
func (s *Scene) AddEvent(typ EventType, name string) *Event {
	return s.newEvent(nil, typ, name)
}

func (s *Scene) newEvent(c *Channel, typ EventType, name string) *Event {
	e := newEvent(s, typ, name)
	e.id = s.events.add(e)
	if c != nil {
		e.channel = c.id
		e.actor = c.actor
		c.events = append(c.events, e.id)
	}
	s.eventOrder = append(s.eventOrder, e.id)
	return e
}

func (s *Scene) NumEvents() int {
	return len(s.eventOrder)
}

func (s *Scene) Event(i int) *Event {
	if i < 0 || i >= len(s.eventOrder) {
		return nil
	}
	return s.events.get(s.eventOrder[i])
}

// Events returns every event of the scene in creation order.
func (s *Scene) Events() []*Event {
	r := make([]*Event, 0, len(s.eventOrder))
	for _, id := range s.eventOrder {
		if e := s.events.get(id); e != nil {
			r = append(r, e)
		}
	}
	return r
}

// GlobalEvents returns the events that belong to no channel.
func (s *Scene) GlobalEvents() []*Event {
	var r []*Event
	for _, e := range s.Events() {
		if !e.channel.Valid() {
			r = append(r, e)
		}
	}
	return r
}

func (s *Scene) FindEvent(name string) *Event {
	for _, e := range s.Events() {
		if strings.EqualFold(e.name, name) {
			return e
		}
	}
	return nil
}

// RemoveEvent deletes e from the scene. An active event is dropped without
// an EndEvent call.
func (s *Scene) RemoveEvent(e *Event) bool {
	if e == nil || s.events.get(e.id) != e {
		return false
	}
	if c := s.channels.get(e.channel); c != nil {
		c.events = removeID(c.events, e.id)
	}
	s.eventOrder = removeID(s.eventOrder, e.id)
	s.pauseEvents = removeID(s.pauseEvents, e.id)
	if s.paused && len(s.pauseEvents) == 0 {
		s.paused = false
	}
	s.events.remove(e.id)
	e.scene = nil
	return true
}

func removeID[T any](ids []Handle[T], id Handle[T]) []Handle[T] {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}

// Reconciliation

// ReconcileTags moves every event bound to a relative tag onto that tag.
// The tag is looked up on the Speak event playing the bound sound.
func (s *Scene) ReconcileTags() {
	for _, e := range s.Events() {
		if !e.usingRelativeTag {
			continue
		}
		for _, sp := range s.Events() {
			if sp.typ != Speak || !strings.EqualFold(sp.params[0], e.relativeTagWav) {
				continue
			}
			tag, ok := sp.FindRelativeTag(e.relativeTagName)
			if !ok {
				continue
			}
			e.OffsetTime(sp.RelativeTagTime(tag) - e.start)
			break
		}
	}
}

func (s *Scene) channelList() []*Channel {
	var r []*Channel
	for _, a := range s.Actors() {
		r = append(r, a.Channels()...)
	}
	return r
}

func (s *Scene) ReconcileGestureTimes() {
	for _, c := range s.channelList() {
		c.ReconcileGestureTimes()
	}
}

func (s *Scene) ReconcileCloseCaption() {
	for _, c := range s.channelList() {
		c.ReconcileCloseCaption()
	}
}

// ResortSamples puts every curve of the scene in time order. The scene ramp
// goes last since its duration depends on the events.
func (s *Scene) ResortSamples() {
	for _, e := range s.Events() {
		e.ResortSamples()
	}
	s.ramp.Resort(s)
}

// Reconcile runs all pre-pass normalizations.
func (s *Scene) Reconcile() {
	s.ReconcileTags()
	s.ReconcileGestureTimes()
	s.ReconcileCloseCaption()
}

// SpeakSounds returns the distinct sound names of all Speak events.
func (s *Scene) SpeakSounds() []string {
	var r []string
	seen := make(map[string]bool)
	for _, e := range s.Events() {
		if e.typ != Speak || e.params[0] == "" {
			continue
		}
		k := strings.ToLower(e.params[0])
		if !seen[k] {
			seen[k] = true
			r = append(r, e.params[0])
		}
	}
	return r
}

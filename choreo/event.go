// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

import (
	"sort"
	"strconv"
	"strings"

	qm "gochoreo/math"
	"gochoreo/spline"
)

type EventType int

const (
	Unspecified EventType = iota
	Section
	Expression
	LookAt
	MoveTo
	Speak
	Gesture
	Sequence
	Face
	FireTrigger
	FlexAnimation
	SubScene
	Loop
	Interrupt
	StopPoint
	PermitResponses
	Generic
	NumEventTypes
)

var eventTypeNames = [NumEventTypes]string{
	"unspecified",
	"section",
	"expression",
	"lookat",
	"moveto",
	"speak",
	"gesture",
	"sequence",
	"face",
	"firetrigger",
	"flexanimation",
	"subscene",
	"loop",
	"interrupt",
	"stoppoint",
	"permitresponses",
	"generic",
}

func (t EventType) String() string {
	if t < 0 || t >= NumEventTypes {
		return "unspecified"
	}
	return eventTypeNames[t]
}

// EventTypeForName maps a type name, case insensitive, to its EventType.
func EventTypeForName(n string) (EventType, bool) {
	for i, s := range eventTypeNames {
		if strings.EqualFold(s, n) {
			return EventType(i), true
		}
	}
	return Unspecified, false
}

type CloseCaptionType int

const (
	CCMaster CloseCaptionType = iota
	CCSlave
	CCDisabled
	NumCloseCaptionTypes
)

var ccTypeNames = [NumCloseCaptionTypes]string{"cc_master", "cc_slave", "cc_disabled"}

func (t CloseCaptionType) String() string {
	if t < 0 || t >= NumCloseCaptionTypes {
		return "cc_master"
	}
	return ccTypeNames[t]
}

func CloseCaptionTypeForName(n string) (CloseCaptionType, bool) {
	for i, s := range ccTypeNames {
		if strings.EqualFold(s, n) {
			return CloseCaptionType(i), true
		}
	}
	return CCMaster, false
}

// NoEndTime marks an event that only has a start.
const NoEndTime = -1

// Event is a timed action on a channel, or a global event on the scene.
type Event struct {
	scene   *Scene
	id      Handle[Event]
	actor   ActorID
	channel ChannelID

	typ    EventType
	name   string
	params [3]string
	start  float32
	end    float32
	ramp   CurveData

	resumeCondition        bool
	lockBodyFacing         bool
	fixedLength            bool
	active                 bool
	forceShortMovement     bool
	playOverScript         bool
	syncToFollowingGesture bool
	distanceToTarget       float32

	relativeTags []RelativeTag
	timingTags   []TimingTag
	absoluteTags [NumAbsoluteTagTypes][]AbsoluteTag

	gestureDuration float32

	usingRelativeTag bool
	relativeTagName  string
	relativeTagWav   string

	tracks []*FlexAnimationTrack

	numLoops       int
	loopsRemaining int

	ccType               CloseCaptionType
	ccToken              string
	usingCombinedFile    bool
	combinedUsingGender  bool
	suppressAttenuation  bool
	numSlaves            int
	lastSlaveEndTime     float32
	requiredCombinedHash uint32

	// simulation state, cleared by Scene.ResetSimulation
	processing   bool
	fired        bool
	pauseHandled bool
}

func newEvent(s *Scene, typ EventType, name string) *Event {
	return &Event{
		scene:           s,
		typ:             typ,
		name:            name,
		end:             NoEndTime,
		active:          true,
		gestureDuration: -1,
	}
}

func (e *Event) ID() EventID {
	return e.id
}

func (e *Event) Scene() *Scene {
	return e.scene
}

// Actor returns the owning actor, or nil for a global event.
func (e *Event) Actor() *Actor {
	if e.scene == nil {
		return nil
	}
	return e.scene.actors.get(e.actor)
}

// Channel returns the owning channel, or nil for a global event.
func (e *Event) Channel() *Channel {
	if e.scene == nil {
		return nil
	}
	return e.scene.channels.get(e.channel)
}

func (e *Event) Type() EventType {
	return e.typ
}

func (e *Event) SetType(t EventType) {
	e.typ = t
}

func (e *Event) Name() string {
	return e.name
}

func (e *Event) SetName(n string) {
	e.name = n
}

// Param returns parameter i (0..2).
func (e *Event) Param(i int) string {
	if i < 0 || i >= len(e.params) {
		return ""
	}
	return e.params[i]
}

func (e *Event) SetParam(i int, v string) {
	if i >= 0 && i < len(e.params) {
		e.params[i] = v
	}
}

func (e *Event) StartTime() float32 {
	return e.start
}

func (e *Event) SetStartTime(t float32) {
	e.start = t
	if e.HasEndTime() && e.end < t {
		e.end = t
	}
	e.ramp.invalidate()
}

func (e *Event) EndTime() float32 {
	return e.end
}

// SetEndTime sets the end, never before the start. NoEndTime clears it.
func (e *Event) SetEndTime(t float32) {
	if t != NoEndTime && t < e.start {
		t = e.start
	}
	e.end = t
	e.ramp.invalidate()
}

func (e *Event) HasEndTime() bool {
	return e.end != NoEndTime
}

func (e *Event) Duration() float32 {
	if !e.HasEndTime() {
		return 0
	}
	return e.end - e.start
}

// OffsetTime shifts the event by dt.
func (e *Event) OffsetTime(dt float32) {
	e.start += dt
	if e.HasEndTime() {
		e.end += dt
	}
}

// CurveHasEndTime, together with Duration and DefaultCurveType, lets an
// event act as CurveDataAccessor for its own ramp.
func (e *Event) CurveHasEndTime() bool {
	return e.HasEndTime()
}

func (e *Event) DefaultCurveType() int {
	return spline.CurveCatmullRom
}

func (e *Event) Ramp() *CurveData {
	return &e.ramp
}

// RampIntensity is the event ramp at scene time t.
func (e *Event) RampIntensity(t float32) float32 {
	return e.ramp.Intensity(e, t-e.start)
}

// Intensity is the event ramp scaled by the scene ramp.
func (e *Event) Intensity(t float32) float32 {
	global := float32(1)
	if e.scene != nil {
		global = e.scene.SceneRampIntensity(t)
	}
	return global * e.RampIntensity(t)
}

// IntensityArea integrates the event ramp from the event start to scene
// time t.
func (e *Event) IntensityArea(t float32) float32 {
	return e.ramp.IntensityArea(e, t-e.start)
}

func (e *Event) IsResumeCondition() bool      { return e.resumeCondition }
func (e *Event) SetResumeCondition(b bool)    { e.resumeCondition = b }
func (e *Event) IsLockBodyFacing() bool       { return e.lockBodyFacing }
func (e *Event) SetLockBodyFacing(b bool)     { e.lockBodyFacing = b }
func (e *Event) IsFixedLength() bool          { return e.fixedLength }
func (e *Event) SetFixedLength(b bool)        { e.fixedLength = b }
func (e *Event) IsActive() bool               { return e.active }
func (e *Event) SetActive(b bool)             { e.active = b }
func (e *Event) IsForceShortMovement() bool   { return e.forceShortMovement }
func (e *Event) SetForceShortMovement(b bool) { e.forceShortMovement = b }
func (e *Event) IsPlayOverScript() bool       { return e.playOverScript }
func (e *Event) SetPlayOverScript(b bool)     { e.playOverScript = b }

// IsSyncToFollowingGesture reports whether this gesture blends into the next
// gesture on its channel.
func (e *Event) IsSyncToFollowingGesture() bool {
	return e.syncToFollowingGesture
}

func (e *Event) SetSyncToFollowingGesture(b bool) {
	e.syncToFollowingGesture = b
}

func (e *Event) DistanceToTarget() float32 {
	return e.distanceToTarget
}

func (e *Event) SetDistanceToTarget(d float32) {
	e.distanceToTarget = d
}

// Relative tags

func (e *Event) RelativeTags() []RelativeTag {
	return append([]RelativeTag(nil), e.relativeTags...)
}

func (e *Event) AddRelativeTag(name string, pct float32) {
	e.relativeTags = append(e.relativeTags, RelativeTag{Name: name, Percentage: clampPercentage(pct)})
}

func (e *Event) RemoveRelativeTag(name string) bool {
	for i, t := range e.relativeTags {
		if strings.EqualFold(t.Name, name) {
			e.relativeTags = append(e.relativeTags[:i], e.relativeTags[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Event) FindRelativeTag(name string) (RelativeTag, bool) {
	for _, t := range e.relativeTags {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return RelativeTag{}, false
}

// RelativeTagTime converts a tag percentage into scene time.
func (e *Event) RelativeTagTime(t RelativeTag) float32 {
	return e.start + t.Percentage*e.Duration()
}

// SetUsingRelativeTag binds the event start to a tag on the Speak event
// playing wav. An empty tag name clears the binding.
func (e *Event) SetUsingRelativeTag(tag, wav string) {
	e.usingRelativeTag = tag != ""
	e.relativeTagName = tag
	e.relativeTagWav = wav
}

func (e *Event) IsUsingRelativeTag() bool {
	return e.usingRelativeTag
}

func (e *Event) RelativeTagName() string {
	return e.relativeTagName
}

func (e *Event) RelativeTagWav() string {
	return e.relativeTagWav
}

// Timing tags

func (e *Event) TimingTags() []TimingTag {
	return append([]TimingTag(nil), e.timingTags...)
}

func (e *Event) AddTimingTag(name string, pct float32, locked bool) {
	e.timingTags = append(e.timingTags, TimingTag{Name: name, Percentage: clampPercentage(pct), Locked: locked})
	sort.SliceStable(e.timingTags, func(i, j int) bool {
		return e.timingTags[i].Percentage < e.timingTags[j].Percentage
	})
}

func (e *Event) RemoveTimingTag(name string) bool {
	for i, t := range e.timingTags {
		if strings.EqualFold(t.Name, name) {
			e.timingTags = append(e.timingTags[:i], e.timingTags[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Event) FindTimingTag(name string) (TimingTag, bool) {
	for _, t := range e.timingTags {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return TimingTag{}, false
}

// Absolute tags

func (e *Event) NumAbsoluteTags(typ AbsoluteTagType) int {
	if typ < 0 || typ >= NumAbsoluteTagTypes {
		return 0
	}
	return len(e.absoluteTags[typ])
}

func (e *Event) AbsoluteTags(typ AbsoluteTagType) []AbsoluteTag {
	if typ < 0 || typ >= NumAbsoluteTagTypes {
		return nil
	}
	return append([]AbsoluteTag(nil), e.absoluteTags[typ]...)
}

func (e *Event) AbsoluteTag(typ AbsoluteTagType, i int) (AbsoluteTag, bool) {
	if typ < 0 || typ >= NumAbsoluteTagTypes || i < 0 || i >= len(e.absoluteTags[typ]) {
		return AbsoluteTag{}, false
	}
	return e.absoluteTags[typ][i], true
}

// AddAbsoluteTag inserts a tag keeping the timeline ordered by percentage
// and returns its index.
func (e *Event) AddAbsoluteTag(typ AbsoluteTagType, name string, pct float32) int {
	if typ < 0 || typ >= NumAbsoluteTagTypes {
		return -1
	}
	tags := e.absoluteTags[typ]
	pct = clampPercentage(pct)
	i := sort.Search(len(tags), func(i int) bool {
		return tags[i].Percentage > pct
	})
	tags = append(tags, AbsoluteTag{})
	copy(tags[i+1:], tags[i:])
	tags[i] = newAbsoluteTag(name, pct)
	e.absoluteTags[typ] = tags
	return i
}

func (e *Event) RemoveAbsoluteTag(typ AbsoluteTagType, name string) bool {
	i := e.FindAbsoluteTag(typ, name)
	if i < 0 {
		return false
	}
	e.absoluteTags[typ] = append(e.absoluteTags[typ][:i], e.absoluteTags[typ][i+1:]...)
	return true
}

func (e *Event) ClearAbsoluteTags(typ AbsoluteTagType) {
	if typ >= 0 && typ < NumAbsoluteTagTypes {
		e.absoluteTags[typ] = nil
	}
}

// FindAbsoluteTag returns the index of the named tag or -1.
func (e *Event) FindAbsoluteTag(typ AbsoluteTagType, name string) int {
	if typ < 0 || typ >= NumAbsoluteTagTypes {
		return -1
	}
	for i, t := range e.absoluteTags[typ] {
		if strings.EqualFold(t.Name, name) {
			return i
		}
	}
	return -1
}

func (e *Event) findTag(typ AbsoluteTagType, entry bool) int {
	if typ < 0 || typ >= NumAbsoluteTagTypes {
		return -1
	}
	for i, t := range e.absoluteTags[typ] {
		if (entry && t.Entry) || (!entry && t.Exit) {
			return i
		}
	}
	return -1
}

// FindEntryTag returns the index of the first entry tag or -1.
func (e *Event) FindEntryTag(typ AbsoluteTagType) int {
	return e.findTag(typ, true)
}

// FindExitTag returns the index of the first exit tag or -1.
func (e *Event) FindExitTag(typ AbsoluteTagType) int {
	return e.findTag(typ, false)
}

func (e *Event) SetAbsoluteTagPercentage(typ AbsoluteTagType, i int, pct float32) bool {
	if _, ok := e.AbsoluteTag(typ, i); !ok {
		return false
	}
	e.absoluteTags[typ][i].Percentage = clampPercentage(pct)
	return true
}

func (e *Event) SetAbsoluteTagFlags(typ AbsoluteTagType, i int, locked, linear bool) bool {
	if _, ok := e.AbsoluteTag(typ, i); !ok {
		return false
	}
	e.absoluteTags[typ][i].Locked = locked
	e.absoluteTags[typ][i].Linear = linear
	return true
}

// AbsoluteTagTime is the scene time of tag i.
func (e *Event) AbsoluteTagTime(typ AbsoluteTagType, i int) float32 {
	t, ok := e.AbsoluteTag(typ, i)
	if !ok {
		return e.start
	}
	return e.start + t.Percentage*e.Duration()
}

// SetAbsoluteTagTime moves tag i to scene time t.
func (e *Event) SetAbsoluteTagTime(typ AbsoluteTagType, i int, t float32) bool {
	d := e.Duration()
	var pct float32
	if d > 0 {
		pct = (t - e.start) / d
	}
	return e.SetAbsoluteTagPercentage(typ, i, pct)
}

// PreventTagOverlap keeps a timeline inside [0,1] and strictly increasing.
// It returns true if any tag moved.
func (e *Event) PreventTagOverlap(typ AbsoluteTagType) bool {
	if typ < 0 || typ >= NumAbsoluteTagTypes {
		return false
	}
	return preventTagOverlap(e.absoluteTags[typ])
}

func (e *Event) matchedTimelines() ([]AbsoluteTag, []AbsoluteTag, error) {
	pb, orig := e.absoluteTags[PlaybackTags], e.absoluteTags[OriginalTags]
	if len(pb) != len(orig) {
		return nil, nil, ErrTagMismatch
	}
	for i := range pb {
		if !strings.EqualFold(pb[i].Name, orig[i].Name) {
			return nil, nil, ErrTagMismatch
		}
	}
	return pb, orig, nil
}

// remap converts t from the from timeline onto the to timeline, piecewise
// linear between matching tags with implicit ends at 0 and 1.
func remap(from, to []AbsoluteTag, t float32) float32 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	var s, sTo float32
	for i := 0; i <= len(from); i++ {
		n, nTo := float32(1), float32(1)
		if i < len(from) {
			n, nTo = from[i].Percentage, to[i].Percentage
		}
		if t <= n {
			if n > s {
				return sTo + (t-s)/(n-s)*(nTo-sTo)
			}
			return nTo
		}
		s, sTo = n, nTo
	}
	return t
}

// OriginalPercentageFromPlayback maps a playback fraction of a gesture onto
// the fraction of its animation.
func (e *Event) OriginalPercentageFromPlayback(t float32) (float32, error) {
	pb, orig, err := e.matchedTimelines()
	if err != nil {
		return 0, err
	}
	return remap(pb, orig, t), nil
}

// PlaybackPercentageFromOriginal is the inverse mapping.
func (e *Event) PlaybackPercentageFromOriginal(t float32) (float32, error) {
	pb, orig, err := e.matchedTimelines()
	if err != nil {
		return 0, err
	}
	return remap(orig, pb, t), nil
}

// GestureCycle returns the animation cycle of a gesture at scene time t.
func (e *Event) GestureCycle(t float32) (float32, error) {
	d := e.Duration()
	if d <= 0 {
		return 0, nil
	}
	return e.OriginalPercentageFromPlayback(qm.Clamp(0, (t-e.start)/d, 1))
}

// GestureSequenceDuration is the length of the underlying animation, if
// known.
func (e *Event) GestureSequenceDuration() (float32, bool) {
	return e.gestureDuration, e.gestureDuration >= 0
}

func (e *Event) SetGestureSequenceDuration(d float32) {
	e.gestureDuration = d
}

// RescaleGestureTimes moves a gesture to [newStart,newEnd]. With
// maintainAbsolute the playback tags keep their scene times, otherwise they
// keep their percentages.
func (e *Event) RescaleGestureTimes(newStart, newEnd float32, maintainAbsolute bool) error {
	if e.typ != Gesture {
		return ErrNotGesture
	}
	if newEnd < newStart {
		newEnd = newStart
	}
	oldStart, oldDuration := e.start, e.Duration()
	newDuration := newEnd - newStart
	if maintainAbsolute && newDuration > 0 {
		for i := range e.absoluteTags[PlaybackTags] {
			tag := &e.absoluteTags[PlaybackTags][i]
			abs := oldStart + tag.Percentage*oldDuration
			tag.Percentage = qm.Clamp(0, (abs-newStart)/newDuration, 1)
		}
	}
	e.start = newStart
	e.end = newEnd
	e.ramp.invalidate()
	return nil
}

// ResortSamples orders the ramp and every flex track by time and drops
// samples outside the event.
func (e *Event) ResortSamples() {
	e.ramp.Resort(e)
	for _, t := range e.tracks {
		t.Resort()
	}
}

// Flex animation tracks

func (e *Event) NumFlexAnimationTracks() int {
	return len(e.tracks)
}

func (e *Event) FlexAnimationTrack(i int) *FlexAnimationTrack {
	if i < 0 || i >= len(e.tracks) {
		return nil
	}
	return e.tracks[i]
}

// AddTrack creates a new flex track owned by the event.
func (e *Event) AddTrack(name string) *FlexAnimationTrack {
	t := newFlexAnimationTrack(e, name)
	e.tracks = append(e.tracks, t)
	return t
}

func (e *Event) FindTrack(name string) *FlexAnimationTrack {
	for _, t := range e.tracks {
		if strings.EqualFold(t.name, name) {
			return t
		}
	}
	return nil
}

func (e *Event) RemoveTrack(i int) bool {
	if i < 0 || i >= len(e.tracks) {
		return false
	}
	e.tracks[i].event = nil
	e.tracks = append(e.tracks[:i], e.tracks[i+1:]...)
	return true
}

func (e *Event) RemoveAllTracks() {
	for _, t := range e.tracks {
		t.event = nil
	}
	e.tracks = nil
}

// Loops

// LoopCount is the configured number of loops, -1 loops forever.
func (e *Event) LoopCount() int {
	return e.numLoops
}

func (e *Event) SetLoopCount(n int) {
	e.numLoops = n
	e.loopsRemaining = n
}

func (e *Event) LoopsRemaining() int {
	return e.loopsRemaining
}

// LoopBackTime is the scene time a Loop event jumps back to.
func (e *Event) LoopBackTime() (float32, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(e.params[0]), 32)
	if err != nil {
		return 0, false
	}
	return float32(v), true
}

// Close captions

func (e *Event) CloseCaptionType() CloseCaptionType {
	return e.ccType
}

func (e *Event) SetCloseCaptionType(t CloseCaptionType) {
	e.ccType = t
}

// CloseCaptionToken is the caption lookup token. Empty means the sound name
// is used directly.
func (e *Event) CloseCaptionToken() string {
	return e.ccToken
}

func (e *Event) SetCloseCaptionToken(t string) {
	e.ccToken = t
}

func (e *Event) IsUsingCombinedFile() bool {
	return e.usingCombinedFile
}

func (e *Event) SetUsingCombinedFile(b bool) {
	e.usingCombinedFile = b
}

func (e *Event) IsCombinedUsingGenderToken() bool {
	return e.combinedUsingGender
}

func (e *Event) SetCombinedUsingGenderToken(b bool) {
	e.combinedUsingGender = b
}

func (e *Event) IsSuppressingCaptionAttenuation() bool {
	return e.suppressAttenuation
}

func (e *Event) SetSuppressingCaptionAttenuation(b bool) {
	e.suppressAttenuation = b
}

func (e *Event) NumSlaves() int {
	return e.numSlaves
}

func (e *Event) SetNumSlaves(n int) {
	e.numSlaves = n
}

func (e *Event) LastSlaveEndTime() float32 {
	return e.lastSlaveEndTime
}

func (e *Event) SetLastSlaveEndTime(t float32) {
	e.lastSlaveEndTime = t
}

func (e *Event) RequiredCombinedChecksum() uint32 {
	return e.requiredCombinedHash
}

func (e *Event) SetRequiredCombinedChecksum(c uint32) {
	e.requiredCombinedHash = c
}

// Simulation state

// IsProcessing reports whether the event is between StartEvent and EndEvent.
func (e *Event) IsProcessing() bool {
	return e.processing
}

func (e *Event) resetSimulation() {
	e.processing = false
	e.fired = false
	e.pauseHandled = false
	e.loopsRemaining = e.numLoops
}

// lessGesture orders events by start time.
func lessGesture(a, b *Event) bool {
	return a.start < b.start
}

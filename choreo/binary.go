// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

import (
	"github.com/pkg/errors"

	qm "gochoreo/math"
	"gochoreo/wire"
)

const (
	binaryTag     = 'b' | 'v'<<8 | 'c'<<16 | 'd'<<24
	BinaryVersion = 4
)

const (
	flagResumeCondition = 1 << iota
	flagLockBodyFacing
	flagFixedLength
	flagActive
	flagForceShortMovement
	flagPlayOverScript
	flagSyncToFollowingGesture
)

const (
	trackActive = 1 << iota
	trackCombo
	trackLeftEdge
	trackRightEdge
)

const (
	ccCombined = 1 << iota
	ccGender
	ccNoAttenuate
)

// IsBinaryScene reports whether data starts like a compiled scene.
func IsBinaryScene(data []byte) bool {
	r := wire.NewReader(data)
	tag, err := r.ReadUint32()
	return err == nil && tag == binaryTag
}

// BinaryCRC returns the source text checksum stored in a compiled scene.
func BinaryCRC(data []byte) (uint32, bool) {
	r := wire.NewReader(data)
	tag, err := r.ReadUint32()
	if err != nil || tag != binaryTag {
		return 0, false
	}
	if v, err := r.ReadUint8(); err != nil || v != BinaryVersion {
		return 0, false
	}
	c, err := r.ReadUint32()
	if err != nil {
		return 0, false
	}
	return c, true
}

type saver struct {
	w    *wire.Writer
	pool StringPool
	err  error
}

func (s *saver) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *saver) str(v string) {
	id := s.pool.FindOrAddString(v)
	if id < 0 {
		s.fail(errors.Wrapf(ErrStringPool, "adding %q", v))
	}
	s.w.WriteInt16(id)
}

func (s *saver) count(n int, what string) {
	if n > 255 {
		s.fail(errors.Wrapf(ErrTooMany, "%d %s", n, what))
	}
	s.w.WriteUint8(uint8(n))
}

// SaveToBuffer compiles the scene. textCRC identifies the source it was
// built from. Strings go to pool.
func (s *Scene) SaveToBuffer(textCRC uint32, pool StringPool) ([]byte, error) {
	w := wire.NewWriter()
	if err := s.SaveToWriter(w, textCRC, pool); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// SaveToWriter is SaveToBuffer onto an existing writer.
func (s *Scene) SaveToWriter(w *wire.Writer, textCRC uint32, pool StringPool) error {
	enc := &saver{w: w, pool: pool}
	w.WriteUint32(binaryTag)
	w.WriteUint8(BinaryVersion)
	w.WriteUint32(textCRC)

	global := s.GlobalEvents()
	enc.count(len(global), "global events")
	for _, e := range global {
		enc.event(e)
	}
	actors := s.Actors()
	enc.count(len(actors), "actors")
	for _, a := range actors {
		enc.str(a.name)
		channels := a.Channels()
		enc.count(len(channels), "channels")
		for _, c := range channels {
			enc.str(c.name)
			events := c.Events()
			enc.count(len(events), "events")
			for _, e := range events {
				enc.event(e)
			}
			w.WriteBool(c.active)
		}
		w.WriteBool(a.active)
	}
	enc.ramp(&s.ramp)
	w.WriteBool(s.ignorePhonemes)
	return enc.err
}

func (s *saver) ramp(c *CurveData) {
	s.count(len(c.samples), "ramp samples")
	for _, v := range c.samples {
		s.w.WriteFloat32(v.Time)
		s.w.WriteUnit(v.Value)
	}
}

func (s *saver) samples(list []ExpressionSample) {
	if len(list) > 0xffff {
		s.fail(errors.Wrapf(ErrTooMany, "%d track samples", len(list)))
	}
	s.w.WriteUint16(uint16(len(list)))
	for _, v := range list {
		s.w.WriteFloat32(v.Time)
		s.w.WriteUnit(v.Value)
		s.w.WriteUint16(uint16(v.Curve))
	}
}

func (s *saver) event(e *Event) {
	w := s.w
	w.WriteUint8(uint8(e.typ))
	s.str(e.name)
	w.WriteFloat32(e.start)
	w.WriteFloat32(e.end)
	for _, p := range e.params {
		s.str(p)
	}
	s.ramp(&e.ramp)

	var flags uint8
	for _, f := range []struct {
		set  bool
		mask uint8
	}{
		{e.resumeCondition, flagResumeCondition},
		{e.lockBodyFacing, flagLockBodyFacing},
		{e.fixedLength, flagFixedLength},
		{e.active, flagActive},
		{e.forceShortMovement, flagForceShortMovement},
		{e.playOverScript, flagPlayOverScript},
		{e.syncToFollowingGesture, flagSyncToFollowingGesture},
	} {
		if f.set {
			flags |= f.mask
		}
	}
	w.WriteUint8(flags)
	w.WriteFloat32(e.distanceToTarget)

	s.count(len(e.relativeTags), "relative tags")
	for _, t := range e.relativeTags {
		s.str(t.Name)
		w.WriteUnit(t.Percentage)
	}
	s.count(len(e.timingTags), "timing tags")
	for _, t := range e.timingTags {
		s.str(t.Name)
		w.WriteUnit(t.Percentage)
	}
	for typ := range e.absoluteTags {
		tags := e.absoluteTags[typ]
		s.count(len(tags), "absolute tags")
		for _, t := range tags {
			s.str(t.Name)
			w.WriteUnit4096(t.Percentage)
		}
	}
	if e.typ == Gesture {
		w.WriteFloat32(e.gestureDuration)
	}
	w.WriteBool(e.usingRelativeTag)
	if e.usingRelativeTag {
		s.str(e.relativeTagName)
		s.str(e.relativeTagWav)
	}

	s.count(len(e.tracks), "flex tracks")
	for _, t := range e.tracks {
		s.str(t.name)
		var tf uint8
		if t.active {
			tf |= trackActive
		}
		if t.combo {
			tf |= trackCombo
		}
		if t.edges[edgeLeft].Active {
			tf |= trackLeftEdge
		}
		if t.edges[edgeRight].Active {
			tf |= trackRightEdge
		}
		w.WriteUint8(tf)
		w.WriteFloat32(t.min)
		w.WriteFloat32(t.max)
		s.samples(t.samples[SideAmount])
		if t.combo {
			s.samples(t.samples[SideBalance])
		}
		for _, edge := range t.edges {
			if edge.Active {
				w.WriteUint16(uint16(edge.CurveType))
				w.WriteFloat32(edge.ZeroValue)
			}
		}
	}

	if e.typ == Loop {
		if e.numLoops < -128 || e.numLoops > 127 {
			s.fail(errors.Wrapf(ErrTooMany, "loop count %d", e.numLoops))
		}
		w.WriteInt8(int8(e.numLoops))
	}
	if e.typ == Speak {
		w.WriteUint8(uint8(e.ccType))
		s.str(e.ccToken)
		var cf uint8
		if e.ccType != CCDisabled && e.usingCombinedFile {
			cf |= ccCombined
		}
		if e.combinedUsingGender {
			cf |= ccGender
		}
		if e.suppressAttenuation {
			cf |= ccNoAttenuate
		}
		w.WriteUint8(cf)
	}
}

type restorer struct {
	r    *wire.Reader
	pool StringPool
	err  error
}

func (r *restorer) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *restorer) truncated(err error) {
	if err != nil {
		r.fail(errors.Wrapf(ErrTruncated, "at offset %d", r.r.Offset()))
	}
}

func (r *restorer) u8() uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.r.ReadUint8()
	r.truncated(err)
	return v
}

func (r *restorer) u16() uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.r.ReadUint16()
	r.truncated(err)
	return v
}

func (r *restorer) f32() float32 {
	if r.err != nil {
		return 0
	}
	v, err := r.r.ReadFloat32()
	r.truncated(err)
	return v
}

func (r *restorer) unit() float32 {
	return qm.DequantizeUnit(r.u8())
}

func (r *restorer) unit4096() float32 {
	return float32(r.u16()) * (1.0 / 4096.0)
}

func (r *restorer) str() string {
	if r.err != nil {
		return ""
	}
	id, err := r.r.ReadInt16()
	if err != nil {
		r.truncated(err)
		return ""
	}
	s, ok := r.pool.GetString(id)
	if !ok {
		r.fail(errors.Wrapf(ErrBadString, "id %d", id))
	}
	return s
}

// RestoreFromBuffer loads a compiled scene. On failure no scene is
// returned.
func RestoreFromBuffer(data []byte, pool StringPool, cb EventCallback) (*Scene, error) {
	r := &restorer{r: wire.NewReader(data), pool: pool}
	tag, err := r.r.ReadUint32()
	if err != nil || tag != binaryTag {
		return nil, ErrBadMagic
	}
	if v := r.u8(); r.err == nil && v != BinaryVersion {
		return nil, errors.Wrapf(ErrBadVersion, "version %d", v)
	}
	if _, err := r.r.ReadUint32(); err != nil {
		r.truncated(err)
	}

	sc := NewScene(cb)
	n := int(r.u8())
	for i := 0; i < n && r.err == nil; i++ {
		r.event(sc, nil)
	}
	n = int(r.u8())
	for i := 0; i < n && r.err == nil; i++ {
		a := sc.AddActor(r.str())
		nc := int(r.u8())
		for j := 0; j < nc && r.err == nil; j++ {
			c := a.AddChannel(r.str())
			ne := int(r.u8())
			for k := 0; k < ne && r.err == nil; k++ {
				r.event(sc, c)
			}
			c.active = r.u8() != 0
		}
		a.active = r.u8() != 0
	}
	r.ramp(&sc.ramp)
	sc.ignorePhonemes = r.u8() != 0
	if r.err != nil {
		return nil, r.err
	}
	if r.r.Len() != 0 {
		return nil, errors.Wrapf(ErrTrailingBytes, "%d bytes", r.r.Len())
	}
	sc.ResortSamples()
	return sc, nil
}

func (r *restorer) ramp(c *CurveData) {
	n := int(r.u8())
	for i := 0; i < n && r.err == nil; i++ {
		t := r.f32()
		c.Add(t, r.unit())
	}
}

func (r *restorer) samples(t *FlexAnimationTrack, side int) {
	n := int(r.u16())
	for i := 0; i < n && r.err == nil; i++ {
		tm := r.f32()
		v := r.unit()
		t.AddSample(side, ExpressionSample{Time: tm, Value: v, Curve: int(r.u16())})
	}
}

func (r *restorer) event(sc *Scene, c *Channel) {
	typ := EventType(r.u8())
	if r.err == nil && (typ < 0 || typ >= NumEventTypes) {
		r.fail(errors.Wrapf(ErrBadEventType, "type %d", typ))
		return
	}
	name := r.str()
	var e *Event
	if c != nil {
		e = c.AddEvent(typ, name)
	} else {
		e = sc.AddEvent(typ, name)
	}
	e.start = r.f32()
	e.end = r.f32()
	for i := range e.params {
		e.params[i] = r.str()
	}
	r.ramp(&e.ramp)

	flags := r.u8()
	e.resumeCondition = flags&flagResumeCondition != 0
	e.lockBodyFacing = flags&flagLockBodyFacing != 0
	e.fixedLength = flags&flagFixedLength != 0
	e.active = flags&flagActive != 0
	e.forceShortMovement = flags&flagForceShortMovement != 0
	e.playOverScript = flags&flagPlayOverScript != 0
	e.syncToFollowingGesture = flags&flagSyncToFollowingGesture != 0
	e.distanceToTarget = r.f32()

	n := int(r.u8())
	for i := 0; i < n && r.err == nil; i++ {
		name := r.str()
		e.AddRelativeTag(name, r.unit())
	}
	n = int(r.u8())
	for i := 0; i < n && r.err == nil; i++ {
		name := r.str()
		e.timingTags = append(e.timingTags, TimingTag{Name: name, Percentage: r.unit()})
	}
	for typ := range e.absoluteTags {
		n = int(r.u8())
		for i := 0; i < n && r.err == nil; i++ {
			name := r.str()
			e.absoluteTags[typ] = append(e.absoluteTags[typ], newAbsoluteTag(name, r.unit4096()))
		}
	}
	if e.typ == Gesture {
		e.gestureDuration = r.f32()
	}
	if r.u8() != 0 {
		tag := r.str()
		e.SetUsingRelativeTag(tag, r.str())
	}

	n = int(r.u8())
	for i := 0; i < n && r.err == nil; i++ {
		t := e.AddTrack(r.str())
		tf := r.u8()
		t.active = tf&trackActive != 0
		t.combo = tf&trackCombo != 0
		t.edges[edgeLeft].Active = tf&trackLeftEdge != 0
		t.edges[edgeRight].Active = tf&trackRightEdge != 0
		t.min = r.f32()
		t.max = r.f32()
		r.samples(t, SideAmount)
		if t.combo {
			r.samples(t, SideBalance)
		}
		for j := range t.edges {
			if t.edges[j].Active {
				t.edges[j].CurveType = int(r.u16())
				t.edges[j].ZeroValue = r.f32()
			}
		}
	}

	if e.typ == Loop {
		e.SetLoopCount(int(int8(r.u8())))
	}
	if e.typ == Speak {
		cc := CloseCaptionType(r.u8())
		if r.err == nil && (cc < 0 || cc >= NumCloseCaptionTypes) {
			r.fail(errors.Errorf("bad close caption type %d", cc))
		}
		e.ccType = cc
		e.ccToken = r.str()
		cf := r.u8()
		e.usingCombinedFile = cf&ccCombined != 0
		e.combinedUsingGender = cf&ccGender != 0
		e.suppressAttenuation = cf&ccNoAttenuate != 0
	}
}

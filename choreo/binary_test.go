// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

import (
	"testing"

	"github.com/pkg/errors"

	"gochoreo/spline"
	"gochoreo/stringpool"
	"gochoreo/wire"
)

func richScene() *Scene {
	s := NewScene(nil)
	s.SetIgnorePhonemes(true)
	s.Ramp().Add(1, 0.5)

	g := s.AddEvent(Loop, "loop")
	g.SetStartTime(8)
	g.SetParam(0, "1.5")
	g.SetLoopCount(-1)

	a := s.AddActor("Alyx")
	voice := a.AddChannel("voice")
	sp := voice.AddEvent(Speak, "line1")
	sp.SetParam(0, "alyx.hello")
	sp.SetStartTime(0.5)
	sp.SetEndTime(2.5)
	sp.SetFixedLength(true)
	sp.AddRelativeTag("beat", 0.5)
	sp.SetCloseCaptionToken("alyx.hello")
	sp.SetUsingCombinedFile(true)
	sp.SetSuppressingCaptionAttenuation(true)
	sp.Ramp().Add(0.25, 1)

	gest := a.AddChannel("gestures")
	gs := gest.AddEvent(Gesture, "wave")
	gs.SetParam(0, "g_wave")
	gs.SetStartTime(1)
	gs.SetEndTime(3)
	gs.SetSyncToFollowingGesture(true)
	gs.SetGestureSequenceDuration(1.75)
	gs.AddAbsoluteTag(PlaybackTags, "apex", 0.25)
	gs.AddAbsoluteTag(OriginalTags, "apex", 0.5)
	gs.SetUsingRelativeTag("beat", "alyx.hello")

	face := a.AddChannel("face")
	face.SetActive(false)
	fl := face.AddEvent(FlexAnimation, "flex")
	fl.SetStartTime(0)
	fl.SetEndTime(4)
	fl.SetResumeCondition(true)
	fl.AddTimingTag("open", 0.4, false)
	tr := fl.AddTrack("jaw_drop")
	tr.SetMin(-1)
	tr.SetMax(2)
	tr.SetComboType(true)
	tr.SetEdgeInfo(true, EdgeInfo{Active: true, CurveType: spline.CurveCatmullRom, ZeroValue: 0.125})
	tr.AddSample(SideAmount, ExpressionSample{Time: 1, Value: 0.8, Curve: spline.MakeCurveType(spline.Linear, spline.Hold)})
	tr.AddSample(SideBalance, ExpressionSample{Time: 2, Value: 0.2})

	b := s.AddActor("Barney")
	b.SetActive(false)
	b.AddChannel("empty")
	return s
}

func TestBinaryRoundTrip(t *testing.T) {
	s := richScene()
	pool := stringpool.New()
	data, err := s.SaveToBuffer(0xdeadbeef, pool)
	if err != nil {
		t.Fatalf("SaveToBuffer: %v", err)
	}
	if !IsBinaryScene(data) {
		t.Errorf("IsBinaryScene = false")
	}
	if c, ok := BinaryCRC(data); !ok || c != 0xdeadbeef {
		t.Errorf("BinaryCRC = %x, %v, want deadbeef, true", c, ok)
	}
	r, err := RestoreFromBuffer(data, pool, nil)
	if err != nil {
		t.Fatalf("RestoreFromBuffer: %v", err)
	}
	if r.NumEvents() != s.NumEvents() || r.NumActors() != s.NumActors() {
		t.Fatalf("restored %d events %d actors, want %d %d", r.NumEvents(), r.NumActors(), s.NumEvents(), s.NumActors())
	}
	if !r.IgnorePhonemes() || r.Ramp().Count() != 1 {
		t.Errorf("scene flags lost")
	}
	for i, a := range s.Actors() {
		ra := r.Actor(i)
		if ra.Name() != a.Name() || ra.IsActive() != a.IsActive() || ra.NumChannels() != a.NumChannels() {
			t.Errorf("actor %d = %q/%v/%d, want %q/%v/%d", i, ra.Name(), ra.IsActive(), ra.NumChannels(), a.Name(), a.IsActive(), a.NumChannels())
			continue
		}
		for j, c := range a.Channels() {
			rc := ra.Channel(j)
			if rc.Name() != c.Name() || rc.IsActive() != c.IsActive() || rc.NumEvents() != c.NumEvents() {
				t.Errorf("channel %q = %q/%v/%d", c.Name(), rc.Name(), rc.IsActive(), rc.NumEvents())
				continue
			}
			for k, e := range c.Events() {
				compareEvents(t, rc.Event(k), e)
			}
		}
	}
	compareEvents(t, r.GlobalEvents()[0], s.GlobalEvents()[0])

	tr := r.FindEvent("flex").FlexAnimationTrack(0)
	if got := tr.EdgeInfo(true); !got.Active || got.ZeroValue != 0.125 {
		t.Errorf("track edge = %+v", got)
	}
	if smp, _ := tr.Sample(SideAmount, 0); smp.Curve != spline.MakeCurveType(spline.Linear, spline.Hold) || !near(smp.Value, 0.8, 1.0/255) {
		t.Errorf("track sample = %+v", smp)
	}
	if tr.NumSamples(SideBalance) != 1 || !tr.IsComboType() || tr.Min() != -1 || tr.Max() != 2 {
		t.Errorf("track = combo %v min %v max %v balance %d", tr.IsComboType(), tr.Min(), tr.Max(), tr.NumSamples(SideBalance))
	}

	again, err := r.SaveToBuffer(0xdeadbeef, pool)
	if err != nil {
		t.Fatalf("second SaveToBuffer: %v", err)
	}
	if string(again) != string(data) {
		t.Errorf("second save differs from the first")
	}
}

func compareEvents(t *testing.T, got, want *Event) {
	t.Helper()
	if got.Type() != want.Type() || got.Name() != want.Name() {
		t.Errorf("event = %v %q, want %v %q", got.Type(), got.Name(), want.Type(), want.Name())
		return
	}
	if got.StartTime() != want.StartTime() || got.EndTime() != want.EndTime() {
		t.Errorf("%s: times = %v..%v, want %v..%v", want.Name(), got.StartTime(), got.EndTime(), want.StartTime(), want.EndTime())
	}
	for i := 0; i < 3; i++ {
		if got.Param(i) != want.Param(i) {
			t.Errorf("%s: param %d = %q, want %q", want.Name(), i, got.Param(i), want.Param(i))
		}
	}
	if got.IsResumeCondition() != want.IsResumeCondition() || got.IsFixedLength() != want.IsFixedLength() ||
		got.IsActive() != want.IsActive() || got.IsSyncToFollowingGesture() != want.IsSyncToFollowingGesture() {
		t.Errorf("%s: flags differ", want.Name())
	}
	if got.Ramp().Count() != want.Ramp().Count() {
		t.Errorf("%s: %d ramp samples, want %d", want.Name(), got.Ramp().Count(), want.Ramp().Count())
	}
	for typ := PlaybackTags; typ < NumAbsoluteTagTypes; typ++ {
		g, w := got.AbsoluteTags(typ), want.AbsoluteTags(typ)
		if len(g) != len(w) {
			t.Errorf("%s: %d %v tags, want %d", want.Name(), len(g), typ, len(w))
			continue
		}
		for i := range g {
			if g[i].Name != w[i].Name || !near(g[i].Percentage, w[i].Percentage, 1.0/4096) {
				t.Errorf("%s: tag %+v, want %+v", want.Name(), g[i], w[i])
			}
		}
	}
	for i, w := range want.RelativeTags() {
		g := got.RelativeTags()[i]
		if g.Name != w.Name || !near(g.Percentage, w.Percentage, 1.0/255) {
			t.Errorf("%s: relative tag %+v, want %+v", want.Name(), g, w)
		}
	}
	if len(got.TimingTags()) != len(want.TimingTags()) {
		t.Errorf("%s: %d timing tags, want %d", want.Name(), len(got.TimingTags()), len(want.TimingTags()))
	}
	gd, _ := got.GestureSequenceDuration()
	wd, _ := want.GestureSequenceDuration()
	if want.Type() == Gesture && gd != wd {
		t.Errorf("%s: gesture duration %v, want %v", want.Name(), gd, wd)
	}
	if got.IsUsingRelativeTag() != want.IsUsingRelativeTag() || got.RelativeTagName() != want.RelativeTagName() || got.RelativeTagWav() != want.RelativeTagWav() {
		t.Errorf("%s: relative tag binding differs", want.Name())
	}
	if got.LoopCount() != want.LoopCount() {
		t.Errorf("%s: loop count %d, want %d", want.Name(), got.LoopCount(), want.LoopCount())
	}
	if got.CloseCaptionType() != want.CloseCaptionType() || got.CloseCaptionToken() != want.CloseCaptionToken() ||
		got.IsUsingCombinedFile() != want.IsUsingCombinedFile() || got.IsSuppressingCaptionAttenuation() != want.IsSuppressingCaptionAttenuation() {
		t.Errorf("%s: caption state differs", want.Name())
	}
	if got.NumFlexAnimationTracks() != want.NumFlexAnimationTracks() {
		t.Errorf("%s: %d tracks, want %d", want.Name(), got.NumFlexAnimationTracks(), want.NumFlexAnimationTracks())
	}
}

func TestRestoreMalformed(t *testing.T) {
	pool := stringpool.New()
	data, err := richScene().SaveToBuffer(1, pool)
	if err != nil {
		t.Fatalf("SaveToBuffer: %v", err)
	}
	for n := 0; n < len(data); n++ {
		if s, err := RestoreFromBuffer(data[:n], pool, nil); err == nil || s != nil {
			t.Fatalf("RestoreFromBuffer(%d of %d bytes) = %v, %v, want failure", n, len(data), s, err)
		}
	}
	bad := append([]byte(nil), data...)
	bad[0] = 'x'
	if _, err := RestoreFromBuffer(bad, pool, nil); !errors.Is(err, ErrBadMagic) {
		t.Errorf("bad magic: err = %v, want %v", err, ErrBadMagic)
	}
	bad = append([]byte(nil), data...)
	bad[4] = BinaryVersion + 1
	if _, err := RestoreFromBuffer(bad, pool, nil); !errors.Is(err, ErrBadVersion) {
		t.Errorf("bad version: err = %v, want %v", err, ErrBadVersion)
	}
	if _, err := RestoreFromBuffer(append(data, 0), pool, nil); !errors.Is(err, ErrTrailingBytes) {
		t.Errorf("trailing data: err = %v, want %v", err, ErrTrailingBytes)
	}
	if _, err := RestoreFromBuffer(data, stringpool.New(), nil); !errors.Is(err, ErrBadString) {
		t.Errorf("empty pool: err = %v, want %v", err, ErrBadString)
	}
}

func TestRestoreBadEventType(t *testing.T) {
	w := wire.NewWriter()
	w.WriteUint32(binaryTag)
	w.WriteUint8(BinaryVersion)
	w.WriteUint32(0)
	w.WriteUint8(1)
	w.WriteUint8(uint8(NumEventTypes))
	if _, err := RestoreFromBuffer(w.Bytes(), stringpool.New(), nil); !errors.Is(err, ErrBadEventType) {
		t.Errorf("err = %v, want %v", err, ErrBadEventType)
	}
}

func TestRestoreResortsSamples(t *testing.T) {
	s := NewScene(nil)
	e := s.AddEvent(Expression, "e")
	e.SetStartTime(0)
	e.SetEndTime(2)
	e.Ramp().Add(1.5, 0.5)
	e.Ramp().Add(0.5, 1)
	e.Ramp().Add(3, 1)
	tr := e.AddTrack("jaw")
	tr.AddSample(SideAmount, ExpressionSample{Time: 2.5, Value: 1})
	tr.AddSample(SideAmount, ExpressionSample{Time: 1, Value: 0.5})
	pool := stringpool.New()
	data, err := s.SaveToBuffer(7, pool)
	if err != nil {
		t.Fatalf("SaveToBuffer: %v", err)
	}
	r, err := RestoreFromBuffer(data, pool, nil)
	if err != nil {
		t.Fatalf("RestoreFromBuffer: %v", err)
	}
	re := r.Event(0)
	ramp := re.Ramp().Samples()
	if len(ramp) != 2 || ramp[0].Time != 0.5 || ramp[1].Time != 1.5 {
		t.Errorf("ramp samples = %v, want times 0.5, 1.5", ramp)
	}
	rt := re.FindTrack("jaw")
	if n := rt.NumSamples(SideAmount); n != 1 {
		t.Errorf("track samples = %d, want 1", n)
	} else if smp, _ := rt.Sample(SideAmount, 0); smp.Time != 1 {
		t.Errorf("track sample time = %v, want 1", smp.Time)
	}
}

type fullPool struct{}

func (fullPool) FindOrAddString(string) int16   { return -1 }
func (fullPool) GetString(int16) (string, bool) { return "", false }

func TestSaveErrors(t *testing.T) {
	if _, err := richScene().SaveToBuffer(0, fullPool{}); !errors.Is(err, ErrStringPool) {
		t.Errorf("full pool: err = %v, want %v", err, ErrStringPool)
	}
	s := NewScene(nil)
	c := s.AddActor("a").AddChannel("c")
	for i := 0; i < 256; i++ {
		c.AddEvent(Generic, "e")
	}
	if _, err := s.SaveToBuffer(0, stringpool.New()); !errors.Is(err, ErrTooMany) {
		t.Errorf("256 events: err = %v, want %v", err, ErrTooMany)
	}
	s = NewScene(nil)
	s.AddEvent(Loop, "l").SetLoopCount(1000)
	if _, err := s.SaveToBuffer(0, stringpool.New()); !errors.Is(err, ErrTooMany) {
		t.Errorf("loop count 1000: err = %v, want %v", err, ErrTooMany)
	}
}

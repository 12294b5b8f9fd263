// SPDX-License-Identifier: GPL-2.0-or-later

package vcd

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"gochoreo/choreo"
	"gochoreo/spline"
)

var errBadString = errors.New("string cannot be written")

type writer struct {
	w     *bufio.Writer
	depth int
	err   error
}

// Marshal returns the text form of s.
func Marshal(s *choreo.Scene) ([]byte, error) {
	var b bytes.Buffer
	if err := Write(&b, s); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Write writes the text form of s to w. Strings containing quotes or line
// breaks have no text form and make Write fail.
func Write(w io.Writer, s *choreo.Scene) error {
	enc := &writer{w: bufio.NewWriter(w)}
	enc.scene(s)
	if enc.err != nil {
		return enc.err
	}
	return enc.w.Flush()
}

func fmtFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

func quote(s string) (string, error) {
	if strings.ContainsAny(s, "\"\n") {
		return "", errors.Wrapf(errBadString, "%q", s)
	}
	return `"` + s + `"`, nil
}

// line writes one indented line made of the given fields.
func (w *writer) line(fields ...string) {
	if w.err != nil {
		return
	}
	for i := 0; i < w.depth; i++ {
		w.w.WriteByte('\t')
	}
	w.w.WriteString(strings.Join(fields, " "))
	if _, err := w.w.WriteString("\n"); err != nil {
		w.err = err
	}
}

func (w *writer) q(s string) string {
	r, err := quote(s)
	if err != nil && w.err == nil {
		w.err = err
	}
	return r
}

func (w *writer) open(fields ...string) {
	if len(fields) > 0 {
		w.line(fields...)
	}
	w.line("{")
	w.depth++
}

func (w *writer) close() {
	w.depth--
	w.line("}")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (w *writer) scene(s *choreo.Scene) {
	w.line(Header)
	for _, e := range s.GlobalEvents() {
		w.event(e)
	}
	for _, a := range s.Actors() {
		w.actor(a)
	}
	if s.Ramp().Count() > 0 {
		w.samples(s.Ramp().Samples(), s.Ramp().EdgeInfo(true), s.Ramp().EdgeInfo(false), "scene_ramp")
	}
	if keys := s.ScaleSettingKeys(); len(keys) > 0 {
		w.open("scalesettings")
		for _, k := range keys {
			v, _ := s.ScaleSetting(k)
			w.line(w.q(k), w.q(v))
		}
		w.close()
	}
	w.line("fps", strconv.Itoa(s.FPS()))
	w.line("snap", onOff(s.IsUsingFrameSnap()))
	w.line("ignorephonemes", onOff(s.IgnorePhonemes()))
	if m := s.MapName(); m != "" {
		w.line("mapname", w.q(m))
	}
}

func (w *writer) actor(a *choreo.Actor) {
	w.open("actor", w.q(a.Name()))
	for _, c := range a.Channels() {
		w.open("channel", w.q(c.Name()))
		for _, e := range c.Events() {
			w.event(e)
		}
		if !c.IsActive() {
			w.line("active", w.q("0"))
		}
		w.close()
	}
	if m := a.FacePoserModel(); m != "" {
		w.line("faceposermodel", w.q(m))
	}
	if !a.IsActive() {
		w.line("active", w.q("0"))
	}
	w.close()
}

func (w *writer) samples(list []choreo.ExpressionSample, left, right choreo.EdgeInfo, head ...string) {
	w.open(head...)
	for _, s := range list {
		f := []string{fmtFloat(s.Time), fmtFloat(s.Value)}
		if s.Curve != spline.CurveDefault {
			f = append(f, w.q(spline.CurveName(s.Curve)))
		}
		w.line(f...)
	}
	w.edge("leftedge", left)
	w.edge("rightedge", right)
	w.close()
}

func (w *writer) edge(head string, e choreo.EdgeInfo) {
	if e.Active {
		w.line(head, w.q(spline.CurveName(e.CurveType)), fmtFloat(e.ZeroValue))
	}
}

var eventFlags = []struct {
	name string
	get  func(*choreo.Event) bool
}{
	{"resumecondition", (*choreo.Event).IsResumeCondition},
	{"lockbodyfacing", (*choreo.Event).IsLockBodyFacing},
	{"fixedlength", (*choreo.Event).IsFixedLength},
	{"forceshortmovement", (*choreo.Event).IsForceShortMovement},
	{"playoverscript", (*choreo.Event).IsPlayOverScript},
	{"synctofollowinggesture", (*choreo.Event).IsSyncToFollowingGesture},
}

func (w *writer) event(e *choreo.Event) {
	w.open("event", e.Type().String(), w.q(e.Name()))
	w.line("time", fmtFloat(e.StartTime()), fmtFloat(e.EndTime()))
	for i, k := range []string{"param", "param2", "param3"} {
		if p := e.Param(i); p != "" || i == 0 {
			w.line(k, w.q(p))
		}
	}
	if r := e.Ramp(); r.Count() > 0 {
		w.samples(r.Samples(), r.EdgeInfo(true), r.EdgeInfo(false), "event_ramp")
	}
	for _, f := range eventFlags {
		if f.get(e) {
			w.line(f.name)
		}
	}
	if !e.IsActive() {
		w.line("active", w.q("0"))
	}
	if d := e.DistanceToTarget(); d > 0 {
		w.line("distancetotarget", fmtFloat(d))
	}
	if tags := e.RelativeTags(); len(tags) > 0 {
		w.open("tags")
		for _, t := range tags {
			w.line(w.q(t.Name), fmtFloat(t.Percentage))
		}
		w.close()
	}
	if tags := e.TimingTags(); len(tags) > 0 {
		w.open("flextimingtags")
		for _, t := range tags {
			locked := "0"
			if t.Locked {
				locked = "1"
			}
			w.line(w.q(t.Name), fmtFloat(t.Percentage), locked)
		}
		w.close()
	}
	for typ := choreo.AbsoluteTagType(0); typ < choreo.NumAbsoluteTagTypes; typ++ {
		tags := e.AbsoluteTags(typ)
		if len(tags) == 0 {
			continue
		}
		w.open("absolutetags", typ.String())
		for _, t := range tags {
			w.line(w.q(t.Name), fmtFloat(t.Percentage))
		}
		w.close()
	}
	if e.Type() == choreo.Gesture {
		if d, ok := e.GestureSequenceDuration(); ok {
			w.line("sequenceduration", fmtFloat(d))
		}
	}
	if e.IsUsingRelativeTag() {
		w.line("relativetag", w.q(e.RelativeTagName()), w.q(e.RelativeTagWav()))
	}
	if n := e.NumFlexAnimationTracks(); n > 0 {
		w.open("flexanimations", "samples_use_time")
		for i := 0; i < n; i++ {
			w.track(e.FlexAnimationTrack(i))
		}
		w.close()
	}
	if e.Type() == choreo.Loop {
		w.line("loopcount", w.q(strconv.Itoa(e.LoopCount())))
	}
	if e.Type() == choreo.Speak {
		w.line("cctype", w.q(e.CloseCaptionType().String()))
		w.line("cctoken", w.q(e.CloseCaptionToken()))
		if e.CloseCaptionType() != choreo.CCDisabled && e.IsUsingCombinedFile() {
			w.line("cc_usingcombinedfile")
		}
		if e.IsCombinedUsingGenderToken() {
			w.line("cc_combinedusesgender")
		}
		if e.IsSuppressingCaptionAttenuation() {
			w.line("cc_noattenuate")
		}
	}
	w.close()
}

func (w *writer) track(t *choreo.FlexAnimationTrack) {
	head := []string{w.q(t.Name())}
	if !t.IsActive() {
		head = append(head, "disabled")
	}
	if t.IsComboType() {
		head = append(head, "combo")
	}
	if t.Min() != 0 || t.Max() != 1 {
		head = append(head, "range", fmtFloat(t.Min()), fmtFloat(t.Max()))
	}
	w.line(head...)
	w.samples(trackSamples(t, choreo.SideAmount), t.EdgeInfo(true), t.EdgeInfo(false))
	if t.IsComboType() {
		w.samples(trackSamples(t, choreo.SideBalance), choreo.EdgeInfo{}, choreo.EdgeInfo{})
	}
}

func trackSamples(t *choreo.FlexAnimationTrack, side int) []choreo.ExpressionSample {
	list := make([]choreo.ExpressionSample, 0, t.NumSamples(side))
	for i := 0; i < t.NumSamples(side); i++ {
		s, _ := t.Sample(side, i)
		list = append(list, s)
	}
	return list
}

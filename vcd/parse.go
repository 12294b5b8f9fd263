// SPDX-License-Identifier: GPL-2.0-or-later

// Package vcd reads and writes the text form of choreographed scenes.
package vcd

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"gochoreo/choreo"
	"gochoreo/spline"
)

// Header is the first line of every written scene.
const Header = "// Choreo version 1"

type parser struct {
	l      *lexer
	peeked *item
	scene  *choreo.Scene
	err    error
}

// Parse reads a scene from its text form, sorts its curves and runs the
// scene reconciliation passes. name is recorded as the scene file name. On any
// error no scene is returned.
func Parse(name string, src []byte, cb choreo.EventCallback) (*choreo.Scene, error) {
	p := &parser{
		l:     lex(string(src)),
		scene: choreo.NewScene(cb),
	}
	p.scene.SetFilename(name)
	p.parseScene()
	if p.err != nil {
		return nil, errors.Wrapf(p.err, "parsing %s", name)
	}
	p.scene.ResortSamples()
	p.scene.Reconcile()
	return p.scene, nil
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *parser) failf(it item, format string, args ...interface{}) {
	p.fail(errors.Errorf("line %d: %s", it.line, errors.Errorf(format, args...)))
}

func (p *parser) next() item {
	if p.peeked != nil {
		it := *p.peeked
		p.peeked = nil
		return it
	}
	it := p.l.nextItem()
	if it.typ == itemError {
		p.fail(errors.New(it.val))
		return item{typ: itemEOF, line: it.line}
	}
	return it
}

func (p *parser) peek() item {
	if p.peeked == nil {
		it := p.next()
		p.peeked = &it
	}
	return *p.peeked
}

func (p *parser) expect(t itemType, what string) item {
	it := p.next()
	if p.err == nil && it.typ != t {
		p.failf(it, "expected %s, got %v", what, it)
	}
	return it
}

func (p *parser) open() {
	p.expect(itemOpen, "'{'")
}

// closed consumes a '}' if it comes next. It also ends loops on errors and
// at the end of input.
func (p *parser) closed() bool {
	if p.err != nil {
		return true
	}
	it := p.peek()
	switch it.typ {
	case itemClose:
		p.next()
		return true
	case itemEOF:
		p.failf(it, "unexpected end of file")
		return true
	}
	return false
}

// value reads a quoted string or a bare word.
func (p *parser) value() string {
	it := p.next()
	if p.err == nil && it.typ != itemString && it.typ != itemWord {
		p.failf(it, "expected a value, got %v", it)
	}
	return it.val
}

func (p *parser) str() string {
	return p.expect(itemString, "a quoted string").val
}

func (p *parser) float() float32 {
	it := p.next()
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(it.val, 32)
	if err != nil || (it.typ != itemWord && it.typ != itemString) {
		p.failf(it, "expected a number, got %v", it)
		return 0
	}
	return float32(v)
}

func (p *parser) integer() int {
	it := p.next()
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(it.val))
	if err != nil {
		p.failf(it, "expected an integer, got %v", it)
		return 0
	}
	return v
}

func isNumber(it item) bool {
	if it.typ != itemWord {
		return false
	}
	_, err := strconv.ParseFloat(it.val, 32)
	return err == nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "t", "true", "on":
		return true
	default:
		return false
	}
}

func (p *parser) boolean() bool {
	return parseBool(p.value())
}

func (p *parser) key() (item, string) {
	it := p.expect(itemWord, "a keyword")
	return it, strings.ToLower(it.val)
}

func (p *parser) parseScene() {
	s := p.scene
	for p.err == nil {
		if p.peek().typ == itemEOF {
			p.next()
			return
		}
		it, k := p.key()
		switch k {
		case "event":
			p.parseEvent(nil)
		case "actor":
			p.parseActor()
		case "scene_ramp":
			p.parseRamp(s.Ramp())
		case "scalesettings":
			p.open()
			for !p.closed() {
				key := p.value()
				s.SetScaleSetting(key, p.value())
			}
		case "fps":
			s.SetFPS(p.integer())
		case "snap":
			s.SetUsingFrameSnap(p.boolean())
		case "ignorephonemes":
			s.SetIgnorePhonemes(p.boolean())
		case "mapname":
			s.SetMapName(p.value())
		default:
			if p.err == nil {
				p.failf(it, "unknown scene keyword %q", it.val)
			}
		}
	}
}

func (p *parser) parseActor() {
	a := p.scene.AddActor(p.value())
	p.open()
	for !p.closed() {
		it, k := p.key()
		switch k {
		case "channel":
			c := a.AddChannel(p.value())
			p.open()
			for !p.closed() {
				it, k := p.key()
				switch k {
				case "event":
					p.parseEvent(c)
				case "active":
					c.SetActive(p.boolean())
				default:
					if p.err == nil {
						p.failf(it, "unknown channel keyword %q", it.val)
					}
				}
			}
		case "faceposermodel":
			a.SetFacePoserModel(p.value())
		case "active":
			a.SetActive(p.boolean())
		default:
			if p.err == nil {
				p.failf(it, "unknown actor keyword %q", it.val)
			}
		}
	}
}

// samples reads a block of "time value [curve]" lines with optional edge
// definitions.
func (p *parser) samples() ([]choreo.ExpressionSample, [2]choreo.EdgeInfo) {
	var list []choreo.ExpressionSample
	var edges [2]choreo.EdgeInfo
	p.open()
	for !p.closed() {
		switch strings.ToLower(p.peek().val) {
		case "leftedge", "rightedge":
			it := p.next()
			side := 1
			if strings.EqualFold(it.val, "leftedge") {
				side = 0
			}
			edges[side] = choreo.EdgeInfo{Active: true, CurveType: p.curve(), ZeroValue: p.float()}
			continue
		}
		smp := choreo.ExpressionSample{Time: p.float(), Value: p.float()}
		if p.err == nil && p.peek().typ == itemString {
			smp.Curve = p.curve()
		}
		list = append(list, smp)
	}
	return list, edges
}

func (p *parser) curve() int {
	it := p.next()
	if p.err != nil {
		return spline.CurveDefault
	}
	c, ok := spline.CurveForName(it.val)
	if !ok {
		p.failf(it, "unknown curve type %q", it.val)
	}
	return c
}

func (p *parser) parseRamp(c *choreo.CurveData) {
	list, edges := p.samples()
	for _, s := range list {
		c.AddSample(s)
	}
	c.SetEdgeInfo(true, edges[0])
	c.SetEdgeInfo(false, edges[1])
}

var flagSetters = map[string]func(*choreo.Event, bool){
	"resumecondition":        (*choreo.Event).SetResumeCondition,
	"lockbodyfacing":         (*choreo.Event).SetLockBodyFacing,
	"fixedlength":            (*choreo.Event).SetFixedLength,
	"forceshortmovement":     (*choreo.Event).SetForceShortMovement,
	"playoverscript":         (*choreo.Event).SetPlayOverScript,
	"synctofollowinggesture": (*choreo.Event).SetSyncToFollowingGesture,
	"cc_usingcombinedfile":   (*choreo.Event).SetUsingCombinedFile,
	"cc_combinedusesgender":  (*choreo.Event).SetCombinedUsingGenderToken,
	"cc_noattenuate":         (*choreo.Event).SetSuppressingCaptionAttenuation,
}

func (p *parser) parseEvent(c *choreo.Channel) {
	tt := p.expect(itemWord, "an event type")
	typ, ok := choreo.EventTypeForName(tt.val)
	if !ok && p.err == nil {
		p.failf(tt, "unknown event type %q", tt.val)
	}
	name := p.value()
	if p.err != nil {
		return
	}
	var e *choreo.Event
	if c != nil {
		e = c.AddEvent(typ, name)
	} else {
		e = p.scene.AddEvent(typ, name)
	}
	p.open()
	for !p.closed() {
		it, k := p.key()
		if set, ok := flagSetters[k]; ok {
			set(e, true)
			continue
		}
		switch k {
		case "time":
			start := p.float()
			end := float32(choreo.NoEndTime)
			if p.err == nil && isNumber(p.peek()) {
				end = p.float()
			}
			e.SetStartTime(start)
			e.SetEndTime(end)
		case "param":
			e.SetParam(0, p.value())
		case "param2":
			e.SetParam(1, p.value())
		case "param3":
			e.SetParam(2, p.value())
		case "active":
			e.SetActive(p.boolean())
		case "distancetotarget":
			e.SetDistanceToTarget(p.float())
		case "event_ramp":
			p.parseRamp(e.Ramp())
		case "tags":
			p.open()
			for !p.closed() {
				n := p.value()
				e.AddRelativeTag(n, p.float())
			}
		case "flextimingtags":
			p.open()
			for !p.closed() {
				n := p.value()
				pct := p.float()
				locked := false
				if p.err == nil && p.peek().typ == itemWord {
					locked = p.boolean()
				}
				e.AddTimingTag(n, pct, locked)
			}
		case "absolutetags":
			tt := p.next()
			at, ok := choreo.AbsoluteTagTypeForName(tt.val)
			if !ok && p.err == nil {
				p.failf(tt, "unknown absolute tag type %q", tt.val)
			}
			p.open()
			for !p.closed() {
				n := p.value()
				e.AddAbsoluteTag(at, n, p.float())
			}
		case "sequenceduration":
			e.SetGestureSequenceDuration(p.float())
		case "relativetag":
			tag := p.value()
			e.SetUsingRelativeTag(tag, p.value())
		case "flexanimations":
			p.parseFlexAnimations(e)
		case "loopcount":
			e.SetLoopCount(p.integer())
		case "cctype":
			ct := p.next()
			cc, ok := choreo.CloseCaptionTypeForName(ct.val)
			if !ok && p.err == nil {
				p.failf(ct, "unknown close caption type %q", ct.val)
			}
			e.SetCloseCaptionType(cc)
		case "cctoken":
			e.SetCloseCaptionToken(p.value())
		default:
			if p.err == nil {
				p.failf(it, "unknown event keyword %q", it.val)
			}
		}
	}
}

func (p *parser) parseFlexAnimations(e *choreo.Event) {
	if p.peek().typ == itemWord && strings.EqualFold(p.peek().val, "samples_use_time") {
		p.next()
	}
	p.open()
	for !p.closed() {
		t := e.AddTrack(p.str())
	Modifiers:
		for p.err == nil {
			switch strings.ToLower(p.peek().val) {
			case "disabled":
				p.next()
				t.SetActive(false)
			case "combo":
				p.next()
				t.SetComboType(true)
			case "range":
				p.next()
				t.SetMin(p.float())
				t.SetMax(p.float())
			default:
				break Modifiers
			}
		}
		list, edges := p.samples()
		for _, s := range list {
			t.AddSample(choreo.SideAmount, s)
		}
		t.SetEdgeInfo(true, edges[0])
		t.SetEdgeInfo(false, edges[1])
		if t.IsComboType() {
			list, _ = p.samples()
			for _, s := range list {
				t.AddSample(choreo.SideBalance, s)
			}
		}
	}
}

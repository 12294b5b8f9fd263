// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

import (
	"encoding/binary"
	"math"
	"sort"
	"strings"

	"gochoreo/conlog"
	"gochoreo/crc"
)

// Channel is an ordered list of events owned by an actor.
type Channel struct {
	scene  *Scene
	id     ChannelID
	actor  ActorID
	name   string
	active bool
	events []EventID
}

func (c *Channel) ID() ChannelID {
	return c.id
}

func (c *Channel) Name() string {
	return c.name
}

func (c *Channel) SetName(n string) {
	c.name = n
}

func (c *Channel) IsActive() bool {
	return c.active
}

func (c *Channel) SetActive(a bool) {
	c.active = a
}

// Actor returns the owning actor.
func (c *Channel) Actor() *Actor {
	if c.scene == nil {
		return nil
	}
	return c.scene.actors.get(c.actor)
}

func (c *Channel) NumEvents() int {
	return len(c.events)
}

func (c *Channel) Event(i int) *Event {
	if c.scene == nil || i < 0 || i >= len(c.events) {
		return nil
	}
	return c.scene.events.get(c.events[i])
}

func (c *Channel) Events() []*Event {
	if c.scene == nil {
		return nil
	}
	r := make([]*Event, 0, len(c.events))
	for _, id := range c.events {
		if e := c.scene.events.get(id); e != nil {
			r = append(r, e)
		}
	}
	return r
}

func (c *Channel) FindEvent(name string) *Event {
	for _, e := range c.Events() {
		if strings.EqualFold(e.name, name) {
			return e
		}
	}
	return nil
}

// AddEvent creates a new event at the end of the channel.
func (c *Channel) AddEvent(typ EventType, name string) *Event {
	if c.scene == nil {
		return nil
	}
	return c.scene.newEvent(c, typ, name)
}

func (c *Channel) RemoveEvent(e *Event) bool {
	if c.scene == nil || e == nil || e.channel != c.id {
		return false
	}
	return c.scene.RemoveEvent(e)
}

// sortedEvents returns the events of type typ ordered by start time. Equal
// starts keep channel order.
func (c *Channel) sortedEvents(typ EventType) []*Event {
	var r []*Event
	for _, e := range c.Events() {
		if e.typ == typ {
			r = append(r, e)
		}
	}
	sort.SliceStable(r, func(i, j int) bool {
		return lessGesture(r[i], r[j])
	})
	return r
}

// ReconcileGestureTimes stretches every gesture flagged to sync with its
// follower so that its exit tag lines up with the follower's entry tag.
func (c *Channel) ReconcileGestureTimes() {
	g := c.sortedEvents(Gesture)
	for i := 1; i < len(g); i++ {
		prev, cur := g[i-1], g[i]
		if !prev.syncToFollowingGesture {
			continue
		}
		entry := cur.FindEntryTag(PlaybackTags)
		exit := prev.FindExitTag(PlaybackTags)
		if entry < 0 || exit < 0 {
			continue
		}
		entryTime := cur.AbsoluteTagTime(PlaybackTags, entry)
		exitTag, _ := prev.AbsoluteTag(PlaybackTags, exit)
		decay := (1 - exitTag.Percentage) * prev.Duration()

		prev.RescaleGestureTimes(prev.start, entryTime+decay, true)
		prev.SetAbsoluteTagTime(PlaybackTags, exit, entryTime)

		prev.PreventTagOverlap(PlaybackTags)
		cur.PreventTagOverlap(PlaybackTags)
	}
}

func resetCaption(e *Event) {
	e.numSlaves = 0
	e.lastSlaveEndTime = 0
	e.usingCombinedFile = false
	e.requiredCombinedHash = 0
}

// captionGroups buckets the captioned speak events by token, in order of
// first appearance. Blank tokens are left out.
func (c *Channel) captionGroups() [][]*Event {
	var order []string
	groups := make(map[string][]*Event)
	for _, e := range c.sortedEvents(Speak) {
		if e.ccType == CCDisabled {
			continue
		}
		tok := strings.ToLower(e.ccToken)
		if tok == "" {
			continue
		}
		if _, ok := groups[tok]; !ok {
			order = append(order, tok)
		}
		groups[tok] = append(groups[tok], e)
	}
	r := make([][]*Event, 0, len(order))
	for _, tok := range order {
		r = append(r, groups[tok])
	}
	return r
}

// ReconcileCloseCaption assigns master and slave roles to speak events that
// share a caption token.
func (c *Channel) ReconcileCloseCaption() {
	for _, e := range c.sortedEvents(Speak) {
		switch {
		case e.ccType == CCDisabled:
			resetCaption(e)
		case e.ccToken == "":
			if e.ccType == CCSlave {
				conlog.Printf("%s: caption slave %q has no token, using it as master\n", c.name, e.name)
			}
			e.ccType = CCMaster
			resetCaption(e)
		}
	}
	for _, g := range c.captionGroups() {
		master := g[0]
		master.ccType = CCMaster
		if len(g) == 1 {
			resetCaption(master)
			continue
		}
		last := float32(0)
		for _, e := range g {
			end := e.start
			if e.HasEndTime() {
				end = e.end
			}
			last = max(last, end)
		}
		master.numSlaves = len(g) - 1
		master.lastSlaveEndTime = last
		for _, e := range g[1:] {
			e.ccType = CCSlave
			e.numSlaves = 0
			e.lastSlaveEndTime = 0
			e.requiredCombinedHash = 0
			e.usingCombinedFile = master.usingCombinedFile
		}
		if master.usingCombinedFile {
			master.requiredCombinedHash = c.CombinedChecksum(master)
		} else {
			master.requiredCombinedHash = 0
		}
	}
}

// CombinedChecksum identifies the set of sounds merged into the combined
// file of master: their names and their offsets from the master.
func (c *Channel) CombinedChecksum(master *Event) uint32 {
	if master == nil {
		return 0
	}
	tok := strings.ToLower(master.ccToken)
	var sum uint32
	var b [4]byte
	for _, g := range c.captionGroups() {
		if strings.ToLower(g[0].ccToken) != tok {
			continue
		}
		for _, e := range g {
			sum = crc.Continue(sum, []byte(crc.NormalizeName(e.params[0])))
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(e.start-master.start))
			sum = crc.Continue(sum, b[:])
		}
	}
	return sum
}

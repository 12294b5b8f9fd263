// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

import (
	"strings"
)

// MaxActorName bounds actor names in bytes.
const MaxActorName = 128

// Actor is a named performer owning an ordered list of channels.
type Actor struct {
	scene          *Scene
	id             ActorID
	name           string
	active         bool
	facePoserModel string
	channels       []ChannelID
}

func boundName(n string) string {
	if len(n) > MaxActorName {
		return n[:MaxActorName]
	}
	return n
}

func (a *Actor) ID() ActorID {
	return a.id
}

func (a *Actor) Name() string {
	return a.name
}

func (a *Actor) SetName(n string) {
	a.name = boundName(n)
}

func (a *Actor) IsActive() bool {
	return a.active
}

func (a *Actor) SetActive(b bool) {
	a.active = b
}

// FacePoserModel is the model the authoring tool previews the actor with.
func (a *Actor) FacePoserModel() string {
	return a.facePoserModel
}

func (a *Actor) SetFacePoserModel(m string) {
	a.facePoserModel = m
}

func (a *Actor) NumChannels() int {
	return len(a.channels)
}

func (a *Actor) Channel(i int) *Channel {
	if a.scene == nil || i < 0 || i >= len(a.channels) {
		return nil
	}
	return a.scene.channels.get(a.channels[i])
}

func (a *Actor) Channels() []*Channel {
	if a.scene == nil {
		return nil
	}
	r := make([]*Channel, 0, len(a.channels))
	for _, id := range a.channels {
		if c := a.scene.channels.get(id); c != nil {
			r = append(r, c)
		}
	}
	return r
}

func (a *Actor) FindChannel(name string) *Channel {
	for _, c := range a.Channels() {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	return nil
}

// AddChannel creates a new channel at the end of the actor.
func (a *Actor) AddChannel(name string) *Channel {
	if a.scene == nil {
		return nil
	}
	s := a.scene
	c := &Channel{
		scene:  s,
		actor:  a.id,
		name:   name,
		active: true,
	}
	c.id = s.channels.add(c)
	a.channels = append(a.channels, c.id)
	return c
}

// RemoveChannel removes c and all of its events.
func (a *Actor) RemoveChannel(c *Channel) bool {
	if a.scene == nil || c == nil || c.actor != a.id || a.scene.channels.get(c.id) != c {
		return false
	}
	s := a.scene
	for _, e := range c.Events() {
		s.RemoveEvent(e)
	}
	a.channels = removeID(a.channels, c.id)
	s.channels.remove(c.id)
	c.scene = nil
	return true
}

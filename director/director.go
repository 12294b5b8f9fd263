// SPDX-License-Identifier: GPL-2.0-or-later

// Package director plays scenes frame by frame.
package director

import (
	"slices"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"gochoreo/choreo"
	"gochoreo/conlog"
	"gochoreo/cvar"
	"gochoreo/cvars"
	"gochoreo/gametime"
	"gochoreo/pack"
	"gochoreo/snd"
	"gochoreo/vcd"
)

// Player is one playing scene instance.
type Player struct {
	id    uuid.UUID
	name  string
	scene *choreo.Scene
}

func (p *Player) ID() uuid.UUID {
	return p.id
}

func (p *Player) Name() string {
	return p.name
}

func (p *Player) Scene() *choreo.Scene {
	return p.scene
}

// Director advances all playing scenes on a shared frame clock. It is not
// safe for concurrent use; callbacks may start new scenes.
type Director struct {
	clock   gametime.GameTime
	sounds  *snd.Durations
	players map[uuid.UUID]*Player
	order   []uuid.UUID
}

// New returns a director. sounds may be nil, in which case speak events
// keep their authored lengths.
func New(sounds *snd.Durations) *Director {
	cvars.ScenePrint.SetCallback(func(cv *cvar.Cvar) {
		conlog.SetDeveloper(cv.Bool())
		if cv.Bool() {
			cvar.List()
		}
	})
	return &Director{
		sounds:  sounds,
		players: make(map[uuid.UUID]*Player),
	}
}

// Clock is the frame clock of the director.
func (d *Director) Clock() *gametime.GameTime {
	return &d.clock
}

// Play starts s from its beginning and returns its instance id.
func (d *Director) Play(s *choreo.Scene) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "scene id")
	}
	d.fixupSpeak(s)
	d.configure(s)
	s.ResetSimulation(true, 0, -1)
	d.players[id] = &Player{id: id, name: s.Filename(), scene: s}
	d.order = append(d.order, id)
	conlog.DPrintf("director: playing %s as %v\n", s.Filename(), id)
	return id, nil
}

// PlayText parses a text scene and plays it.
func (d *Director) PlayText(name string, src []byte, cb choreo.EventCallback) (uuid.UUID, error) {
	s, err := vcd.Parse(name, src, cb)
	if err != nil {
		return uuid.Nil, err
	}
	return d.Play(s)
}

// PlayImage loads a compiled scene from a scene image and plays it.
func (d *Director) PlayImage(im *pack.Image, name string, cb choreo.EventCallback) (uuid.UUID, error) {
	s, err := im.LoadScene(name, cb)
	if err != nil {
		return uuid.Nil, err
	}
	return d.Play(s)
}

// fixupSpeak makes fixed length speak events last as long as their sound.
func (d *Director) fixupSpeak(s *choreo.Scene) {
	if d.sounds == nil {
		return
	}
	changed := false
	for _, e := range s.Events() {
		if e.Type() != choreo.Speak || !e.IsFixedLength() || e.Param(0) == "" {
			continue
		}
		dur, err := d.sounds.Duration(e.Param(0))
		if err != nil || dur <= 0 {
			conlog.Printf("director: no length for %q in %s\n", e.Param(0), s.Filename())
			continue
		}
		e.SetEndTime(e.StartTime() + dur)
		changed = true
	}
	if changed {
		s.ReconcileCloseCaption()
	}
}

func (d *Director) configure(s *choreo.Scene) {
	s.SetSoundLatency(cvars.SceneLatency.Value())
	s.SetPrintEvents(cvars.ScenePrint.Bool())
}

func (d *Director) Player(id uuid.UUID) (*Player, bool) {
	p, ok := d.players[id]
	return p, ok
}

// Players returns the playing scenes in start order.
func (d *Director) Players() []*Player {
	r := make([]*Player, 0, len(d.order))
	for _, id := range d.order {
		r = append(r, d.players[id])
	}
	return r
}

func (d *Director) Len() int {
	return len(d.order)
}

// Stop removes a scene without further callbacks.
func (d *Director) Stop(id uuid.UUID) bool {
	if _, ok := d.players[id]; !ok {
		return false
	}
	delete(d.players, id)
	d.order = slices.DeleteFunc(d.order, func(o uuid.UUID) bool { return o == id })
	return true
}

// Frame advances the clock by a real time delta and every scene with it.
// Paused scenes hold their time. Finished scenes are removed and their ids
// returned.
func (d *Director) Frame(dt float64) []uuid.UUID {
	ft := float32(d.clock.Advance(dt))
	var done []uuid.UUID
	for _, id := range slices.Clone(d.order) {
		p, ok := d.players[id]
		if !ok {
			continue
		}
		s := p.scene
		d.configure(s)
		s.Think(s.Time() + ft)
		if s.SimulationFinished() {
			conlog.DPrintf("director: %s finished at %g\n", p.name, s.Time())
			d.Stop(id)
			done = append(done, id)
		}
	}
	return done
}

// SPDX-License-Identifier: GPL-2.0-or-later

// Package snd measures the play length of speak sounds.
package snd

import (
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2/wav"
	"github.com/pkg/errors"

	"gochoreo/conlog"
	"gochoreo/crc"
)

var ErrNotWave = errors.New("not a wave file")

type sound struct {
	name     string
	duration float32
	err      error
}

// Durations caches the length in seconds of wave files in a file system.
// Failed lookups are cached too. It is safe for concurrent use.
type Durations struct {
	fsys fs.FS
	root string

	mu    sync.Mutex
	cache map[string]*sound
}

// NewDurations reads sounds from fsys below root.
func NewDurations(fsys fs.FS, root string) *Durations {
	return &Durations{
		fsys:  fsys,
		root:  root,
		cache: make(map[string]*sound),
	}
}

func (d *Durations) path(name string) string {
	n := crc.NormalizeName(name)
	// a leading character marks playback options in sound names
	n = strings.TrimLeft(n, "*#@<>^)(}$!?")
	if d.root == "" {
		return n
	}
	return path.Join(d.root, n)
}

// Duration returns the length of the named sound.
func (d *Durations) Duration(name string) (float32, error) {
	p := d.path(name)
	d.mu.Lock()
	s, ok := d.cache[p]
	d.mu.Unlock()
	if ok {
		return s.duration, s.err
	}
	s = &sound{name: p}
	s.duration, s.err = load(d.fsys, p)
	if s.err != nil {
		conlog.DPrintf("snd: %v\n", s.err)
	}
	d.mu.Lock()
	d.cache[p] = s
	d.mu.Unlock()
	return s.duration, s.err
}

func (d *Durations) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cache)
}

// Forget drops the cached entry of name.
func (d *Durations) Forget(name string) {
	d.mu.Lock()
	delete(d.cache, d.path(name))
	d.mu.Unlock()
}

func load(fsys fs.FS, name string) (float32, error) {
	if path.Ext(name) != ".wav" {
		return 0, errors.Wrap(ErrNotWave, name)
	}
	f, err := fsys.Open(name)
	if err != nil {
		return 0, errors.Wrapf(err, "could not load %s", name)
	}
	defer f.Close()
	s, format, err := wav.Decode(f)
	if err != nil {
		return 0, errors.Wrapf(ErrNotWave, "%s: %v", name, err)
	}
	return float32(format.SampleRate.D(s.Len()).Seconds()), nil
}

// SPDX-License-Identifier: GPL-2.0-or-later

package pack

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"gochoreo/choreo"
)

const (
	greetScene = `actor "alyx"
{
  channel "audio"
  {
    event speak "hi"
    {
      time 0 1.25
      param "vo/hi.wav"
      cctype "cc_master"
      cctoken "hi"
    }
    event speak "bye"
    {
      time 2 2.5
      param "vo/bye.wav"
      cctype "cc_master"
      cctoken "bye"
    }
  }
}
`
	loopScene = `event loop "again"
{
  time 1 -1
  param "0"
  loopcount "-1"
}
actor "barney"
{
  channel "audio"
  {
    event speak "hi"
    {
      time 0 0.5
      param "vo/hi.wav"
    }
  }
}
`
)

func buildImage(t *testing.T, workers int) []byte {
	t.Helper()
	b := &Builder{Workers: workers}
	b.Add(`scenes\Greet.vcd`, []byte(greetScene))
	b.Add("scenes/loop.vcd", []byte(loopScene))
	data, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return data
}

func TestBuildAndLoad(t *testing.T) {
	im, err := FromBytes(buildImage(t, 0))
	if err != nil {
		t.Fatalf("FromBytes() error: %v", err)
	}
	if got := im.NumScenes(); got != 2 {
		t.Errorf("NumScenes() = %d, want 2", got)
	}
	if !im.Has("SCENES/greet.vcd") {
		t.Errorf("Has() is case sensitive")
	}

	s, err := im.LoadScene("scenes/greet.vcd", nil)
	if err != nil {
		t.Fatalf("LoadScene() error: %v", err)
	}
	if got := len(s.Events()); got != 2 {
		t.Errorf("%d events, want 2", got)
	}
	if e := s.FindEvent("hi"); e == nil || e.Param(0) != "vo/hi.wav" {
		t.Errorf("FindEvent(hi) = %v", e)
	}

	sum, err := im.Summary("scenes/greet.vcd")
	if err != nil {
		t.Fatalf("Summary() error: %v", err)
	}
	if sum.Msecs != 2500 {
		t.Errorf("Msecs = %d, want 2500", sum.Msecs)
	}
	var sounds []string
	for _, id := range sum.Sounds {
		str, ok := im.GetString(id)
		if !ok {
			t.Fatalf("GetString(%d) failed", id)
		}
		sounds = append(sounds, str)
	}
	if len(sounds) != 2 || sounds[0] != "vo/hi.wav" || sounds[1] != "vo/bye.wav" {
		t.Errorf("sounds = %q", sounds)
	}

	loop, err := im.Summary("scenes/loop.vcd")
	if err != nil {
		t.Fatalf("Summary() error: %v", err)
	}
	if loop.Msecs != 0 || len(loop.Sounds) != 1 || loop.Sounds[0] != sum.Sounds[0] {
		t.Errorf("loop summary = %+v, want 0 msecs and the shared hi.wav id", loop)
	}
}

func TestBuildDeterministic(t *testing.T) {
	a := buildImage(t, 1)
	b := buildImage(t, 8)
	if !bytes.Equal(a, b) {
		t.Errorf("images differ between worker counts")
	}
}

func TestBuildErrors(t *testing.T) {
	b := &Builder{}
	b.Add("a.vcd", []byte(greetScene))
	b.Add("A.VCD", []byte(loopScene))
	if _, err := b.Build(context.Background()); err == nil {
		t.Errorf("Build() with duplicate names succeeded")
	}

	b = &Builder{}
	b.Add("broken.vcd", []byte(`actor "x" {`))
	if _, err := b.Build(context.Background()); err == nil {
		t.Errorf("Build() of a broken scene succeeded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b = &Builder{}
	b.Add("a.vcd", []byte(greetScene))
	if _, err := b.Build(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() with canceled context = %v, want %v", err, context.Canceled)
	}
}

func TestImageErrors(t *testing.T) {
	data := buildImage(t, 0)
	im, err := FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes() error: %v", err)
	}
	if _, err := im.LoadScene("missing.vcd", nil); !errors.Is(err, ErrNoScene) {
		t.Errorf("LoadScene(missing) = %v, want %v", err, ErrNoScene)
	}
	if id := im.FindOrAddString("not in the table"); id != -1 {
		t.Errorf("FindOrAddString(new) = %d, want -1", id)
	}

	for _, tc := range []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrNotImage},
		{"magic", append([]byte("XXXX"), data[4:]...), ErrNotImage},
		{"version", append(append([]byte{}, data[:4]...), append([]byte{9, 0, 0, 0}, data[8:]...)...), ErrBadVersion},
		{"truncated", data[:len(data)-1], ErrCorrupt},
		{"header only", data[:headerSize], ErrCorrupt},
	} {
		if _, err := FromBytes(tc.data); !errors.Is(err, tc.want) {
			t.Errorf("%s: FromBytes() = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestOpenFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "scenes.image")
	if err := os.WriteFile(name, buildImage(t, 0), 0660); err != nil {
		t.Fatal(err)
	}
	im, err := Open(name)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer im.Close()
	if im.String() != name {
		t.Errorf("String() = %q, want %q", im.String(), name)
	}
	var rec calls
	s, err := im.LoadScene("scenes/loop.vcd", &rec)
	if err != nil {
		t.Fatalf("LoadScene() error: %v", err)
	}
	s.ResetSimulation(true, 0, -1)
	s.Think(0.25)
	if rec.starts != 1 {
		t.Errorf("%d starts after first frame, want 1", rec.starts)
	}
}

type calls struct {
	choreo.CallbackFuncs
	starts int
}

func (c *calls) StartEvent(float32, *choreo.Scene, *choreo.Event) {
	c.starts++
}

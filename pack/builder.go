// SPDX-License-Identifier: GPL-2.0-or-later

package pack

import (
	"context"
	"encoding/binary"
	"runtime"
	"sort"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"gochoreo/choreo"
	"gochoreo/crc"
	"gochoreo/stringpool"
	"gochoreo/vcd"
	"gochoreo/wire"
)

// Source is the text of one scene file.
type Source struct {
	Name string
	Text []byte
}

// Builder compiles scene sources into one image.
type Builder struct {
	// Workers bounds the number of scenes parsed at once. Zero means
	// GOMAXPROCS.
	Workers int
	sources []Source
}

func (b *Builder) Add(name string, text []byte) {
	b.sources = append(b.sources, Source{Name: name, Text: text})
}

func (b *Builder) Len() int {
	return len(b.sources)
}

type compiled struct {
	name  string
	crc   uint32
	data  []byte
	sum   Summary
	scene *choreo.Scene
}

// Build parses every source and returns the image bytes. Scene blobs and
// the shared string table are produced in name order, so the output does
// not depend on parse scheduling.
func (b *Builder) Build(ctx context.Context) ([]byte, error) {
	srcs := make([]Source, len(b.sources))
	copy(srcs, b.sources)
	sort.SliceStable(srcs, func(i, j int) bool {
		return crc.NormalizeName(srcs[i].Name) < crc.NormalizeName(srcs[j].Name)
	})
	if len(srcs) > maxScenes {
		return nil, errors.Errorf("%d scenes, max %d", len(srcs), maxScenes)
	}

	out := make([]compiled, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	w := b.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(w)
	for i := range srcs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := vcd.Parse(srcs[i].Name, srcs[i].Text, nil)
			if err != nil {
				return err
			}
			out[i] = compiled{name: srcs[i].Name, crc: crc.Name(srcs[i].Name), scene: s}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[uint32]string, len(out))
	pool := stringpool.New()
	for i := range out {
		c := &out[i]
		if prev, ok := seen[c.crc]; ok {
			return nil, errors.Errorf("scenes %q and %q share name crc %08x", prev, c.name, c.crc)
		}
		seen[c.crc] = c.name
		data, err := c.scene.SaveToBuffer(crc.Update(srcs[i].Text), pool)
		if err != nil {
			return nil, errors.Wrapf(err, "compiling %s", c.name)
		}
		c.data = data
		c.sum, err = summarize(c.scene, pool)
		if err != nil {
			return nil, errors.Wrapf(err, "compiling %s", c.name)
		}
	}
	return encodeImage(out, pool.Strings()), nil
}

func summarize(s *choreo.Scene, pool *stringpool.Pool) (Summary, error) {
	var sum Summary
	if stop, ok := s.FindStopTime(); ok {
		sum.Msecs = uint32(math32.Ceil(stop * 1000))
	}
	for _, wav := range s.SpeakSounds() {
		id := pool.FindOrAddString(wav)
		if id < 0 {
			return sum, choreo.ErrStringPool
		}
		sum.Sounds = append(sum.Sounds, id)
	}
	return sum, nil
}

// encodeImage lays out header, string offsets, strings, entries, summaries
// and finally the scene blobs.
func encodeImage(scenes []compiled, strs []string) []byte {
	m := wire.NewWriterOrder(binary.LittleEndian)
	m.Write([]byte(imageID))
	m.WriteInt32(ImageVersion)
	m.WriteInt32(int32(len(scenes)))
	m.WriteInt32(int32(len(strs)))
	entryAt := m.Len()
	m.WriteUint32(0)

	tableAt := m.Len()
	for range strs {
		m.WriteUint32(0)
	}
	for i, s := range strs {
		m.PutUint32At(tableAt+4*i, uint32(m.Len()))
		m.WriteString(s)
	}

	order := make([]int, len(scenes))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return scenes[order[i]].crc < scenes[order[j]].crc
	})

	m.PutUint32At(entryAt, uint32(m.Len()))
	entries := m.Len()
	for _, i := range order {
		m.WriteUint32(scenes[i].crc)
		m.WriteUint32(0)
		m.WriteUint32(uint32(len(scenes[i].data)))
		m.WriteUint32(0)
	}
	for k, i := range order {
		m.PutUint32At(entries+entrySize*k+12, uint32(m.Len()))
		sum := scenes[i].sum
		m.WriteUint32(sum.Msecs)
		m.WriteUint32(uint32(len(sum.Sounds)))
		for _, id := range sum.Sounds {
			m.WriteUint32(uint32(id))
		}
	}
	for k, i := range order {
		m.PutUint32At(entries+entrySize*k+4, uint32(m.Len()))
		m.Write(scenes[i].data)
	}
	return m.Bytes()
}

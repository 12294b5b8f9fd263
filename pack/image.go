// SPDX-License-Identifier: GPL-2.0-or-later

// Package pack reads and writes scene images: many compiled scenes sharing
// one string table, looked up by the CRC of their file name.
package pack

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"

	"gochoreo/choreo"
	"gochoreo/crc"
)

const (
	imageID      = "VSIF"
	ImageVersion = 2

	headerSize = 20
	entrySize  = 16
	maxScenes  = math.MaxInt32
)

var (
	ErrNotImage   = errors.New("not a scene image")
	ErrBadVersion = errors.New("unsupported scene image version")
	ErrCorrupt    = errors.New("corrupt scene image")
	ErrNoScene    = errors.New("scene not in image")
)

type header struct {
	ID          [4]byte
	Version     int32
	NumScenes   int32
	NumStrings  int32
	EntryOffset uint32
}

type entry struct {
	CRC           uint32
	DataOffset    uint32
	DataLength    uint32
	SummaryOffset uint32
}

// Summary is the precomputed playback information of one scene.
type Summary struct {
	// Msecs is the scene length rounded up, 0 for scenes that never stop.
	Msecs uint32
	// Sounds are string ids of the distinct speak sounds.
	Sounds []int16
}

// Image is an opened scene image. It serves as the string pool of the
// scenes it contains.
type Image struct {
	r       io.ReaderAt
	c       io.Closer
	name    string
	strings []string
	ids     map[string]int16
	entries []entry
}

// Open reads the scene image in the named file.
func Open(name string) (*Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	im, err := newImage(f, fi.Size(), name)
	if err != nil {
		f.Close()
		return nil, err
	}
	im.c = f
	return im, nil
}

// FromBytes reads a scene image held in memory.
func FromBytes(data []byte) (*Image, error) {
	return newImage(bytes.NewReader(data), int64(len(data)), "")
}

func (im *Image) String() string {
	return im.name
}

func (im *Image) Close() error {
	if im.c == nil {
		return nil
	}
	return im.c.Close()
}

func inside(off, n uint64, size int64) bool {
	return off+n <= uint64(size)
}

func newImage(r io.ReaderAt, size int64, name string) (*Image, error) {
	im := &Image{r: r, name: name}
	var h header
	if err := binary.Read(io.NewSectionReader(r, 0, size), binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrap(ErrNotImage, err.Error())
	}
	if string(h.ID[:]) != imageID {
		return nil, ErrNotImage
	}
	if h.Version != ImageVersion {
		return nil, errors.Wrapf(ErrBadVersion, "version %d", h.Version)
	}
	if h.NumScenes < 0 || h.NumStrings < 0 || h.NumStrings > math.MaxInt16+1 {
		return nil, errors.Wrap(ErrCorrupt, "bad counts")
	}
	if !inside(headerSize, 4*uint64(h.NumStrings), size) ||
		!inside(uint64(h.EntryOffset), entrySize*uint64(h.NumScenes), size) {
		return nil, errors.Wrap(ErrCorrupt, "tables out of range")
	}

	offsets := make([]uint32, h.NumStrings)
	if err := binary.Read(io.NewSectionReader(r, headerSize, 4*int64(h.NumStrings)), binary.LittleEndian, offsets); err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	im.strings = make([]string, len(offsets))
	im.ids = make(map[string]int16, len(offsets))
	for i, off := range offsets {
		s, err := readString(r, int64(off), size)
		if err != nil {
			return nil, err
		}
		im.strings[i] = s
		if _, ok := im.ids[s]; !ok {
			im.ids[s] = int16(i)
		}
	}

	im.entries = make([]entry, h.NumScenes)
	if err := binary.Read(io.NewSectionReader(r, int64(h.EntryOffset), entrySize*int64(h.NumScenes)), binary.LittleEndian, im.entries); err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	for i, e := range im.entries {
		if i > 0 && im.entries[i-1].CRC >= e.CRC {
			return nil, errors.Wrap(ErrCorrupt, "entries not sorted")
		}
		if !inside(uint64(e.DataOffset), uint64(e.DataLength), size) ||
			!inside(uint64(e.SummaryOffset), 8, size) {
			return nil, errors.Wrapf(ErrCorrupt, "entry %08x out of range", e.CRC)
		}
	}
	return im, nil
}

func readString(r io.ReaderAt, off, size int64) (string, error) {
	if off < headerSize || off >= size {
		return "", errors.Wrapf(ErrCorrupt, "string at %d", off)
	}
	var b bytes.Buffer
	var chunk [64]byte
	for off < size {
		n, err := r.ReadAt(chunk[:min(int64(len(chunk)), size-off)], off)
		if i := bytes.IndexByte(chunk[:n], 0); i >= 0 {
			b.Write(chunk[:i])
			return b.String(), nil
		}
		b.Write(chunk[:n])
		off += int64(n)
		if err != nil && err != io.EOF {
			return "", err
		}
	}
	return "", errors.Wrap(ErrCorrupt, "unterminated string")
}

func (im *Image) NumScenes() int {
	return len(im.entries)
}

func (im *Image) NumStrings() int {
	return len(im.strings)
}

// GetString returns the shared string with the given id.
func (im *Image) GetString(id int16) (string, bool) {
	if id < 0 || int(id) >= len(im.strings) {
		return "", false
	}
	return im.strings[id], true
}

// FindOrAddString finds s in the shared table. The table of an image is
// fixed, so strings it lacks yield -1.
func (im *Image) FindOrAddString(s string) int16 {
	if id, ok := im.ids[s]; ok {
		return id
	}
	return -1
}

func (im *Image) find(name string) (entry, bool) {
	c := crc.Name(name)
	i := sort.Search(len(im.entries), func(i int) bool {
		return im.entries[i].CRC >= c
	})
	if i < len(im.entries) && im.entries[i].CRC == c {
		return im.entries[i], true
	}
	return entry{}, false
}

// Has reports whether the image contains the named scene.
func (im *Image) Has(name string) bool {
	_, ok := im.find(name)
	return ok
}

// SceneData returns the compiled scene blob of the named scene.
func (im *Image) SceneData(name string) ([]byte, error) {
	e, ok := im.find(name)
	if !ok {
		return nil, errors.Wrap(ErrNoScene, name)
	}
	data := make([]byte, e.DataLength)
	if _, err := im.r.ReadAt(data, int64(e.DataOffset)); err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}
	return data, nil
}

// Summary returns the summary of the named scene.
func (im *Image) Summary(name string) (Summary, error) {
	e, ok := im.find(name)
	if !ok {
		return Summary{}, errors.Wrap(ErrNoScene, name)
	}
	var head [2]uint32
	sr := io.NewSectionReader(im.r, int64(e.SummaryOffset), math.MaxInt32)
	if err := binary.Read(sr, binary.LittleEndian, head[:]); err != nil {
		return Summary{}, errors.Wrap(ErrCorrupt, err.Error())
	}
	if head[1] > math.MaxInt16+1 {
		return Summary{}, errors.Wrapf(ErrCorrupt, "summary of %s", name)
	}
	ids := make([]uint32, head[1])
	if err := binary.Read(sr, binary.LittleEndian, ids); err != nil {
		return Summary{}, errors.Wrap(ErrCorrupt, err.Error())
	}
	sum := Summary{Msecs: head[0], Sounds: make([]int16, len(ids))}
	for i, id := range ids {
		if int(id) >= len(im.strings) {
			return Summary{}, errors.Wrapf(ErrCorrupt, "summary of %s", name)
		}
		sum.Sounds[i] = int16(id)
	}
	return sum, nil
}

// LoadScene restores the named scene with the image as its string pool.
func (im *Image) LoadScene(name string, cb choreo.EventCallback) (*choreo.Scene, error) {
	data, err := im.SceneData(name)
	if err != nil {
		return nil, err
	}
	s, err := choreo.RestoreFromBuffer(data, im, cb)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", name)
	}
	s.SetFilename(name)
	return s, nil
}

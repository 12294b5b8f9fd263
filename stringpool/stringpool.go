// SPDX-License-Identifier: GPL-2.0-or-later

// Package stringpool stores the strings shared by compiled scenes.
package stringpool

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// entriesField is the field number of the repeated string in the encoded
// pool, see stringpool.proto.
const entriesField protowire.Number = 1

const maxStrings = math.MaxInt16 + 1

// Pool assigns stable int16 ids to strings in insertion order.
type Pool struct {
	strs []string
	ids  map[string]int16
}

func New() *Pool {
	return &Pool{ids: make(map[string]int16)}
}

// FindOrAddString returns the id of s, adding it if it is new. It returns
// -1 once the pool holds math.MaxInt16+1 strings.
func (p *Pool) FindOrAddString(s string) int16 {
	if id, ok := p.ids[s]; ok {
		return id
	}
	if len(p.strs) >= maxStrings {
		return -1
	}
	id := int16(len(p.strs))
	p.strs = append(p.strs, s)
	p.ids[s] = id
	return id
}

func (p *Pool) Find(s string) (int16, bool) {
	id, ok := p.ids[s]
	return id, ok
}

func (p *Pool) GetString(id int16) (string, bool) {
	if id < 0 || int(id) >= len(p.strs) {
		return "", false
	}
	return p.strs[id], true
}

func (p *Pool) Len() int {
	return len(p.strs)
}

// Strings returns all strings ordered by id.
func (p *Pool) Strings() []string {
	return append([]string(nil), p.strs...)
}

// Marshal encodes the pool as a protobuf message with one repeated string.
func (p *Pool) Marshal() []byte {
	var b []byte
	for _, s := range p.strs {
		b = protowire.AppendTag(b, entriesField, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	return b
}

// Unmarshal decodes a pool written by Marshal. Unknown fields are skipped.
func Unmarshal(b []byte) (*Pool, error) {
	p := New()
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errors.Wrap(protowire.ParseError(n), "decoding string pool")
		}
		b = b[n:]
		if num != entriesField || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errors.Wrap(protowire.ParseError(n), "decoding string pool")
			}
			b = b[n:]
			continue
		}
		s, n := protowire.ConsumeString(b)
		if n < 0 {
			return nil, errors.Wrap(protowire.ParseError(n), "decoding string pool")
		}
		b = b[n:]
		if _, dup := p.ids[s]; dup {
			return nil, errors.Errorf("duplicate string pool entry %q", s)
		}
		if p.FindOrAddString(s) < 0 {
			return nil, errors.New("string pool overflow")
		}
	}
	return p, nil
}

// Load reads a pool file. A missing file yields an empty pool.
func Load(name string) (*Pool, error) {
	in, err := os.ReadFile(name)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading string pool")
	}
	return Unmarshal(in)
}

func (p *Pool) Save(name string) error {
	if err := os.WriteFile(name, p.Marshal(), 0660); err != nil {
		return errors.Wrap(err, "writing string pool")
	}
	return nil
}

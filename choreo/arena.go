// SPDX-License-Identifier: GPL-2.0-or-later

package choreo

// Handle references an actor, channel or event owned by a Scene. The zero
// Handle is invalid. A handle goes stale when its target is removed; stale
// handles resolve to nil.
type Handle[T any] struct {
	index int32
	gen   uint32
}

type (
	ActorID   = Handle[Actor]
	ChannelID = Handle[Channel]
	EventID   = Handle[Event]
)

// Valid reports whether h was ever assigned. It does not check staleness.
func (h Handle[T]) Valid() bool {
	return h.gen != 0
}

type slot[T any] struct {
	gen  uint32
	item *T
}

// arena owns items addressed by generation checked handles.
type arena[T any] struct {
	slots []slot[T]
	free  []int32
}

func (a *arena[T]) add(item *T) Handle[T] {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.gen++
		s.item = item
		return Handle[T]{idx, s.gen}
	}
	a.slots = append(a.slots, slot[T]{gen: 1, item: item})
	return Handle[T]{int32(len(a.slots) - 1), 1}
}

func (a *arena[T]) get(h Handle[T]) *T {
	if h.gen == 0 || h.index < 0 || int(h.index) >= len(a.slots) {
		return nil
	}
	s := &a.slots[h.index]
	if s.gen != h.gen {
		return nil
	}
	return s.item
}

func (a *arena[T]) remove(h Handle[T]) bool {
	if a.get(h) == nil {
		return false
	}
	s := &a.slots[h.index]
	s.item = nil
	// bump on free so outstanding handles go stale right away
	s.gen++
	a.free = append(a.free, h.index)
	return true
}

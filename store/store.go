// Package store keeps atoms ordered by identifier between two permanent
// sentinels and remembers removed identifiers.
package store

import (
	"iter"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/tidwall/btree"

	"github.com/kevinxiao27/lseq/ident"
)

// Atom is one slot of the sequence. Sentinel atoms carry the zero value.
type Atom[T any] struct {
	ID    ident.ID
	Value T
}

func (a Atom[T]) Sentinel() bool {
	return a.ID.IsSentinel()
}

// Store is an ordered set of atoms keyed by identifier. It is not safe for
// concurrent use.
type Store[T any] struct {
	items      *btree.BTreeG[Atom[T]]
	hint       btree.PathHint
	max        ident.ID
	tombstones mapset.Set[string]
}

// New creates a store holding the sentinels of a space whose first level has
// 2^base slots.
func New[T any](base uint) *Store[T] {
	s := &Store[T]{
		items: btree.NewBTreeGOptions(
			func(a, b Atom[T]) bool {
				return a.ID.Less(b.ID)
			},
			btree.Options{
				NoLocks: true,
				Degree:  16,
			},
		),
		max:        ident.Max(base),
		tombstones: mapset.NewThreadUnsafeSet[string](),
	}
	s.items.Set(Atom[T]{ID: ident.Min()})
	s.items.Set(Atom[T]{ID: s.max})
	return s
}

// InRange reports whether id can hold a value: strictly between the
// sentinels and not sentinel-shaped.
func (s *Store[T]) InRange(id ident.ID) bool {
	return !id.IsSentinel() && ident.Min().Less(id) && id.Less(s.max)
}

// Add inserts an atom. It is a no-op, returning false, if id is already
// present, was removed before, or is not InRange.
func (s *Store[T]) Add(id ident.ID, v T) bool {
	if !s.InRange(id) {
		return false
	}
	if s.tombstones.Contains(id.String()) {
		return false
	}
	atom := Atom[T]{ID: id, Value: v}
	if _, ok := s.items.GetHint(atom, &s.hint); ok {
		return false
	}
	s.items.SetHint(atom, &s.hint)
	return true
}

// Remove deletes the atom with id and tombstones id, so that an insert for
// it delivered later is ignored. It returns whether an atom was deleted.
func (s *Store[T]) Remove(id ident.ID) bool {
	if !s.InRange(id) {
		return false
	}
	s.tombstones.Add(id.String())
	_, ok := s.items.DeleteHint(Atom[T]{ID: id}, &s.hint)
	return ok
}

func (s *Store[T]) Has(id ident.ID) bool {
	_, ok := s.items.Get(Atom[T]{ID: id})
	return ok
}

// Removed reports whether id has been tombstoned.
func (s *Store[T]) Removed(id ident.ID) bool {
	return s.tombstones.Contains(id.String())
}

// Get returns the atom at pos, counting the low sentinel as position 0.
func (s *Store[T]) Get(pos int) (Atom[T], bool) {
	if pos < 0 || pos >= s.items.Len() {
		return Atom[T]{}, false
	}
	return s.items.GetAt(pos)
}

// IndexOf returns the position of id, or -1. It walks the tree.
func (s *Store[T]) IndexOf(id ident.ID) int {
	idx, found := 0, -1
	s.items.Scan(func(a Atom[T]) bool {
		if a.ID.Equal(id) {
			found = idx
			return false
		}
		idx++
		return true
	})
	return found
}

// Len counts atoms including both sentinels.
func (s *Store[T]) Len() int {
	return s.items.Len()
}

func (s *Store[T]) Tombstones() int {
	return s.tombstones.Cardinality()
}

// Ascend calls fn for every atom, sentinels included, in identifier order
// until fn returns false.
func (s *Store[T]) Ascend(fn func(Atom[T]) bool) {
	s.items.Scan(fn)
}

// Atoms yields the non-sentinel atoms in order.
func (s *Store[T]) Atoms() iter.Seq[Atom[T]] {
	return func(yield func(Atom[T]) bool) {
		s.items.Scan(func(a Atom[T]) bool {
			if a.Sentinel() {
				return true
			}
			return yield(a)
		})
	}
}

// Package sequence is a replicated ordered list. Local edits are turned into
// identifier based ops that every replica applies in any order.
package sequence

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/kevinxiao27/lseq/ident"
	"github.com/kevinxiao27/lseq/lseq"
	"github.com/kevinxiao27/lseq/ol"
	"github.com/kevinxiao27/lseq/store"
	"github.com/kevinxiao27/lseq/util"
)

var ErrRange = errors.New("sequence: position out of range")

// Sequence is one replica of a list. It is not safe for concurrent use.
type Sequence[T any] struct {
	replica  string
	codec    ol.Codec[T]
	gen      *lseq.Generator
	store    *store.Store[T]
	version  ol.Version
	maxDepth int
	log      *slog.Logger
}

func New[T any](replica string, codec ol.Codec[T], opts ...Option) (*Sequence[T], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	gen, err := lseq.NewGenerator(replica, o.cfg)
	if err != nil {
		return nil, fmt.Errorf("sequence: %w", err)
	}
	return &Sequence[T]{
		replica:  replica,
		codec:    codec,
		gen:      gen,
		store:    store.New[T](o.cfg.Base),
		version:  ol.Version{},
		maxDepth: 1,
		log:      o.logger.With("replica", replica),
	}, nil
}

func (s *Sequence[T]) Replica() string {
	return s.replica
}

// Size is the number of values, sentinels excluded.
func (s *Sequence[T]) Size() int {
	return s.store.Len() - 2
}

// Depth is the deepest identifier this replica has stored.
func (s *Sequence[T]) Depth() int {
	return s.maxDepth
}

// Version reports the latest op time applied from each replica.
func (s *Sequence[T]) Version() ol.Version {
	return s.version.Clone()
}

// Tombstones counts identifiers removed so far.
func (s *Sequence[T]) Tombstones() int {
	return s.store.Tombstones()
}

// Insert places v at pos, applies the op locally and returns it for
// transmission.
func (s *Sequence[T]) Insert(v T, pos int) (ol.Insert[T], error) {
	if pos < 0 || pos > s.Size() {
		return ol.Insert[T]{}, fmt.Errorf("%w: insert at %d, size %d", ErrRange, pos, s.Size())
	}

	// store positions are shifted by the low sentinel
	low, _ := s.store.Get(pos)
	high, _ := s.store.Get(pos + 1)
	id, err := s.gen.Allocate(low.ID, high.ID)
	if err != nil {
		return ol.Insert[T]{}, fmt.Errorf("sequence: insert at %d: %w", pos, err)
	}

	op := ol.Insert[T]{Replica: s.replica, Time: id.Last().Clock, ID: id, Value: v}
	s.Apply(op)
	return op, nil
}

func (s *Sequence[T]) Append(v T) (ol.Insert[T], error) {
	return s.Insert(v, s.Size())
}

// Remove deletes the value at pos. It returns false, and no op, when pos
// holds no value.
func (s *Sequence[T]) Remove(pos int) (ol.Remove, bool) {
	atom, ok := s.atom(pos)
	if !ok {
		return ol.Remove{}, false
	}
	op := ol.Remove{Replica: s.replica, Time: s.gen.Tick(), ID: atom.ID}
	s.Apply(op)
	return op, true
}

func (s *Sequence[T]) Get(pos int) (T, bool) {
	atom, ok := s.atom(pos)
	return atom.Value, ok
}

// IDAt returns the identifier of the value at pos.
func (s *Sequence[T]) IDAt(pos int) (ident.ID, bool) {
	atom, ok := s.atom(pos)
	return atom.ID, ok
}

func (s *Sequence[T]) atom(pos int) (store.Atom[T], bool) {
	if pos < 0 || pos >= s.Size() {
		return store.Atom[T]{}, false
	}
	return s.store.Get(pos + 1)
}

// Apply applies a local or remote op and reports whether it changed the
// content. Duplicate inserts, inserts of removed identifiers and removes of
// absent identifiers change nothing.
//
// Apply panics if op is an insert of a different value type.
func (s *Sequence[T]) Apply(op ol.Op) bool {
	var changed bool
	switch o := op.(type) {
	case ol.Insert[T]:
		changed = s.store.Add(o.ID, o.Value)
		if changed {
			s.maxDepth = max(s.maxDepth, o.ID.Depth())
		}
	case ol.Remove:
		changed = s.store.Remove(o.ID)
	default:
		panic(fmt.Errorf("%w: %T applied to sequence of %T", ol.ErrUnknownOpKind, op, *new(T)))
	}

	replica, time := op.Origin()
	s.version.Observe(op)
	s.gen.Witness(time)

	s.log.Debug("apply op",
		"kind", op.Kind(),
		"origin", replica,
		"time", time,
		"id", op.Target(),
		"changed", changed)
	return changed
}

// ApplyString decodes an encoded op and applies it.
func (s *Sequence[T]) ApplyString(text string) (bool, error) {
	op, err := ol.Decode(text, s.codec)
	if err != nil {
		return false, err
	}
	return s.Apply(op), nil
}

func (s *Sequence[T]) Encode(op ol.Op) (string, error) {
	return ol.Encode(op, s.codec)
}

// All yields positions and values in order.
func (s *Sequence[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		i := 0
		for a := range s.store.Atoms() {
			if !yield(i, a.Value) {
				return
			}
			i++
		}
	}
}

func (s *Sequence[T]) ForEach(fn func(i int, v T)) {
	for i, v := range s.All() {
		fn(i, v)
	}
}

func (s *Sequence[T]) ToArray() []T {
	out := make([]T, 0, s.Size())
	for _, v := range s.All() {
		out = append(out, v)
	}
	return out
}

// Map projects the values of s through fn.
func Map[T, V any](s *Sequence[T], fn func(T) V) []V {
	return util.Map(s.ToArray(), fn)
}

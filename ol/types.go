// Package ol defines the operations replicas exchange and their text form.
package ol

import (
	"fmt"

	"github.com/kevinxiao27/lseq/ident"
)

// Kind is the leading sigil of an encoded op.
type Kind byte

const (
	InsertKind Kind = '+'
	RemoveKind Kind = '-'
)

func (k Kind) String() string {
	switch k {
	case InsertKind:
		return "insert"
	case RemoveKind:
		return "remove"
	default:
		return fmt.Sprintf("kind(%q)", byte(k))
	}
}

// Op is either an Insert[T] or a Remove. The set is closed: only this
// package can add variants.
type Op interface {
	Kind() Kind
	// Origin is the replica that produced the op and its logical time.
	Origin() (string, uint64)
	Target() ident.ID
	sealed()
}

type Insert[T any] struct {
	Replica string
	Time    uint64
	ID      ident.ID
	Value   T
}

func (Insert[T]) Kind() Kind                 { return InsertKind }
func (op Insert[T]) Origin() (string, uint64) { return op.Replica, op.Time }
func (op Insert[T]) Target() ident.ID         { return op.ID }
func (Insert[T]) sealed()                     {}

type Remove struct {
	Replica string
	Time    uint64
	ID      ident.ID
}

func (Remove) Kind() Kind                 { return RemoveKind }
func (op Remove) Origin() (string, uint64) { return op.Replica, op.Time }
func (op Remove) Target() ident.ID         { return op.ID }
func (Remove) sealed()                     {}

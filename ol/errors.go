package ol

import (
	"errors"
	"fmt"
)

var (
	ErrDecode = errors.New("ol: malformed op")

	// ErrUnknownOpKind marks an op variant the receiver cannot handle, such
	// as an insert carrying a different value type.
	ErrUnknownOpKind = errors.New("ol: unknown op kind")
)

// DecodeError describes why op text was rejected.
type DecodeError struct {
	Input string
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("ol: decode %q: %s: %v", e.Input, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func newDecodeError(input, field string, err error) error {
	return &DecodeError{Input: input, Field: field, Err: err}
}

package ol

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Codec turns values into the text carried by insert ops and back.
type Codec[T any] interface {
	Encode(T) (string, error)
	Decode(string) (T, error)
}

// StringCodec carries strings verbatim.
type StringCodec struct{}

func (StringCodec) Encode(v string) (string, error) { return v, nil }
func (StringCodec) Decode(s string) (string, error) { return s, nil }

// RuneCodec carries exactly one character, for text documents.
type RuneCodec struct{}

func (RuneCodec) Encode(r rune) (string, error) {
	if !utf8.ValidRune(r) {
		return "", fmt.Errorf("invalid rune %U", r)
	}
	return string(r), nil
}

func (RuneCodec) Decode(s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if (r == utf8.RuneError && size <= 1) || size != len(s) {
		return 0, fmt.Errorf("want a single rune, got %q", s)
	}
	return r, nil
}

// JSONCodec carries any JSON-marshalable value.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Encode(v T) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (JSONCodec[T]) Decode(s string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}

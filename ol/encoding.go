package ol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kevinxiao27/lseq/ident"
	"github.com/kevinxiao27/lseq/util"
)

const fieldSep = ":"

// Encode renders op as "+<replica>:<time>:<id>:<value>" or
// "-<replica>:<time>:<id>".
func Encode[T any](op Op, codec Codec[T]) (string, error) {
	switch o := op.(type) {
	case Insert[T]:
		v, err := codec.Encode(o.Value)
		if err != nil {
			return "", fmt.Errorf("ol: encode value: %w", err)
		}
		return string(rune(InsertKind)) + join(o.Replica, o.Time, o.ID) + fieldSep + v, nil
	case Remove:
		return string(rune(RemoveKind)) + join(o.Replica, o.Time, o.ID), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownOpKind, op)
	}
}

func join(replica string, time uint64, id ident.ID) string {
	return replica + fieldSep + strconv.FormatUint(time, 10) + fieldSep + id.String()
}

// Decode parses text produced by Encode. The value is the remainder after
// the third separator, so it may itself contain separators.
func Decode[T any](s string, codec Codec[T]) (Op, error) {
	if s == "" {
		return nil, newDecodeError(s, "kind", errors.New("empty op"))
	}

	body := s[1:]
	switch Kind(s[0]) {
	case InsertKind:
		parts := strings.SplitN(body, fieldSep, 4)
		if len(parts) != 4 {
			return nil, newDecodeError(s, "fields", fmt.Errorf("want 4 fields, got %d", len(parts)))
		}
		replica, time, id, err := header(s, parts)
		if err != nil {
			return nil, err
		}
		v, err := codec.Decode(parts[3])
		if err != nil {
			return nil, newDecodeError(s, "value", err)
		}
		return Insert[T]{Replica: replica, Time: time, ID: id, Value: v}, nil

	case RemoveKind:
		parts := strings.Split(body, fieldSep)
		if len(parts) != 3 {
			return nil, newDecodeError(s, "fields", fmt.Errorf("want 3 fields, got %d", len(parts)))
		}
		replica, time, id, err := header(s, parts)
		if err != nil {
			return nil, err
		}
		return Remove{Replica: replica, Time: time, ID: id}, nil

	default:
		return nil, newDecodeError(s, "kind", fmt.Errorf("%w %q", ErrUnknownOpKind, s[0]))
	}
}

func header(s string, parts []string) (string, uint64, ident.ID, error) {
	replica := parts[0]
	if !ident.ValidSite(replica) {
		return "", 0, ident.ID{}, newDecodeError(s, "replica", fmt.Errorf("invalid replica %q", replica))
	}
	time, err := ident.ParseClock(parts[1])
	if err != nil {
		return "", 0, ident.ID{}, newDecodeError(s, "time", err)
	}
	id, err := ident.Parse(parts[2])
	if err != nil {
		return "", 0, ident.ID{}, newDecodeError(s, "id", err)
	}
	return replica, time, id, nil
}

func EncodeOps[T any](ops []Op, codec Codec[T]) ([]string, error) {
	return util.MapN(ops, func(op Op) (string, error) {
		return Encode(op, codec)
	})
}

func DecodeOps[T any](strs []string, codec Codec[T]) ([]Op, error) {
	return util.MapN(strs, func(s string) (Op, error) {
		return Decode(s, codec)
	})
}

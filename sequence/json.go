package sequence

import (
	"encoding/json"
	"fmt"

	"github.com/kevinxiao27/lseq/ident"
	"github.com/kevinxiao27/lseq/ol"
	"github.com/kevinxiao27/lseq/store"
	"github.com/kevinxiao27/lseq/util"
)

// snapshot is the JSON projection: the replica, its logical clock and
// [id, value] pairs in order, sentinels omitted. The clock covers removes
// and removed inserts, whose times no surviving id records.
type snapshot struct {
	Replica string              `json:"r"`
	Clock   uint64              `json:"c"`
	Data    [][]json.RawMessage `json:"d"`
}

func (s *Sequence[T]) MarshalJSON() ([]byte, error) {
	snap := snapshot{
		Replica: s.replica,
		Clock:   s.gen.Clock(),
		Data:    make([][]json.RawMessage, 0, s.Size()),
	}
	for a := range s.store.Atoms() {
		id, err := json.Marshal(a.ID.String())
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(a.Value)
		if err != nil {
			return nil, fmt.Errorf("sequence: marshal value at %s: %w", a.ID, err)
		}
		snap.Data = append(snap.Data, []json.RawMessage{id, v})
	}
	return json.Marshal(snap)
}

// UnmarshalJSON replaces the content of s with a snapshot. The replica of s
// is kept; its clock is raised to the snapshot's clock and past every clock
// in the restored ids, so new identifiers cannot reuse one handed out before
// the snapshot was taken. Tombstones are not part of the snapshot and start
// empty.
func (s *Sequence[T]) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("sequence: decode snapshot: %w", err)
	}

	restored := store.New[T](s.gen.Config().Base)
	ids := make([]ident.ID, 0, len(snap.Data))
	for i, pair := range snap.Data {
		if len(pair) != 2 {
			return fmt.Errorf("sequence: snapshot entry %d: want [id, value], got %d elements", i, len(pair))
		}
		var text string
		if err := json.Unmarshal(pair[0], &text); err != nil {
			return fmt.Errorf("sequence: snapshot entry %d id: %w", i, err)
		}
		id, err := ident.Parse(text)
		if err != nil {
			return fmt.Errorf("sequence: snapshot entry %d: %w", i, err)
		}
		var v T
		if err := json.Unmarshal(pair[1], &v); err != nil {
			return fmt.Errorf("sequence: snapshot entry %d value: %w", i, err)
		}
		if !restored.Add(id, v) {
			return fmt.Errorf("sequence: snapshot entry %d: duplicate or out of range id %s", i, id)
		}
		ids = append(ids, id)
	}

	s.gen.Witness(snap.Clock)
	for _, id := range ids {
		s.gen.Witness(id.Last().Clock)
	}
	s.store = restored
	s.maxDepth = util.Reduce(ids, func(id ident.ID, depth int) int {
		return max(depth, id.Depth())
	}, 1)
	return nil
}

// Load builds a replica from a snapshot, adopting the snapshot's replica id.
func Load[T any](data []byte, codec ol.Codec[T], opts ...Option) (*Sequence[T], error) {
	var head struct {
		Replica string `json:"r"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("sequence: decode snapshot: %w", err)
	}
	s, err := New[T](head.Replica, codec, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return s, nil
}

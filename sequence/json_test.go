package sequence

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinxiao27/lseq/lseq"
	"github.com/kevinxiao27/lseq/ol"
)

func TestMarshalJSON(t *testing.T) {
	s := newSeq(t, "a", 1)
	b, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"r":"a","c":0,"d":[]}`, string(b))

	x, err := s.Append("x")
	require.NoError(t, err)
	y, err := s.Append("y")
	require.NoError(t, err)

	b, err = s.MarshalJSON()
	require.NoError(t, err)
	want := fmt.Sprintf(`{"r":"a","c":2,"d":[[%q,"x"],[%q,"y"]]}`, x.ID, y.ID)
	assert.JSONEq(t, want, string(b))
}

func TestUnmarshalJSONRestores(t *testing.T) {
	a := newSeq(t, "a", 1)
	for _, v := range []string{"one", "two", "three"} {
		_, err := a.Append(v)
		require.NoError(t, err)
	}
	data, err := a.MarshalJSON()
	require.NoError(t, err)

	restored := newSeq(t, "a", 1)
	require.NoError(t, restored.UnmarshalJSON(data))
	assert.Equal(t, a.ToArray(), restored.ToArray())
	assert.Equal(t, a.Depth(), restored.Depth())

	// fresh identifiers do not collide with restored ones even though the
	// replica and seed are the same
	op, err := restored.Append("four")
	require.NoError(t, err)
	assert.Greater(t, op.Time, uint64(3))
	assert.Equal(t, []string{"one", "two", "three", "four"}, restored.ToArray())
}

func TestRestoreKeepsClockOfRemovedIDs(t *testing.T) {
	cfg := lseq.DefaultConfig()
	cfg.Seed = 7
	a, err := New[string]("a", ol.StringCodec{}, WithConfig(cfg))
	require.NoError(t, err)

	ins, err := a.Append("x")
	require.NoError(t, err)
	rm, ok := a.Remove(0)
	require.True(t, ok)
	data, err := a.MarshalJSON()
	require.NoError(t, err)

	restored, err := Load[string](data, ol.StringCodec{}, WithConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, a.gen.Clock(), restored.gen.Clock())

	next, err := restored.Append("y")
	require.NoError(t, err)
	assert.False(t, next.ID.Equal(ins.ID), "removed id %s reissued", ins.ID)
	assert.Greater(t, next.Time, rm.Time)

	b := newSeq(t, "b", 2)
	b.Apply(ins)
	b.Apply(rm)
	assert.True(t, b.Apply(next))
	assert.Equal(t, []string{"y"}, b.ToArray())
	assert.Equal(t, restored.ToArray(), b.ToArray())
}

func TestUnmarshalJSONWitnessesSnapshotClock(t *testing.T) {
	s := newSeq(t, "a", 1)
	require.NoError(t, s.UnmarshalJSON([]byte(`{"r":"a","c":40,"d":[["3,a/2","x"],["9.4,b/12","y"]]}`)))
	assert.Equal(t, uint64(40), s.gen.Clock())
	assert.Equal(t, 2, s.Depth())

	op, err := s.Append("z")
	require.NoError(t, err)
	assert.Equal(t, uint64(41), op.Time)
}

func TestLoad(t *testing.T) {
	a, err := New[int]("a", ol.JSONCodec[int]{})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := a.Insert(i, i/2)
		require.NoError(t, err)
	}
	data, err := a.MarshalJSON()
	require.NoError(t, err)

	b, err := Load[int](data, ol.JSONCodec[int]{})
	require.NoError(t, err)
	assert.Equal(t, "a", b.Replica())
	assert.Equal(t, a.ToArray(), b.ToArray())
}

func TestUnmarshalJSONErrors(t *testing.T) {
	for _, data := range []string{
		`nope`,
		`{"r":"a","d":[["3,a/1"]]}`,
		`{"r":"a","d":[[3,"x"]]}`,
		`{"r":"a","d":[["bad","x"]]}`,
		`{"r":"a","d":[["3,a/1",5]]}`,
		`{"r":"a","d":[["3,a/1","x"],["3,a/1","y"]]}`,
		`{"r":"a","d":[["0","x"]]}`,
		`{"r":"a","d":[["31","x"]]}`,
		`{"r":"a","d":[["40,b/1","x"]]}`,
	} {
		s := newSeq(t, "a", 1)
		assert.Error(t, s.UnmarshalJSON([]byte(data)), data)
		assert.Equal(t, 0, s.Size(), data)
	}

	_, err := Load[string]([]byte(`{"r":"bad:replica","d":[]}`), ol.StringCodec{})
	assert.Error(t, err)
}

package sequence

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinxiao27/lseq/ident"
	"github.com/kevinxiao27/lseq/lseq"
	"github.com/kevinxiao27/lseq/ol"
)

// network delivers every encoded op to every replica at least once, in
// random order and with duplicates.
type network struct {
	rng *rand.Rand
	log []string
}

func (n *network) broadcast(t *testing.T, s *Sequence[int], op ol.Op) {
	t.Helper()
	text, err := s.Encode(op)
	require.NoError(t, err)
	n.log = append(n.log, text)
}

func (n *network) deliver(t *testing.T, s *Sequence[int], fraction float64) {
	t.Helper()
	order := n.rng.Perm(len(n.log))
	for _, j := range order {
		if n.rng.Float64() > fraction {
			continue
		}
		_, err := s.ApplyString(n.log[j])
		require.NoError(t, err)
		// duplicate delivery
		if n.rng.IntN(10) == 0 {
			_, err := s.ApplyString(n.log[j])
			require.NoError(t, err)
		}
	}
}

func ids(s *Sequence[int]) []string {
	out := make([]string, 0, s.Size())
	for i := 0; i < s.Size(); i++ {
		id, _ := s.IDAt(i)
		out = append(out, id.String())
	}
	return out
}

func TestConvergence(t *testing.T) {
	const (
		replicas = 4
		rounds   = 30
		perRound = 8
	)

	rng := rand.New(rand.NewPCG(5, 6))
	net := &network{rng: rng}
	seqs := make([]*Sequence[int], replicas)
	for i := range seqs {
		cfg := lseq.DefaultConfig()
		cfg.Seed = uint64(100 + i)
		s, err := New[int](fmt.Sprintf("r%d", i), ol.JSONCodec[int]{}, WithConfig(cfg))
		require.NoError(t, err)
		seqs[i] = s
	}

	inserted := map[string]struct{}{}
	value := 0
	for round := 0; round < rounds; round++ {
		for i, s := range seqs {
			for k := 0; k < perRound; k++ {
				if s.Size() > 0 && rng.IntN(4) == 0 {
					op, ok := s.Remove(rng.IntN(s.Size()))
					require.True(t, ok)
					net.broadcast(t, s, op)
					continue
				}
				value++
				op, err := s.Insert(value, rng.IntN(s.Size()+1))
				require.NoError(t, err)

				key := op.ID.String()
				_, dup := inserted[key]
				require.False(t, dup, "replica %d produced duplicate id %s", i, key)
				inserted[key] = struct{}{}
				net.broadcast(t, s, op)
			}
		}
		for _, s := range seqs {
			net.deliver(t, s, 0.5)
		}
	}

	for _, s := range seqs {
		net.deliver(t, s, 1)
	}

	want := seqs[0].ToArray()
	wantIDs := ids(seqs[0])
	assert.NotEmpty(t, want)
	assert.True(t, slices.IsSortedFunc(wantIDs, func(a, b string) int {
		x, _ := ident.Parse(a)
		y, _ := ident.Parse(b)
		return ident.Compare(x, y)
	}))
	for _, s := range seqs[1:] {
		assert.Equal(t, want, s.ToArray(), "replica %s diverged", s.Replica())
		assert.Equal(t, wantIDs, ids(s))
	}
}

// Removes may reach a replica before the insert they target.
func TestConvergenceWithoutCausalDelivery(t *testing.T) {
	a := newSeq(t, "a", 1)
	var ops []ol.Op
	for i := 0; i < 50; i++ {
		op, err := a.Insert(fmt.Sprint(i), a.Size()/2)
		require.NoError(t, err)
		ops = append(ops, op)
	}
	for i := 0; i < 20; i++ {
		op, ok := a.Remove(i)
		require.True(t, ok)
		ops = append(ops, op)
	}

	rng := rand.New(rand.NewPCG(3, 4))
	for trial := 0; trial < 10; trial++ {
		b := newSeq(t, "b", uint64(trial+10))
		for _, j := range rng.Perm(len(ops)) {
			b.Apply(ops[j])
		}
		assert.Equal(t, a.ToArray(), b.ToArray())
	}
}

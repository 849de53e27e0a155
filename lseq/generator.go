// Package lseq allocates identifiers between two neighbours using the LSEQ
// boundary strategy with per-depth allocation direction.
package lseq

import (
	"fmt"
	"math/rand/v2"

	"github.com/kevinxiao27/lseq/ident"
	"github.com/kevinxiao27/lseq/util"
)

// Generator allocates identifiers for a single replica. It is not safe for
// concurrent use.
type Generator struct {
	site       string
	cfg        Config
	clock      uint64
	rng        *rand.Rand
	strategies *strategies
}

func NewGenerator(site string, cfg Config) (*Generator, error) {
	if !ident.ValidSite(site) {
		return nil, fmt.Errorf("lseq: invalid site %q", site)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	g := &Generator{
		site: site,
		cfg:  cfg,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	g.strategies = newStrategies(func() Strategy {
		return util.Choose(g.rng.IntN(2) == 0, BoundaryPlus, BoundaryMinus)
	})
	return g, nil
}

func (g *Generator) Site() string {
	return g.site
}

func (g *Generator) Config() Config {
	return g.cfg
}

func (g *Generator) Clock() uint64 {
	return g.clock
}

// Tick advances the logical clock and returns the new value. The clock
// stops at ident.MaxClock; Allocate refuses to run once it is there.
func (g *Generator) Tick() uint64 {
	if g.clock < ident.MaxClock {
		g.clock++
	}
	return g.clock
}

// Witness raises the clock to at least t, saturating at ident.MaxClock.
func (g *Generator) Witness(t uint64) {
	t = min(t, ident.MaxClock)
	if t > g.clock {
		g.clock = t
	}
}

// Strategy returns the direction used at depth (one based), choosing it if
// the depth has not been used yet.
func (g *Generator) Strategy(depth int) Strategy {
	return g.strategies.at(depth)
}

// Min and Max are the sentinels of this generator's identifier space.
func (g *Generator) Min() ident.ID {
	return ident.Min()
}

func (g *Generator) Max() ident.ID {
	return ident.Max(g.cfg.Base)
}

// Allocate returns a fresh identifier strictly between low and high.
//
// The result follows low's path while no level offers a usable gap. Once the
// path has dropped below high at some level, deeper levels are bounded only
// by their width. The final segment is tagged with this replica's site and a
// freshly ticked clock, which makes it unique across replicas.
func (g *Generator) Allocate(low, high ident.ID) (ident.ID, error) {
	if ident.Compare(low, high) >= 0 {
		return ident.ID{}, fmt.Errorf("%w: %s >= %s", ErrOrder, low, high)
	}
	if g.clock >= ident.MaxClock {
		return ident.ID{}, fmt.Errorf("%w: clock reached %d", ErrCapacity, g.clock)
	}

	prefix := make([]ident.Segment, 0, max(low.Depth(), high.Depth())+1)
	tied := true // prefix equals high's leading segments

	for d := 0; d < g.cfg.MaxDepth; d++ {
		depth := d + 1
		lowSeg, lowOK := low.Segment(d)
		lo := util.Choose(lowOK, lowSeg.Pos, 0)

		hi := g.cfg.Width(depth)
		var highSeg ident.Segment
		if tied {
			var ok bool
			if highSeg, ok = high.Segment(d); !ok {
				return ident.ID{}, fmt.Errorf("%w: %s is a prefix of the path below %s", ErrOrder, high, low)
			}
			hi = highSeg.Pos
		}

		if hi > lo && hi-lo-1 >= g.cfg.MinGap {
			pos := g.pick(depth, lo, hi)
			segs := append(prefix, ident.Segment{Pos: pos, Site: g.site, Clock: g.Tick()})
			return ident.New(segs...), nil
		}

		next := util.Choose(lowOK, lowSeg, ident.Segment{})
		if tied {
			tied = next.Compare(highSeg) == 0
		}
		prefix = append(prefix, next)
	}

	return ident.ID{}, fmt.Errorf("%w: no gap between %s and %s within depth %d", ErrCapacity, low, high, g.cfg.MaxDepth)
}

// pick chooses a position strictly inside (lo, hi) at most Boundary slots
// away from the edge the depth's strategy prefers.
func (g *Generator) pick(depth int, lo, hi uint64) uint64 {
	step := min(g.cfg.Boundary, hi-lo-1)
	offset := g.rng.Uint64N(step) + 1
	if g.strategies.at(depth) == BoundaryPlus {
		return lo + offset
	}
	return hi - offset
}

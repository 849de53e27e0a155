package lseq

// Strategy is the edge of a gap a replica allocates from at a given depth.
type Strategy int

const (
	BoundaryPlus  Strategy = iota // near the low neighbour
	BoundaryMinus                 // near the high neighbour
)

func (s Strategy) String() string {
	switch s {
	case BoundaryPlus:
		return "boundary+"
	case BoundaryMinus:
		return "boundary-"
	default:
		return "unknown"
	}
}

// strategies remembers, per depth, the direction picked the first time the
// depth was used.
type strategies struct {
	byDepth map[int]Strategy
	pick    func() Strategy
}

func newStrategies(pick func() Strategy) *strategies {
	return &strategies{byDepth: make(map[int]Strategy), pick: pick}
}

func (s *strategies) at(depth int) Strategy {
	if st, ok := s.byDepth[depth]; ok {
		return st
	}
	st := s.pick()
	s.byDepth[depth] = st
	return st
}

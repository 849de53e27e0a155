// Package ident defines LSEQ position identifiers: immutable, totally ordered
// paths of (position, disambiguator) segments.
package ident

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	segSep  = "."
	posSep  = ","
	siteSep = "/"

	// reserved for op framing
	fieldSep = ":"
)

// MaxClock is the largest logical clock a segment or op may carry. Larger
// times are rejected when decoded so a remote op cannot push a local clock
// into wrap-around.
const MaxClock uint64 = 1 << 62

var ErrDecode = errors.New("ident: malformed identifier")

// DecodeError reports identifier text that could not be parsed.
type DecodeError struct {
	Input  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ident: cannot parse %q: %s", e.Input, e.Reason)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// Segment is one level of an identifier. Site and Clock form the
// disambiguator; a segment with an empty Site is untagged and has no clock.
type Segment struct {
	Pos   uint64
	Site  string
	Clock uint64
}

func (s Segment) Tagged() bool {
	return s.Site != ""
}

func (s Segment) Compare(o Segment) int {
	if c := cmp.Compare(s.Pos, o.Pos); c != 0 {
		return c
	}
	if c := strings.Compare(s.Site, o.Site); c != 0 {
		return c
	}
	return cmp.Compare(s.Clock, o.Clock)
}

func (s Segment) String() string {
	if !s.Tagged() {
		return strconv.FormatUint(s.Pos, 10)
	}
	return strconv.FormatUint(s.Pos, 10) + posSep + s.Site + siteSep + strconv.FormatUint(s.Clock, 10)
}

// ID is a position identifier. The zero ID has depth 0 and sorts before every
// other identifier; it never appears in a store.
type ID struct {
	segs []Segment
}

func New(segs ...Segment) ID {
	out := make([]Segment, len(segs))
	for i, s := range segs {
		if s.Site == "" {
			s.Clock = 0
		}
		out[i] = s
	}
	return ID{segs: out}
}

// Min is the low sentinel.
func Min() ID {
	return New(Segment{Pos: 0})
}

// Max is the high sentinel of a space whose first level has 2^base slots.
func Max(base uint) ID {
	return New(Segment{Pos: 1<<base - 1})
}

func (id ID) Depth() int {
	return len(id.segs)
}

func (id ID) IsZero() bool {
	return len(id.segs) == 0
}

// IsSentinel reports whether id is a single untagged segment, which only the
// bounds of the space use.
func (id ID) IsSentinel() bool {
	return len(id.segs) == 1 && !id.segs[0].Tagged()
}

// Segment returns the segment at depth d (zero based).
func (id ID) Segment(d int) (Segment, bool) {
	if d < 0 || d >= len(id.segs) {
		return Segment{}, false
	}
	return id.segs[d], true
}

func (id ID) Segments() []Segment {
	out := make([]Segment, len(id.segs))
	copy(out, id.segs)
	return out
}

// Last is the segment carrying the allocation's disambiguator.
func (id ID) Last() Segment {
	if len(id.segs) == 0 {
		return Segment{}
	}
	return id.segs[len(id.segs)-1]
}

func Compare(a, b ID) int {
	n := min(len(a.segs), len(b.segs))
	for i := 0; i < n; i++ {
		if c := a.segs[i].Compare(b.segs[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a.segs), len(b.segs))
}

func (id ID) Compare(o ID) int {
	return Compare(id, o)
}

func (id ID) Less(o ID) bool {
	return Compare(id, o) < 0
}

func (id ID) Equal(o ID) bool {
	return Compare(id, o) == 0
}

func (id ID) String() string {
	parts := make([]string, len(id.segs))
	for i, s := range id.segs {
		parts[i] = s.String()
	}
	return strings.Join(parts, segSep)
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ValidSite reports whether site can be used as a disambiguator without
// breaking identifier or op framing.
func ValidSite(site string) bool {
	return site != "" && !strings.ContainsAny(site, segSep+posSep+siteSep+fieldSep+"\n\r")
}

func Parse(s string) (ID, error) {
	if s == "" {
		return ID{}, &DecodeError{Input: s, Reason: "empty"}
	}
	parts := strings.Split(s, segSep)
	segs := make([]Segment, len(parts))
	for i, p := range parts {
		seg, err := parseSegment(p)
		if err != nil {
			return ID{}, &DecodeError{Input: s, Reason: fmt.Sprintf("segment %d: %s", i, err)}
		}
		segs[i] = seg
	}
	return ID{segs: segs}, nil
}

func parseSegment(p string) (Segment, error) {
	posText, dis, tagged := strings.Cut(p, posSep)
	pos, err := parseUint(posText)
	if err != nil {
		return Segment{}, fmt.Errorf("position: %w", err)
	}
	if !tagged {
		return Segment{Pos: pos}, nil
	}

	site, clockText, ok := strings.Cut(dis, siteSep)
	if !ok {
		return Segment{}, errors.New("missing clock")
	}
	if !ValidSite(site) {
		return Segment{}, fmt.Errorf("invalid site %q", site)
	}
	clock, err := ParseClock(clockText)
	if err != nil {
		return Segment{}, fmt.Errorf("clock: %w", err)
	}
	return Segment{Pos: pos, Site: site, Clock: clock}, nil
}

// ParseClock parses a logical clock in canonical base 10, no larger than
// MaxClock.
// ParseClock parses a canonical logical time no greater than MaxClock.
func ParseClock(s string) (uint64, error) {
	v, err := parseUint(s)
	if err != nil {
		return 0, err
	}
	if v > MaxClock {
		return 0, fmt.Errorf("clock %d exceeds %d", v, MaxClock)
	}
	return v, nil
}

// parseUint only accepts canonical base 10 so that text round-trips exactly.
func parseUint(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if strconv.FormatUint(v, 10) != s {
		return 0, fmt.Errorf("non-canonical number %q", s)
	}
	return v, nil
}

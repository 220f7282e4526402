package hierarchy

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Unbounded marks an open-ended range (the current term).
const Unbounded = math.MaxInt

var (
	ErrInvalidRange     = errors.New("invalid term range")
	ErrOverlappingRange = errors.New("overlapping term ranges")
)

// TermRange maps the sessions First..Last (inclusive) to Term.
type TermRange struct {
	Term  int `json:"term"`
	First int `json:"first"`
	Last  int `json:"last"`
}

// DefaultTermRanges are the 20th-22nd assembly session ranges.
func DefaultTermRanges() []TermRange {
	return []TermRange{
		{Term: 20, First: 353, Last: 378},
		{Term: 21, First: 379, Last: 414},
		{Term: 22, First: 415, Last: Unbounded},
	}
}

// Resolver maps a session number to its assembly term. It holds no mutable state.
type Resolver struct {
	ranges []TermRange
}

// NewResolver validates the range table: positive bounds, First <= Last, no overlaps.
func NewResolver(ranges []TermRange) (*Resolver, error) {
	sorted := append([]TermRange(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].First < sorted[j].First })

	seenTerms := make(map[int]bool, len(sorted))
	for i, r := range sorted {
		if r.First <= 0 || r.Last < r.First {
			return nil, fmt.Errorf("%w: term %d [%d,%d]", ErrInvalidRange, r.Term, r.First, r.Last)
		}
		if seenTerms[r.Term] {
			return nil, fmt.Errorf("%w: term %d listed twice", ErrInvalidRange, r.Term)
		}
		seenTerms[r.Term] = true
		if i > 0 && sorted[i-1].Last >= r.First {
			return nil, fmt.Errorf("%w: term %d and term %d", ErrOverlappingRange, sorted[i-1].Term, r.Term)
		}
	}
	return &Resolver{ranges: sorted}, nil
}

// MustResolver is NewResolver for static tables.
func MustResolver(ranges []TermRange) *Resolver {
	r, err := NewResolver(ranges)
	if err != nil {
		panic(err)
	}
	return r
}

// TermOf returns the term containing session; ok is false when no range matches.
func (r *Resolver) TermOf(session int) (int, bool) {
	idx := sort.Search(len(r.ranges), func(i int) bool { return r.ranges[i].Last >= session })
	if idx < len(r.ranges) && r.ranges[idx].First <= session {
		return r.ranges[idx].Term, true
	}
	return 0, false
}

// Terms lists the configured terms in ascending order.
func (r *Resolver) Terms() []int {
	terms := make([]int, 0, len(r.ranges))
	for _, rg := range r.ranges {
		terms = append(terms, rg.Term)
	}
	sort.Ints(terms)
	return terms
}

// Range returns the configured range of a term.
func (r *Resolver) Range(term int) (TermRange, bool) {
	for _, rg := range r.ranges {
		if rg.Term == term {
			return rg, true
		}
	}
	return TermRange{}, false
}

// Ranges returns a copy of the range table.
func (r *Resolver) Ranges() []TermRange {
	return append([]TermRange(nil), r.ranges...)
}

// ParseTermRanges parses "20:353-378,21:379-414,22:415-". A missing upper bound is Unbounded.
func ParseTermRanges(s string) ([]TermRange, error) {
	var out []TermRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		termStr, bounds, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRange, part)
		}
		firstStr, lastStr, ok := strings.Cut(bounds, "-")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRange, part)
		}

		term, err := strconv.Atoi(strings.TrimSpace(termStr))
		if err != nil {
			return nil, fmt.Errorf("%w: term in %q", ErrInvalidRange, part)
		}
		first, err := strconv.Atoi(strings.TrimSpace(firstStr))
		if err != nil {
			return nil, fmt.Errorf("%w: lower bound in %q", ErrInvalidRange, part)
		}
		last := Unbounded
		if ls := strings.TrimSpace(lastStr); ls != "" {
			last, err = strconv.Atoi(ls)
			if err != nil {
				return nil, fmt.Errorf("%w: upper bound in %q", ErrInvalidRange, part)
			}
		}
		out = append(out, TermRange{Term: term, First: first, Last: last})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty table", ErrInvalidRange)
	}
	return out, nil
}

// Package charset implements immutable sets of runes stored as sorted,
// disjoint inclusive ranges.
package charset

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidRange is returned when a range has its lower bound above its upper bound.
var ErrInvalidRange = errors.New("invalid range")

// Range is an inclusive rune interval.
type Range struct {
	Lo rune
	Hi rune
}

// Point returns the single-rune range [r, r].
func Point(r rune) Range {
	return Range{Lo: r, Hi: r}
}

// Span returns the range [lo, hi].
func Span(lo, hi rune) Range {
	return Range{Lo: lo, Hi: hi}
}

// Domain bounds the runes an automaton can consume.
type Domain struct {
	Min rune
	Max rune
}

// Predefined domains.
var (
	ASCII   = Domain{Min: 0, Max: 127}
	Latin1  = Domain{Min: 0, Max: 255}
	Unicode = Domain{Min: 0, Max: unicode.MaxRune}
)

// Validate checks that the domain is non-empty.
func (d Domain) Validate() error {
	if d.Min > d.Max {
		return fmt.Errorf("%w: domain [%d,%d]", ErrInvalidRange, d.Min, d.Max)
	}
	return nil
}

// Full returns the set covering the whole domain.
func (d Domain) Full() Set {
	return Set{ranges: []Range{{Lo: d.Min, Hi: d.Max}}}
}

// Contains reports whether r lies inside the domain.
func (d Domain) Contains(r rune) bool {
	return r >= d.Min && r <= d.Max
}

// Complement returns every rune of the domain not in s.
func (d Domain) Complement(s Set) Set {
	rest, _, _ := d.Full().Intersect(s)
	return rest
}

// Set is a union of disjoint, non-adjacent inclusive ranges.
// The zero value is the empty set. A Set is never modified after construction.
type Set struct {
	ranges []Range
}

// New builds a set from the given ranges, merging overlapping and adjacent ones.
func New(ranges ...Range) (Set, error) {
	for _, r := range ranges {
		if r.Lo > r.Hi {
			return Set{}, fmt.Errorf("%w: [%d,%d]", ErrInvalidRange, r.Lo, r.Hi)
		}
	}
	return normalize(ranges), nil
}

// MustNew is like New but panics on an invalid range.
func MustNew(ranges ...Range) Set {
	s, err := New(ranges...)
	if err != nil {
		panic(err)
	}
	return s
}

// NewInverted builds the complement, within d, of the set described by ranges.
func NewInverted(d Domain, ranges ...Range) (Set, error) {
	s, err := New(ranges...)
	if err != nil {
		return Set{}, err
	}
	return d.Complement(s), nil
}

// Of returns the set of the given runes.
func Of(runes ...rune) Set {
	ranges := make([]Range, len(runes))
	for i, r := range runes {
		ranges[i] = Point(r)
	}
	return normalize(ranges)
}

// normalize sorts and merges ranges that are already known to be valid.
func normalize(in []Range) Set {
	if len(in) == 0 {
		return Set{}
	}
	sorted := make([]Range, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Lo != sorted[j].Lo {
			return sorted[i].Lo < sorted[j].Lo
		}
		return sorted[i].Hi < sorted[j].Hi
	})

	out := sorted[:1]
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		// int64 so that Hi+1 cannot overflow at the top of the rune space
		if int64(r.Lo) <= int64(last.Hi)+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return Set{ranges: out}
}

// Ranges returns a copy of the normalized ranges.
func (s Set) Ranges() []Range {
	out := make([]Range, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// Len returns the number of ranges.
func (s Set) Len() int {
	return len(s.ranges)
}

// IsEmpty reports whether the set holds no runes.
func (s Set) IsEmpty() bool {
	return len(s.ranges) == 0
}

// Representative returns the smallest rune of the set.
func (s Set) Representative() (rune, bool) {
	if s.IsEmpty() {
		return 0, false
	}
	return s.ranges[0].Lo, true
}

// Contains reports whether r is a member of the set.
func (s Set) Contains(r rune) bool {
	i := sort.Search(len(s.ranges), func(i int) bool { return s.ranges[i].Hi >= r })
	return i < len(s.ranges) && s.ranges[i].Lo <= r
}

// Union returns the runes in either set.
func (s Set) Union(other Set) Set {
	if other.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return other
	}
	all := make([]Range, 0, len(s.ranges)+len(other.ranges))
	all = append(all, s.ranges...)
	all = append(all, other.ranges...)
	return normalize(all)
}

// Intersect splits the two sets into the runes only in s, the runes only in
// other, and the runes in both. The three results are pairwise disjoint.
func (s Set) Intersect(other Set) (onlySelf, onlyOther, both Set) {
	var inSelf, inOther, inBoth []Range

	// working copies, since partially consumed ranges are clipped in place
	a := s.Ranges()
	b := other.Ranges()
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		x, y := a[i], b[j]
		if x.Hi < y.Lo {
			inSelf = append(inSelf, x)
			i++
			continue
		}
		if y.Hi < x.Lo {
			inOther = append(inOther, y)
			j++
			continue
		}

		// the ranges overlap: peel off the non-shared prefix first
		if x.Lo < y.Lo {
			inSelf = append(inSelf, Range{Lo: x.Lo, Hi: y.Lo - 1})
			x.Lo = y.Lo
		} else if y.Lo < x.Lo {
			inOther = append(inOther, Range{Lo: y.Lo, Hi: x.Lo - 1})
			y.Lo = x.Lo
		}

		switch {
		case x.Hi < y.Hi:
			inBoth = append(inBoth, x)
			i++
			b[j] = Range{Lo: x.Hi + 1, Hi: y.Hi}
		case y.Hi < x.Hi:
			inBoth = append(inBoth, y)
			j++
			a[i] = Range{Lo: y.Hi + 1, Hi: x.Hi}
		default:
			inBoth = append(inBoth, x)
			i++
			j++
		}
	}
	inSelf = append(inSelf, a[i:]...)
	inOther = append(inOther, b[j:]...)

	return normalize(inSelf), normalize(inOther), normalize(inBoth)
}

// Equal reports whether both sets hold the same runes.
func (s Set) Equal(other Set) bool {
	if len(s.ranges) != len(other.ranges) {
		return false
	}
	for i := range s.ranges {
		if s.ranges[i] != other.ranges[i] {
			return false
		}
	}
	return true
}

// Key returns a canonical encoding of the set, usable as a map key.
func (s Set) Key() string {
	var sb strings.Builder
	for i, r := range s.ranges {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(r.Lo)))
		if r.Hi != r.Lo {
			sb.WriteByte('-')
			sb.WriteString(strconv.Itoa(int(r.Hi)))
		}
	}
	return sb.String()
}

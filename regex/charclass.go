package regex

import (
	"fmt"
	"sort"
	"strings"
)

// runeRange is an inclusive rune range [Lo, Hi].
type runeRange struct {
	Lo, Hi rune
}

// CharClass is a set of runes expressed as a small number of ranges, with an
// optional negation flag (`[^...]`).
type CharClass struct {
	Ranges  []runeRange
	Negated bool
}

// Single returns a CharClass matching exactly one rune.
func Single(r rune) *CharClass {
	return &CharClass{Ranges: []runeRange{{r, r}}}
}

// Range returns a CharClass matching lo..hi inclusive.
func Range(lo, hi rune) *CharClass {
	return &CharClass{Ranges: []runeRange{{lo, hi}}}
}

// Union returns a CharClass matching anything either a or b matches.
// Negation is not preserved (callers needing De Morgan's laws should negate
// after unioning the positive forms).
func Union(classes ...*CharClass) *CharClass {
	out := &CharClass{}
	for _, c := range classes {
		out.Ranges = append(out.Ranges, c.expand()...)
	}
	return out.normalize()
}

// Negate returns the complement of c within the full Unicode code point
// space.
func (c *CharClass) Negate() *CharClass {
	return &CharClass{Ranges: append([]runeRange(nil), c.Ranges...), Negated: !c.Negated}
}

// Matches reports whether r is in the class.
func (c *CharClass) Matches(r rune) bool {
	in := false
	for _, rg := range c.Ranges {
		if r >= rg.Lo && r <= rg.Hi {
			in = true
			break
		}
	}
	if c.Negated {
		return !in
	}
	return in
}

// expand returns the ranges this class positively matches, materializing
// negation as the complement ranges over 0..0x10FFFF (used only by Union,
// which always needs positive ranges to combine).
func (c *CharClass) expand() []runeRange {
	if !c.Negated {
		return c.Ranges
	}
	sorted := append([]runeRange(nil), c.Ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lo < sorted[j].Lo })
	var out []runeRange
	cursor := rune(0)
	for _, rg := range sorted {
		if rg.Lo > cursor {
			out = append(out, runeRange{cursor, rg.Lo - 1})
		}
		if rg.Hi+1 > cursor {
			cursor = rg.Hi + 1
		}
	}
	if cursor <= 0x10FFFF {
		out = append(out, runeRange{cursor, 0x10FFFF})
	}
	return out
}

// normalize sorts and merges overlapping/adjacent ranges.
func (c *CharClass) normalize() *CharClass {
	if len(c.Ranges) == 0 {
		return c
	}
	sort.Slice(c.Ranges, func(i, j int) bool { return c.Ranges[i].Lo < c.Ranges[j].Lo })
	merged := []runeRange{c.Ranges[0]}
	for _, rg := range c.Ranges[1:] {
		last := &merged[len(merged)-1]
		if rg.Lo <= last.Hi+1 {
			if rg.Hi > last.Hi {
				last.Hi = rg.Hi
			}
			continue
		}
		merged = append(merged, rg)
	}
	c.Ranges = merged
	return c
}

func (c *CharClass) String() string {
	var sb strings.Builder
	sb.WriteRune('[')
	if c.Negated {
		sb.WriteRune('^')
	}
	for _, rg := range c.Ranges {
		if rg.Lo == rg.Hi {
			fmt.Fprintf(&sb, "%c", rg.Lo)
		} else {
			fmt.Fprintf(&sb, "%c-%c", rg.Lo, rg.Hi)
		}
	}
	sb.WriteRune(']')
	return sb.String()
}

// Predefined escape classes, matching the conventional \d \w \s meanings.
var (
	DigitClass = Range('0', '9')
	WordClass  = Union(Range('a', 'z'), Range('A', 'Z'), Range('0', '9'), Single('_'))
	SpaceClass = &CharClass{Ranges: []runeRange{{' ', ' '}, {'\t', '\t'}, {'\n', '\n'}, {'\r', '\r'}, {'\f', '\f'}, {'\v', '\v'}}}
)

// Partition computes the coarsest alphabet partition consistent with a set
// of CharClasses: the set of disjoint rune ranges such that every input
// class is a union of some subset of the partition's ranges (spec §4.1:
// "the scanner needn't transition per-rune; instead it transitions per
// equivalence class of runes, one contiguous range per class"). Two runes
// end up in the same partition class iff they belong to exactly the same
// subset of the input classes.
func Partition(classes []*CharClass) []*CharClass {
	type boundary struct {
		at    rune
		delta int // +1 opens a class's range here, -1 closes it (exclusive, at Hi+1)
	}
	var bounds []rune
	boundSet := map[rune]bool{}
	add := func(r rune) {
		if !boundSet[r] {
			boundSet[r] = true
			bounds = append(bounds, r)
		}
	}
	for _, c := range classes {
		for _, rg := range c.expand() {
			add(rg.Lo)
			if rg.Hi+1 <= 0x10FFFF {
				add(rg.Hi + 1)
			}
		}
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i] < bounds[j] })

	var out []*CharClass
	for i := 0; i < len(bounds); i++ {
		lo := bounds[i]
		hi := rune(0x10FFFF)
		if i+1 < len(bounds) {
			hi = bounds[i+1] - 1
		}
		if lo > hi {
			continue
		}
		out = append(out, &CharClass{Ranges: []runeRange{{lo, hi}}})
	}
	return out
}

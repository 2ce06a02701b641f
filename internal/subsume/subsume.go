// Package subsume decides whether one tag is lexically redundant with another.
//
// Both checks work on a Comparison of two lemma sets. Dominates is the coarse
// subset rule used between ranked candidates; DistinctEnough adds a character
// overlap score on the non-shared lemmas and is used against the query.
package subsume

import (
	"strings"
	"unicode/utf8"

	"github.com/kamusis/tagsuggest/internal/lexicon"
)

// Comparison holds two lemma sets and the lemmas unique to each.
type Comparison struct {
	Left       lexicon.LemmaSet
	Right      lexicon.LemmaSet
	ExtraLeft  lexicon.LemmaSet
	ExtraRight lexicon.LemmaSet
}

// Compare builds the Comparison of left against right.
func Compare(left, right lexicon.LemmaSet) Comparison {
	return Comparison{
		Left:       left,
		Right:      right,
		ExtraLeft:  left.Minus(right),
		ExtraRight: right.Minus(left),
	}
}

// subset applies the three set rules shared by both checks.
// decided is false when neither side is a subset of the other.
func (c Comparison) subset() (keep, decided bool) {
	switch {
	case c.Left.Equal(c.Right):
		return false, true
	case c.ExtraLeft.Len() == 0:
		return true, true
	case c.ExtraRight.Len() == 0:
		return false, true
	}
	return false, false
}

// Dominates reports whether the left text survives next to the right one.
//
// Equal sets suppress the left side. A left side that is a subset of the right is
// the more general tag and survives. A left side that strictly contains the right
// adds nothing and is suppressed. Unrelated sets coexist.
func (c Comparison) Dominates() bool {
	if keep, decided := c.subset(); decided {
		return keep
	}
	return true
}

// DistinctEnough reports whether the right text is worth keeping next to the left.
// After the subset rules it scores the character overlap of the two extras and
// treats a perfect overlap as a duplicate.
func (c Comparison) DistinctEnough() bool {
	if keep, decided := c.subset(); decided {
		return keep
	}
	return OverlapRatio(render(c.ExtraLeft), render(c.ExtraRight)) < 1.0
}

// OverlapRatio walks the runes of the shorter string and counts +1 for every rune
// still available in the longer one and -1 otherwise, then divides by the length
// of the shorter string. The result can be negative; it is 1 only when every rune
// of the shorter string is matched. Equal lengths take a as the shorter string.
func OverlapRatio(a, b string) float64 {
	short, long := a, b
	if utf8.RuneCountInString(b) < utf8.RuneCountInString(a) {
		short, long = b, a
	}
	n := utf8.RuneCountInString(short)
	if n == 0 {
		return 1.0
	}

	avail := make(map[rune]int, utf8.RuneCountInString(long))
	for _, r := range long {
		avail[r]++
	}
	matched := 0
	for _, r := range short {
		if avail[r] > 0 {
			avail[r]--
			matched++
		} else {
			matched--
		}
	}
	return float64(matched) / float64(n)
}

// render concatenates the lemmas of s in sorted order.
func render(s lexicon.LemmaSet) string {
	return strings.Join(s.Sorted(), "")
}

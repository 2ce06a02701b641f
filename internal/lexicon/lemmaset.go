package lexicon

import (
	"sort"
	"strings"
)

// LemmaSet is a set of normalized lemmas derived from a text.
type LemmaSet map[string]struct{}

// NewLemmaSet builds a set from the given lemmas, collapsing duplicates.
func NewLemmaSet(lemmas ...string) LemmaSet {
	s := make(LemmaSet, len(lemmas))
	for _, l := range lemmas {
		s[l] = struct{}{}
	}
	return s
}

// Contains reports whether lemma is in the set.
func (s LemmaSet) Contains(lemma string) bool {
	_, ok := s[lemma]
	return ok
}

// Len returns the number of lemmas.
func (s LemmaSet) Len() int { return len(s) }

// Equal reports whether both sets hold exactly the same lemmas.
func (s LemmaSet) Equal(o LemmaSet) bool {
	if len(s) != len(o) {
		return false
	}
	for l := range s {
		if _, ok := o[l]; !ok {
			return false
		}
	}
	return true
}

// Minus returns the lemmas of s that are not in o.
func (s LemmaSet) Minus(o LemmaSet) LemmaSet {
	out := make(LemmaSet)
	for l := range s {
		if _, ok := o[l]; !ok {
			out[l] = struct{}{}
		}
	}
	return out
}

// Sorted returns the lemmas in ascending order.
func (s LemmaSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// String renders the set as a space-separated sorted list.
func (s LemmaSet) String() string {
	return "{" + strings.Join(s.Sorted(), " ") + "}"
}

package subsume

import "github.com/kamusis/tagsuggest/internal/lexicon"

// Analyzer turns text into a lemma set.
type Analyzer interface {
	Normalize(text string) (lexicon.LemmaSet, error)
}

// Filter applies the subsumption checks to raw strings.
type Filter struct {
	analyzer Analyzer
}

// NewFilter returns a Filter that normalizes through a.
func NewFilter(a Analyzer) *Filter {
	return &Filter{analyzer: a}
}

// Preprocess normalizes both texts and compares their lemma sets.
func (f *Filter) Preprocess(s1, s2 string) (Comparison, error) {
	l1, err := f.analyzer.Normalize(s1)
	if err != nil {
		return Comparison{}, err
	}
	l2, err := f.analyzer.Normalize(s2)
	if err != nil {
		return Comparison{}, err
	}
	return Compare(l1, l2), nil
}

// Dominates reports whether s1 survives when compared against s2.
func (f *Filter) Dominates(s1, s2 string) (bool, error) {
	c, err := f.Preprocess(s1, s2)
	if err != nil {
		return false, err
	}
	return c.Dominates(), nil
}

// IsDistinctEnough reports whether s2 is distinct enough from s1 to be returned.
func (f *Filter) IsDistinctEnough(s1, s2 string) (bool, error) {
	c, err := f.Preprocess(s1, s2)
	if err != nil {
		return false, err
	}
	return c.DistinctEnough(), nil
}

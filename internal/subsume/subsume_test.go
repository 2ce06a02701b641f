package subsume

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/tagsuggest/internal/lexicon"
)

func newFilter() *Filter {
	return NewFilter(lexicon.NewNormalizer(nil, lexicon.DefaultOptions()))
}

func TestDominates(t *testing.T) {
	f := newFilter()
	cases := []struct {
		name   string
		s1, s2 string
		want   bool
	}{
		{"equal sets", "shoes", "Shoes", false},
		{"equal after stop words", "cheap shoes", "shoes", false},
		{"left subset of right", "shoes", "adidas shoes", true},
		{"left superset of right", "adidas shoes", "shoes", false},
		{"unrelated", "nike shoes", "adidas boots", true},
		{"both empty", "", "", false},
		{"left empty", "", "shoes", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.Dominates(tc.s1, tc.s2)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsDistinctEnough(t *testing.T) {
	f := newFilter()
	cases := []struct {
		name   string
		s1, s2 string
		want   bool
	}{
		{"identical", "shoes", "shoes", false},
		{"candidate refines query", "shoes", "adidas shoes", true},
		{"candidate drops a query word", "red shoes", "shoes", false},
		{"different extras", "red shoes", "running shoes", true},
		{"anagram extras", "listen shoes", "silent shoes", false},
		{"extra letters contained", "red shoes", "redder shoes", false},
		{"empty query", "", "shoes", true},
		{"empty candidate", "shoes", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.IsDistinctEnough(tc.s1, tc.s2)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSelfComparisonIsNeverKept(t *testing.T) {
	f := newFilter()
	for _, s := range []string{"shoes", "adidas running shoes", "", "кроссовки"} {
		d, err := f.Dominates(s, s)
		require.NoError(t, err)
		assert.False(t, d, "Dominates(%q, %q)", s, s)

		de, err := f.IsDistinctEnough(s, s)
		require.NoError(t, err)
		assert.False(t, de, "IsDistinctEnough(%q, %q)", s, s)
	}
}

func TestDominatesAntisymmetricOnStrictSubsets(t *testing.T) {
	pairs := [][2]lexicon.LemmaSet{
		{lexicon.NewLemmaSet("shoes"), lexicon.NewLemmaSet("adidas", "shoes")},
		{lexicon.NewLemmaSet(), lexicon.NewLemmaSet("boots")},
		{lexicon.NewLemmaSet("a", "b"), lexicon.NewLemmaSet("a", "b", "c")},
	}
	for _, p := range pairs {
		assert.True(t, Compare(p[0], p[1]).Dominates())
		assert.False(t, Compare(p[1], p[0]).Dominates())
	}
}

func TestOverlapRatio(t *testing.T) {
	assert.InDelta(t, 1.0, OverlapRatio("listen", "silent"), 1e-9)
	assert.InDelta(t, -0.5, OverlapRatio("nike", "adidas"), 1e-9)
	assert.InDelta(t, -0.5, OverlapRatio("adidas", "nike"), 1e-9)
	// letters are consumed: only one 'a' is available
	assert.InDelta(t, 0.0, OverlapRatio("aa", "ab_"), 1e-9)
	assert.InDelta(t, 1.0, OverlapRatio("red", "redder"), 1e-9)
}

func TestDistinctEnoughUsesSortedConcatenation(t *testing.T) {
	// {"ab","cd"} renders as "abcd" on both sides regardless of insertion order
	c := Compare(
		lexicon.NewLemmaSet("x", "cd", "ab"),
		lexicon.NewLemmaSet("x", "dcba"),
	)
	assert.False(t, c.DistinctEnough())
}

type brokenAnalyzer struct{}

func (brokenAnalyzer) Normalize(string) (lexicon.LemmaSet, error) {
	return nil, errors.New("no analyzer")
}

func TestFilterPropagatesAnalyzerErrors(t *testing.T) {
	f := NewFilter(brokenAnalyzer{})

	_, err := f.Dominates("a", "b")
	require.Error(t, err)
	_, err = f.IsDistinctEnough("a", "b")
	require.Error(t, err)
}

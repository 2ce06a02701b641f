package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/tagsuggest/internal/lexicon"
	"github.com/kamusis/tagsuggest/internal/search/index"
	"github.com/kamusis/tagsuggest/internal/search/store"
)

// fakeEmbedder returns fixed vectors keyed by trimmed text.
type fakeEmbedder struct {
	vecs  map[string][]float32
	fail  map[string]error
	calls atomic.Int64
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vecs: map[string][]float32{}, fail: map[string]error{}}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	key := strings.TrimSpace(text)
	if err, ok := f.fail[key]; ok {
		return nil, err
	}
	v, ok := f.vecs[key]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", key)
	}
	return v, nil
}

// at returns a 2-d vector whose squared distance to the origin is d.
func at(d float64, axis int) []float32 {
	v := []float32{0, 0}
	v[axis] = float32(math.Sqrt(d))
	return v
}

type fixture struct {
	emb *fakeEmbedder
	s   *Suggester
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	idx, err := index.NewFlat(2)
	require.NoError(t, err)
	emb := newFakeEmbedder()
	an := lexicon.NewNormalizer(nil, lexicon.DefaultOptions())
	return &fixture{emb: emb, s: New(idx, store.New(), emb, an, DefaultOptions(), nil)}
}

func (f *fixture) tag(t *testing.T, text string, pop float64, vec []float32) {
	t.Helper()
	f.emb.vecs[strings.ToLower(text)] = vec
	_, err := f.s.Add(context.Background(), text, text, store.Pop(pop))
	require.NoError(t, err)
}

func TestSuggestTags_EmptyIndexSkipsEmbedding(t *testing.T) {
	f := newFixture(t)

	got, err := f.s.SuggestTags(context.Background(), "anything", 10, 30)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int64(0), f.emb.calls.Load())
}

func TestSuggestTags_DropsQueryDuplicateKeepsRefinement(t *testing.T) {
	f := newFixture(t)
	f.tag(t, "shoes", 10, at(0.05, 0))
	f.tag(t, "adidas shoes", 5, at(0.02, 1))

	f.emb.vecs["shoes"] = []float32{0, 0}
	got, err := f.s.SuggestTags(context.Background(), "Shoes", 10, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"adidas shoes"}, got)
}

func TestSuggestTags_RelevanceFilterAgainstQuery(t *testing.T) {
	f := newFixture(t)
	f.tag(t, "shoes", 5, at(0.01, 0))
	f.tag(t, "red shoes", 5, at(0.02, 0))
	f.tag(t, "running shoes", 5, at(0.03, 1))

	f.emb.vecs["red shoes"] = []float32{0, 0}
	got, err := f.s.SuggestTags(context.Background(), "red shoes", 10, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"running shoes"}, got)
}

func TestSuggestTags_HigherRankedSupersetIsDropped(t *testing.T) {
	f := newFixture(t)
	f.emb.vecs["footwear"] = []float32{0, 0}
	f.tag(t, "adidas shoes", 10, at(0.05, 0))
	f.tag(t, "shoes", 5, at(0.1, 1))
	f.tag(t, "nike boots", 1, at(0.2, 0))

	cands, err := f.s.SuggestCandidates(context.Background(), "footwear", 10, 30)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	assert.Equal(t, "shoes", cands[0].Text)
	assert.Equal(t, "nike boots", cands[1].Text)
	assert.InDelta(t, 5*0.3-0.1, cands[0].Score, 1e-6)
	assert.InDelta(t, 0.1, cands[0].Distance, 1e-6)
}

func TestSuggestTags_TruncatesToTopN(t *testing.T) {
	f := newFixture(t)
	f.emb.vecs["q"] = []float32{0, 0}
	for i, name := range []string{"alpha", "bravo", "charlie", "delta"} {
		f.tag(t, name, float64(10-i), at(0.01, i%2))
	}

	got, err := f.s.SuggestTags(context.Background(), "q", 2, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo"}, got)
}

func TestSuggestTags_NonPositiveArgumentsUseDefaults(t *testing.T) {
	f := newFixture(t)
	f.emb.vecs["q"] = []float32{0, 0}
	for i := 0; i < 12; i++ {
		f.tag(t, fmt.Sprintf("tag%02d", i), 5, at(float64(i+1)/100, 0))
	}

	got, err := f.s.SuggestTags(context.Background(), "q", 0, -1)
	require.NoError(t, err)
	assert.Len(t, got, DefaultOptions().TopN)
}

func TestSuggestTags_PoolLimitsRetrieval(t *testing.T) {
	f := newFixture(t)
	f.emb.vecs["q"] = []float32{0, 0}
	f.tag(t, "near", 0, at(0.01, 0))
	f.tag(t, "far but popular", 100, at(0.5, 1))

	got, err := f.s.SuggestTags(context.Background(), "q", 10, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"near"}, got)
}

func TestSuggestTags_OutputIsSubsetOfStore(t *testing.T) {
	f := newFixture(t)
	texts := []string{"jeans", "blue jeans", "slim jeans", "skinny blue jeans", "denim jacket"}
	for i, txt := range texts {
		f.tag(t, txt, float64(i), at(float64(i+1)/50, i%2))
	}

	f.emb.vecs["blue jeans"] = []float32{0, 0}
	got, err := f.s.SuggestTags(context.Background(), "blue jeans", 10, 30)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), 10)
	seen := map[string]bool{}
	for _, g := range got {
		assert.Contains(t, texts, g)
		assert.NotEqual(t, "blue jeans", g)
		assert.False(t, seen[g], "duplicate %q", g)
		seen[g] = true
	}
}

func TestSuggestTags_EmbedderErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.tag(t, "shoes", 5, at(0.01, 0))
	boom := errors.New("model offline")
	f.emb.fail["q"] = boom

	_, err := f.s.SuggestTags(context.Background(), "q", 10, 30)
	require.ErrorIs(t, err, boom)
}

func TestSuggestTags_UnknownSlotIsAFault(t *testing.T) {
	idx, err := index.FromVectors(2, []float32{0, 0})
	require.NoError(t, err)
	emb := newFakeEmbedder()
	emb.vecs["q"] = []float32{0, 0}
	s := New(idx, store.New(), emb, lexicon.NewNormalizer(nil, lexicon.Options{}), DefaultOptions(), nil)

	_, err = s.SuggestTags(context.Background(), "q", 10, 30)
	require.ErrorIs(t, err, store.ErrUnknownSlot)
}

func TestAddVector_RefusesOutOfSync(t *testing.T) {
	idx, err := index.FromVectors(2, []float32{0, 0})
	require.NoError(t, err)
	s := New(idx, store.New(), newFakeEmbedder(), lexicon.NewNormalizer(nil, lexicon.Options{}), DefaultOptions(), nil)

	_, err = s.AddVector([]float32{1, 1}, store.Record{Text: "x"})
	require.ErrorIs(t, err, ErrOutOfSync)
	assert.Equal(t, 1, idx.Len())
}

func TestAdd_RejectsInvalidPopularity(t *testing.T) {
	f := newFixture(t)
	f.emb.vecs["shoes"] = []float32{0, 0}

	for _, v := range []float64{math.NaN(), math.Inf(-1), -7} {
		_, err := f.s.Add(context.Background(), "shoes", "", store.Pop(v))
		require.ErrorIs(t, err, store.ErrInvalidPopularity)
	}
	assert.Equal(t, 0, f.s.Index().Len())
	assert.Equal(t, 0, f.s.Store().Len())

	_, err := f.s.Add(context.Background(), "shoes", "", store.Pop(0))
	require.NoError(t, err)
}

func TestAddVector_DimensionMismatchKeepsLockStep(t *testing.T) {
	f := newFixture(t)
	_, err := f.s.AddVector([]float32{1, 2, 3}, store.Record{Text: "bad"})
	require.ErrorIs(t, err, index.ErrDimensionMismatch)
	assert.Equal(t, 0, f.s.Index().Len())
	assert.Equal(t, 0, f.s.Store().Len())

	slot, err := f.s.AddVector([]float32{1, 2}, store.Record{Text: "good"})
	require.NoError(t, err)
	assert.Equal(t, index.Slot(0), slot)
}

func TestSuggestTags_ConcurrentReaders(t *testing.T) {
	f := newFixture(t)
	f.emb.vecs["shoes"] = []float32{0, 0}
	f.tag(t, "adidas shoes", 5, at(0.02, 1))
	f.tag(t, "nike shoes", 5, at(0.03, 0))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.s.SuggestTags(context.Background(), "shoes", 10, 30)
			assert.NoError(t, err)
			assert.Equal(t, []string{"adidas shoes", "nike shoes"}, got)
		}()
	}
	wg.Wait()
}

func TestRankCandidates_StableOnTies(t *testing.T) {
	cands := []Candidate{
		{Text: "first", Popularity: 1, Distance: 0.3},
		{Text: "second", Popularity: 1, Distance: 0.3},
		{Text: "best", Popularity: 10, Distance: 0.9},
	}
	RankCandidates(cands, 0.3)
	assert.Equal(t, "best", cands[0].Text)
	assert.Equal(t, "first", cands[1].Text)
	assert.Equal(t, "second", cands[2].Text)
}

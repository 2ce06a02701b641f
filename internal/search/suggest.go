// Package search suggests tags for a query from an embedded tag index.
//
// A Suggester joins a vector index and a record store by slot. Readers run
// concurrently; writers are serialized by the Suggester so both structures grow
// in lock-step.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/kamusis/tagsuggest/internal/lexicon"
	"github.com/kamusis/tagsuggest/internal/logger"
	"github.com/kamusis/tagsuggest/internal/search/index"
	"github.com/kamusis/tagsuggest/internal/search/store"
	"github.com/kamusis/tagsuggest/internal/subsume"
)

// Options tunes ranking and ingestion.
type Options struct {
	TopN               int
	PoolSize           int
	PopularityWeight   float64
	CloseThreshold     float32 // squared distance under which a new query is a near-duplicate
	FallbackPopularity float64
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		TopN:               10,
		PoolSize:           30,
		PopularityWeight:   0.3,
		CloseThreshold:     0.15,
		FallbackPopularity: store.DefaultPopularity,
	}
}

// Suggester runs the suggestion pipeline over an index and a store.
type Suggester struct {
	idx      *index.Flat
	st       *store.Store
	embedder Embedder
	analyzer Analyzer
	opts     Options
	log      *log.Logger

	writeMu sync.Mutex
}

// New builds a Suggester. A nil logger discards output.
func New(idx *index.Flat, st *store.Store, emb Embedder, an Analyzer, opts Options, l *log.Logger) *Suggester {
	if l == nil {
		l = logger.Discard()
	}
	return &Suggester{idx: idx, st: st, embedder: emb, analyzer: an, opts: opts, log: l}
}

// Index returns the underlying vector index.
func (s *Suggester) Index() *index.Flat { return s.idx }

// Store returns the underlying record store.
func (s *Suggester) Store() *store.Store { return s.st }

// Options returns the tuning in effect.
func (s *Suggester) Options() Options { return s.opts }

// Len returns the number of indexed tags.
func (s *Suggester) Len() int { return s.idx.Len() }

// SuggestTags returns up to topN tags for query. Non-positive topN or poolSize
// select the configured defaults. An empty index yields an empty list.
func (s *Suggester) SuggestTags(ctx context.Context, query string, topN, poolSize int) ([]string, error) {
	cands, err := s.SuggestCandidates(ctx, query, topN, poolSize)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Text
	}
	return out, nil
}

// SuggestCandidates runs the same pipeline as SuggestTags and keeps the scores.
func (s *Suggester) SuggestCandidates(ctx context.Context, query string, topN, poolSize int) ([]Candidate, error) {
	if topN <= 0 {
		topN = s.opts.TopN
	}
	if poolSize <= 0 {
		poolSize = s.opts.PoolSize
	}
	if s.idx.Len() == 0 {
		return []Candidate{}, nil
	}

	qv, err := s.embedder.Embed(ctx, lexicon.Fold(query))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.idx.Search(qv, poolSize)
	if err != nil {
		return nil, err
	}

	queryLemmas, err := s.analyzer.Normalize(query)
	if err != nil {
		return nil, err
	}

	cands := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		rec, err := s.st.Get(h.Slot)
		if err != nil {
			return nil, fmt.Errorf("resolve slot %d: %w", h.Slot, err)
		}
		lemmas, err := s.analyzer.Normalize(rec.Text)
		if err != nil {
			return nil, err
		}
		if !subsume.Compare(queryLemmas, lemmas).DistinctEnough() {
			continue
		}
		cands = append(cands, Candidate{
			Slot:       h.Slot,
			SourceID:   rec.SourceID,
			Text:       rec.Text,
			Popularity: rec.PopularityOr(s.opts.FallbackPopularity),
			Distance:   h.Distance,
			lemmas:     lemmas,
		})
	}

	RankCandidates(cands, s.opts.PopularityWeight)
	cands = dropDominated(cands)
	if len(cands) > topN {
		cands = cands[:topN]
	}
	s.log.Debug("suggest", "query", query, "hits", len(hits), "kept", len(cands))
	return cands, nil
}

// Add embeds text and inserts it as a new tag.
func (s *Suggester) Add(ctx context.Context, text, sourceID string, popularity *float64) (index.Slot, error) {
	vec, err := s.embedder.Embed(ctx, lexicon.Fold(text))
	if err != nil {
		return 0, fmt.Errorf("embed tag: %w", err)
	}
	return s.AddVector(vec, store.Record{SourceID: sourceID, Text: text, Popularity: popularity})
}

// AddVector inserts a precomputed vector and its record under the writer lock.
func (s *Suggester) AddVector(vec []float32, rec store.Record) (index.Slot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.addLocked(vec, rec)
}

func (s *Suggester) addLocked(vec []float32, rec store.Record) (index.Slot, error) {
	if err := store.CheckPopularity(rec.Popularity); err != nil {
		return 0, err
	}
	if n, m := s.idx.Len(), s.st.Len(); n != m {
		return 0, fmt.Errorf("%w: index=%d store=%d", ErrOutOfSync, n, m)
	}
	slot, err := s.idx.Add(vec)
	if err != nil {
		return 0, err
	}
	if err := s.st.Put(slot, rec); err != nil {
		if errors.Is(err, store.ErrDuplicateSlot) {
			return 0, fmt.Errorf("%w: %v", ErrOutOfSync, err)
		}
		return 0, err
	}
	return slot, nil
}

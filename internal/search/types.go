package search

import (
	"context"
	"errors"

	"github.com/kamusis/tagsuggest/internal/lexicon"
	"github.com/kamusis/tagsuggest/internal/search/index"
)

// ErrOutOfSync indicates the index and the store no longer hold the same number of entries.
var ErrOutOfSync = errors.New("index and store are out of sync")

// Embedder maps text to a vector. embeddings.Provider satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Analyzer maps text to its lemma set. *lexicon.Normalizer satisfies it.
type Analyzer interface {
	Normalize(text string) (lexicon.LemmaSet, error)
}

// PopularityLookup returns the popularity of a historical query.
type PopularityLookup interface {
	Lookup(query string) (float64, error)
}

// Candidate is one retrieved tag during a suggestion request.
type Candidate struct {
	Slot       index.Slot
	SourceID   string
	Text       string
	Popularity float64
	Distance   float32
	Score      float64

	lemmas lexicon.LemmaSet
}

// PopulateStats summarizes a PopulateFromHistory run.
type PopulateStats struct {
	Seen     int // queries visited
	Added    int
	Skipped  int // too close to an existing tag
	Blank    int
	Fallback int // popularity lookups that failed
}

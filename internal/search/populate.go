package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kamusis/tagsuggest/internal/lexicon"
	"github.com/kamusis/tagsuggest/internal/search/store"
)

// PopulateFromHistory ingests historical queries as tags. The position of a query in
// queries becomes its source id.
//
// Blank queries and queries whose nearest tag is closer than the close threshold are
// skipped. A failed popularity lookup, or one returning a negative or non-finite
// value, falls back to the default popularity and the
// batch continues; any other error stops the batch and leaves completed insertions
// in place. A nil table uses the fallback for every query.
func (s *Suggester) PopulateFromHistory(ctx context.Context, queries []string, table PopularityLookup) (PopulateStats, error) {
	var stats PopulateStats

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Seen++
		if strings.TrimSpace(q) == "" {
			stats.Blank++
			continue
		}

		vec, err := s.embedder.Embed(ctx, lexicon.Fold(q))
		if err != nil {
			return stats, fmt.Errorf("embed query %d: %w", i, err)
		}

		pop := s.opts.FallbackPopularity
		if table != nil {
			p, err := table.Lookup(q)
			if err == nil {
				err = store.CheckPopularity(&p)
			}
			if err != nil {
				s.log.Warn("popularity lookup failed, using fallback", "query", q, "fallback", pop, "err", err)
				stats.Fallback++
			} else {
				pop = p
			}
		} else {
			stats.Fallback++
		}

		if s.idx.Len() > 0 {
			hits, err := s.idx.Search(vec, 1)
			if err != nil {
				return stats, err
			}
			if len(hits) > 0 && hits[0].Distance < s.opts.CloseThreshold {
				s.log.Debug("skip near-duplicate", "query", q, "slot", hits[0].Slot, "distance", hits[0].Distance)
				stats.Skipped++
				continue
			}
		}

		rec := store.Record{SourceID: strconv.Itoa(i), Text: q, Popularity: store.Pop(pop)}
		if _, err := s.addLocked(vec, rec); err != nil {
			return stats, fmt.Errorf("insert query %d: %w", i, err)
		}
		stats.Added++
	}
	s.log.Info("populate done", "seen", stats.Seen, "added", stats.Added, "skipped", stats.Skipped, "blank", stats.Blank, "fallback", stats.Fallback)
	return stats, nil
}

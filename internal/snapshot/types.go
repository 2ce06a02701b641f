// Package snapshot persists a tag index and its records as a directory.
//
// Layout:
//
//	manifest.json  format version, embedding model, dimension, record count
//	tags.jsonl     one record per slot, in slot order
//	vectors.f32    little-endian float32, row-major, count*dim values
package snapshot

import (
	"fmt"

	"github.com/kamusis/tagsuggest/internal/search/index"
	"github.com/kamusis/tagsuggest/internal/search/store"
)

const (
	// FormatVersion is written to every manifest.
	FormatVersion = 1

	manifestFile = "manifest.json"
	metricL2     = "l2"
)

// Manifest describes a snapshot and how to interpret it.
type Manifest struct {
	IndexVersion int    `json:"index_version"`
	CreatedAt    string `json:"created_at"`
	ModelID      string `json:"model_id"`
	Dim          int    `json:"dim"`
	Normalize    bool   `json:"normalize"`
	Count        int    `json:"count"`
	Metric       string `json:"metric"`
	VectorFile   string `json:"vector_file"`
	TagsFile     string `json:"tags_file"`
}

// TagEntry is one line of tags.jsonl.
type TagEntry struct {
	Slot       int      `json:"slot"`
	SourceID   string   `json:"source_id"`
	Text       string   `json:"text"`
	Popularity *float64 `json:"popularity,omitempty"`
}

// Snapshot is a loaded or captured index.
type Snapshot struct {
	Manifest Manifest
	Records  []store.Record
	Vectors  []float32
}

// Capture copies idx and st into a Snapshot. Both must hold the same number of entries.
func Capture(idx *index.Flat, st *store.Store, modelID string, normalize bool) (*Snapshot, error) {
	vectors := idx.Vectors()
	records, err := st.Records()
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(records)*idx.Dim() {
		return nil, fmt.Errorf("cannot capture snapshot: %d vectors for %d records", len(vectors)/idx.Dim(), len(records))
	}
	return &Snapshot{
		Manifest: Manifest{
			IndexVersion: FormatVersion,
			ModelID:      modelID,
			Dim:          idx.Dim(),
			Normalize:    normalize,
			Count:        len(records),
			Metric:       metricL2,
		},
		Records: records,
		Vectors: vectors,
	}, nil
}

// Index builds a vector index from the snapshot.
func (s *Snapshot) Index() (*index.Flat, error) {
	return index.FromVectors(s.Manifest.Dim, s.Vectors)
}

// Store builds a record store from the snapshot.
func (s *Snapshot) Store() *store.Store {
	st := store.New()
	st.BulkLoad(s.Records)
	return st
}

func entriesFromRecords(records []store.Record) []TagEntry {
	out := make([]TagEntry, len(records))
	for i, r := range records {
		out[i] = TagEntry{Slot: i, SourceID: r.SourceID, Text: r.Text, Popularity: r.Popularity}
	}
	return out
}

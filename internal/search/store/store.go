// Package store keeps the tag records that belong to index slots.
package store

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/kamusis/tagsuggest/internal/search/index"
)

var (
	// ErrDuplicateSlot indicates a Put on a slot that already holds a record.
	ErrDuplicateSlot = errors.New("slot already occupied")

	// ErrUnknownSlot indicates a slot with no record.
	ErrUnknownSlot = errors.New("unknown slot")

	// ErrInvalidPopularity indicates a negative or non-finite popularity.
	ErrInvalidPopularity = errors.New("popularity must be a finite non-negative number")
)

// DefaultPopularity is used for records without a known popularity.
const DefaultPopularity = 5.0

// Record is one tag and where it came from.
type Record struct {
	SourceID   string   `json:"source_id"`
	Text       string   `json:"text"`
	Popularity *float64 `json:"popularity,omitempty"`
}

// PopularityOr returns the record popularity, or fallback when it is unknown.
func (r Record) PopularityOr(fallback float64) float64 {
	if r.Popularity == nil {
		return fallback
	}
	return *r.Popularity
}

// CheckPopularity accepts nil and finite non-negative values.
func CheckPopularity(p *float64) error {
	if p == nil {
		return nil
	}
	if v := *p; math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPopularity, v)
	}
	return nil
}

// Pop is a convenience for building records with a known popularity.
func Pop(v float64) *float64 { return &v }

// Store maps slots to records.
type Store struct {
	mu      sync.RWMutex
	records map[index.Slot]Record
}

// New returns an empty store.
func New() *Store {
	return &Store{records: make(map[index.Slot]Record)}
}

// Put stores r at slot.
func (s *Store) Put(slot index.Slot, r Record) error {
	if err := CheckPopularity(r.Popularity); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[slot]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateSlot, slot)
	}
	s.records[slot] = r
	return nil
}

// Get returns the record at slot.
func (s *Store) Get(slot index.Slot) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[slot]
	if !ok {
		return Record{}, fmt.Errorf("%w: %d", ErrUnknownSlot, slot)
	}
	return r, nil
}

// BulkLoad replaces the whole content. The record at position i gets slot i.
func (s *Store) BulkLoad(records []Record) {
	m := make(map[index.Slot]Record, len(records))
	for i, r := range records {
		m[index.Slot(i)] = r
	}
	s.mu.Lock()
	s.records = m
	s.mu.Unlock()
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns every record in slot order. It fails if the slots are not dense.
func (s *Store) Records() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	for i := range out {
		r, ok := s.records[index.Slot(i)]
		if !ok {
			return nil, fmt.Errorf("%w: %d (store has a gap)", ErrUnknownSlot, i)
		}
		out[i] = r
	}
	return out, nil
}

// Package popularity loads historical query popularity tables.
//
// A table is a tab-separated file with a header row naming at least the columns
// "query" and "query_popularity". A backslash escapes the next character and a
// field may be wrapped in double quotes. Files ending in .gz or .zst are
// decompressed on the fly.
package popularity

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrNotFound indicates a query absent from the table.
	ErrNotFound = errors.New("query not found in popularity table")

	// ErrAmbiguous indicates a query listed more than once.
	ErrAmbiguous = errors.New("query listed more than once in popularity table")
)

const (
	queryColumn      = "query"
	popularityColumn = "query_popularity"
)

// Table maps queries to their popularity.
type Table struct {
	values map[string][]float64
	order  []string
}

// New returns an empty table.
func New() *Table {
	return &Table{values: make(map[string][]float64)}
}

// Add records one row. Repeated queries make later lookups ambiguous.
func (t *Table) Add(query string, popularity float64) {
	if _, ok := t.values[query]; !ok {
		t.order = append(t.order, query)
	}
	t.values[query] = append(t.values[query], popularity)
}

// Lookup returns the popularity of query.
func (t *Table) Lookup(query string) (float64, error) {
	vals := t.values[query]
	switch len(vals) {
	case 0:
		return 0, fmt.Errorf("%w: %q", ErrNotFound, query)
	case 1:
		return vals[0], nil
	default:
		return 0, fmt.Errorf("%w: %q (%d rows)", ErrAmbiguous, query, len(vals))
	}
}

// Queries returns the distinct queries in file order.
func (t *Table) Queries() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of distinct queries.
func (t *Table) Len() int { return len(t.order) }

// Load reads a table from path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open popularity table %s: %w", path, err)
	}
	defer f.Close()

	r, closeFn, err := decompress(path, f)
	if err != nil {
		return nil, fmt.Errorf("cannot decompress popularity table %s: %w", path, err)
	}
	defer closeFn()

	t, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("popularity table %s: %w", path, err)
	}
	return t, nil
}

func decompress(path string, r io.Reader) (io.Reader, func(), error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, func() {}, err
		}
		return zr, func() { _ = zr.Close() }, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, func() {}, err
		}
		return zr, zr.Close, nil
	default:
		return r, func() {}, nil
	}
}

// Read parses an uncompressed table from r.
func Read(r io.Reader) (*Table, error) {
	rows := newRowReader(r)

	header, err := rows.next()
	if err == io.EOF {
		return nil, fmt.Errorf("empty table")
	}
	if err != nil {
		return nil, err
	}
	qi, pi := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case queryColumn:
			qi = i
		case popularityColumn:
			pi = i
		}
	}
	if qi < 0 || pi < 0 {
		return nil, fmt.Errorf("header must name %q and %q columns, got %q", queryColumn, popularityColumn, header)
	}

	t := New()
	for {
		row, err := rows.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 1 && row[0] == "" {
			continue
		}
		if qi >= len(row) || pi >= len(row) {
			return nil, fmt.Errorf("line %d: expected at least %d columns, got %d", rows.line, max(qi, pi)+1, len(row))
		}
		pop, err := strconv.ParseFloat(strings.TrimSpace(row[pi]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid popularity %q: %w", rows.line, row[pi], err)
		}
		if math.IsNaN(pop) || math.IsInf(pop, 0) || pop < 0 {
			return nil, fmt.Errorf("line %d: invalid popularity %q: must be a finite non-negative number", rows.line, row[pi])
		}
		t.Add(row[qi], pop)
	}
	return t, nil
}

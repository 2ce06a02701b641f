package snapshot

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kamusis/tagsuggest/internal/search/store"
)

// Load reads a snapshot from dir containing manifest + tags + vectors.
// A missing manifest yields an error wrapping os.ErrNotExist.
func Load(dir string) (*Snapshot, error) {
	m, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	records, err := loadTags(filepath.Join(dir, m.TagsFile))
	if err != nil {
		return nil, err
	}
	if len(records) != m.Count {
		return nil, fmt.Errorf("tags file has %d records, manifest says %d", len(records), m.Count)
	}
	vectors, err := loadVectors(filepath.Join(dir, m.VectorFile), len(records), m.Dim)
	if err != nil {
		return nil, err
	}

	return &Snapshot{Manifest: *m, Records: records, Vectors: vectors}, nil
}

// LoadManifest reads and validates manifest.json only.
func LoadManifest(dir string) (*Manifest, error) {
	manifestPath := filepath.Join(dir, manifestFile)
	b, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %s: %w", manifestPath, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON %s: %w", manifestPath, err)
	}
	if m.Dim <= 0 {
		return nil, fmt.Errorf("invalid dim in manifest: %d", m.Dim)
	}
	if m.Count < 0 {
		return nil, fmt.Errorf("invalid count in manifest: %d", m.Count)
	}
	if m.Metric != "" && m.Metric != metricL2 {
		return nil, fmt.Errorf("unsupported metric in manifest: %q", m.Metric)
	}
	if m.IndexVersion > FormatVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d", m.IndexVersion, FormatVersion)
	}
	if m.VectorFile == "" {
		m.VectorFile = "vectors.f32"
	}
	if m.TagsFile == "" {
		m.TagsFile = "tags.jsonl"
	}
	return &m, nil
}

func loadTags(path string) ([]store.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open tags file %s: %w", path, err)
	}
	defer f.Close()

	var out []store.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e TagEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("invalid tags JSONL %s: %w", path, err)
		}
		if e.Slot != len(out) {
			return nil, fmt.Errorf("tags file %s out of order: got slot %d at position %d", path, e.Slot, len(out))
		}
		out = append(out, store.Record{SourceID: e.SourceID, Text: e.Text, Popularity: e.Popularity})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read tags file %s: %w", path, err)
	}
	return out, nil
}

func loadVectors(path string, nTags, dim int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open vector file %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat vector file %s: %w", path, err)
	}
	if st.Size()%4 != 0 {
		return nil, fmt.Errorf("vector file size is not multiple of 4 bytes: %d", st.Size())
	}

	expected := int64(nTags) * int64(dim) * 4
	if expected != st.Size() {
		return nil, fmt.Errorf("vector file size mismatch: got %d want %d (tags=%d dim=%d)", st.Size(), expected, nTags, dim)
	}

	out := make([]float32, nTags*dim)
	if err := binary.Read(io.LimitReader(f, expected), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("cannot read vectors from %s: %w", path, err)
	}
	return out, nil
}

package snapshot

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Write writes snapshot artifacts to dir.
func Write(dir string, s *Snapshot) error {
	manifest := s.Manifest
	if manifest.Dim <= 0 {
		return fmt.Errorf("invalid dim: %d", manifest.Dim)
	}
	if len(s.Vectors) != len(s.Records)*manifest.Dim {
		return fmt.Errorf("vector length mismatch: got %d want %d", len(s.Vectors), len(s.Records)*manifest.Dim)
	}
	manifest.Count = len(s.Records)
	if manifest.IndexVersion == 0 {
		manifest.IndexVersion = FormatVersion
	}
	if manifest.Metric == "" {
		manifest.Metric = metricL2
	}
	if manifest.VectorFile == "" {
		manifest.VectorFile = "vectors.f32"
	}
	if manifest.TagsFile == "" {
		manifest.TagsFile = "tags.jsonl"
	}
	if manifest.CreatedAt == "" {
		manifest.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create snapshot dir %s: %w", dir, err)
	}

	// tags jsonl
	tf, err := os.Create(filepath.Join(dir, manifest.TagsFile))
	if err != nil {
		return fmt.Errorf("cannot create tags file: %w", err)
	}
	bw := bufio.NewWriter(tf)
	for _, e := range entriesFromRecords(s.Records) {
		line, err := json.Marshal(e)
		if err != nil {
			_ = tf.Close()
			return err
		}
		if _, err := bw.Write(line); err != nil {
			_ = tf.Close()
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			_ = tf.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = tf.Close()
		return err
	}
	if err := tf.Close(); err != nil {
		return err
	}

	// vectors
	vf, err := os.Create(filepath.Join(dir, manifest.VectorFile))
	if err != nil {
		return fmt.Errorf("cannot create vectors file: %w", err)
	}
	bv := bufio.NewWriter(vf)
	if err := binary.Write(bv, binary.LittleEndian, s.Vectors); err != nil {
		_ = vf.Close()
		return fmt.Errorf("cannot write vectors: %w", err)
	}
	if err := bv.Flush(); err != nil {
		_ = vf.Close()
		return fmt.Errorf("cannot write vectors: %w", err)
	}
	if err := vf.Close(); err != nil {
		return err
	}

	// manifest last, so a partial directory never looks complete
	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}
	return nil
}

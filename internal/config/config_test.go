package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Suggest.TopN != 10 || cfg.Suggest.PoolSize != 30 {
		t.Fatalf("unexpected suggest defaults: %+v", cfg.Suggest)
	}
	if cfg.IndexPath != filepath.Join(home, ".tagsuggest", "index") {
		t.Fatalf("unexpected index path: %s", cfg.IndexPath)
	}
}

func TestLoadFile_PartialOverridesAndTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p := filepath.Join(t.TempDir(), "config.yaml")
	body := "index_path: ~/tags\nsuggest:\n  top_n: 3\npopulate:\n  table: ~/data/query_popularity.tsv.gz\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.IndexPath != filepath.Join(home, "tags") {
		t.Fatalf("tilde not expanded: %s", cfg.IndexPath)
	}
	if cfg.Suggest.TopN != 3 || cfg.Suggest.PoolSize != 30 {
		t.Fatalf("unexpected suggest config: %+v", cfg.Suggest)
	}
	if cfg.Populate.CloseThreshold != 0.15 {
		t.Fatalf("default close threshold lost: %v", cfg.Populate.CloseThreshold)
	}
	if cfg.Populate.Table != filepath.Join(home, "data", "query_popularity.tsv.gz") {
		t.Fatalf("table path not expanded: %s", cfg.Populate.Table)
	}
}

func TestLoadFile_RejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte("suggest:\n  pool_size: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(p); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Lexicon.StopWords = []string{"cheap"}
	cfg.Log.Level = "debug"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Log.Level != "debug" || len(got.Lexicon.StopWords) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

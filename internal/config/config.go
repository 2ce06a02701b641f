package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SuggestConfig tunes suggestion requests.
type SuggestConfig struct {
	TopN             int     `yaml:"top_n"`
	PoolSize         int     `yaml:"pool_size"`
	PopularityWeight float64 `yaml:"popularity_weight"`
}

// PopulateConfig tunes history ingestion.
type PopulateConfig struct {
	CloseThreshold     float64 `yaml:"close_threshold"`
	FallbackPopularity float64 `yaml:"fallback_popularity"`
	Table              string  `yaml:"table,omitempty"`
}

// LexiconConfig selects the stop list and the lemma dictionary.
// Empty lists fall back to the built-in defaults.
type LexiconConfig struct {
	StopWords   []string `yaml:"stop_words,omitempty"`
	Punctuation []string `yaml:"punctuation,omitempty"`
	LemmaDict   string   `yaml:"lemma_dict,omitempty"`
}

// LogConfig sets the log level (debug, info, warn, error).
type LogConfig struct {
	Level string `yaml:"level"`
}

// Config is the in-memory representation of ~/.tagsuggest/config.yaml.
type Config struct {
	IndexPath string         `yaml:"index_path"`
	Suggest   SuggestConfig  `yaml:"suggest"`
	Populate  PopulateConfig `yaml:"populate"`
	Lexicon   LexiconConfig  `yaml:"lexicon"`
	Log       LogConfig      `yaml:"log"`
}

// AppDir returns the absolute path to ~/.tagsuggest/.
func AppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tagsuggest"), nil
}

// ConfigPath returns the absolute path to ~/.tagsuggest/config.yaml.
func ConfigPath() (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the default Config written on first tagsuggest init.
func DefaultConfig() (*Config, error) {
	dir, err := AppDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		IndexPath: filepath.Join(dir, "index"),
		Suggest: SuggestConfig{
			TopN:             10,
			PoolSize:         30,
			PopularityWeight: 0.3,
		},
		Populate: PopulateConfig{
			CloseThreshold:     0.15,
			FallbackPopularity: 5,
		},
		Log: LogConfig{Level: "info"},
	}, nil
}

// Load reads ~/.tagsuggest/config.yaml. A missing file yields the defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig()
	}
	return cfg, err
}

// LoadFile reads and parses the config at path. Keys absent from the file keep
// their default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	// Expand ~ in paths at load time.
	for _, p := range []*string{&cfg.IndexPath, &cfg.Populate.Table, &cfg.Lexicon.LemmaDict} {
		if *p, err = ExpandPath(*p); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.IndexPath) == "" {
		return fmt.Errorf("index_path is required")
	}
	if c.Suggest.TopN <= 0 {
		return fmt.Errorf("suggest.top_n must be positive, got %d", c.Suggest.TopN)
	}
	if c.Suggest.PoolSize <= 0 {
		return fmt.Errorf("suggest.pool_size must be positive, got %d", c.Suggest.PoolSize)
	}
	if c.Populate.CloseThreshold < 0 {
		return fmt.Errorf("populate.close_threshold must not be negative, got %g", c.Populate.CloseThreshold)
	}
	return nil
}

// Save marshals cfg and writes it to ~/.tagsuggest/config.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile marshals cfg and writes it to path.
func SaveFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

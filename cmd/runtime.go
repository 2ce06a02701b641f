package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kamusis/tagsuggest/internal/config"
	"github.com/kamusis/tagsuggest/internal/embeddings"
	"github.com/kamusis/tagsuggest/internal/lexicon"
	"github.com/kamusis/tagsuggest/internal/logger"
	"github.com/kamusis/tagsuggest/internal/search"
	"github.com/kamusis/tagsuggest/internal/search/index"
	"github.com/kamusis/tagsuggest/internal/search/store"
	"github.com/kamusis/tagsuggest/internal/snapshot"
)

// lockTimeout bounds how long writers wait for another process to finish.
const lockTimeout = 30 * time.Second

// loadConfig reads the config selected by --config and applies the log level.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'tagsuggest init' first.", err)
	}
	if flagDebug {
		logger.SetLevel("debug")
	} else {
		logger.SetLevel(cfg.Log.Level)
	}
	return cfg, nil
}

// newNormalizer builds the lexical analyzer described by cfg.Lexicon.
func newNormalizer(cfg *config.Config) (*lexicon.Normalizer, error) {
	opts := lexicon.DefaultOptions()
	if len(cfg.Lexicon.StopWords) > 0 {
		opts.StopWords = cfg.Lexicon.StopWords
	}
	if len(cfg.Lexicon.Punctuation) > 0 {
		opts.Punctuation = cfg.Lexicon.Punctuation
	}
	var lem lexicon.Lemmatizer
	if cfg.Lexicon.LemmaDict != "" {
		d, err := lexicon.LoadDictionary(cfg.Lexicon.LemmaDict)
		if err != nil {
			return nil, err
		}
		lem = d
	}
	return lexicon.NewNormalizer(lem, opts), nil
}

func newProvider() (embeddings.Provider, error) {
	embCfg, err := embeddings.LoadConfig()
	if err != nil {
		return nil, err
	}
	return embeddings.NewFromConfig(embCfg)
}

func searchOptions(cfg *config.Config) search.Options {
	return search.Options{
		TopN:               cfg.Suggest.TopN,
		PoolSize:           cfg.Suggest.PoolSize,
		PopularityWeight:   cfg.Suggest.PopularityWeight,
		CloseThreshold:     float32(cfg.Populate.CloseThreshold),
		FallbackPopularity: cfg.Populate.FallbackPopularity,
	}
}

// engine bundles everything a command needs to suggest or ingest tags.
type engine struct {
	cfg       *config.Config
	provider  embeddings.Provider
	suggester *search.Suggester
	manifest  *snapshot.Manifest // nil when the index was created empty
}

// openEngine loads the snapshot at cfg.IndexPath. When allowEmpty is set a missing
// snapshot yields an empty index sized for the provider; fresh ignores any
// existing snapshot.
func openEngine(cfg *config.Config, allowEmpty, fresh bool) (*engine, error) {
	prov, err := newProvider()
	if err != nil {
		return nil, err
	}
	an, err := newNormalizer(cfg)
	if err != nil {
		return nil, err
	}
	l := logger.New("tagsuggest")

	var snap *snapshot.Snapshot
	if !fresh {
		snap, err = snapshot.Load(cfg.IndexPath)
		if err != nil && !(allowEmpty && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("cannot load index: %w", err)
		}
	}

	var (
		idx *index.Flat
		st  *store.Store
	)
	if snap != nil {
		if snap.Manifest.ModelID != prov.ModelID() {
			return nil, fmt.Errorf("embeddings model mismatch: index=%s provider=%s (index dir %s)", snap.Manifest.ModelID, prov.ModelID(), cfg.IndexPath)
		}
		if idx, err = snap.Index(); err != nil {
			return nil, err
		}
		st = snap.Store()
		l.Debug("index loaded", "dir", cfg.IndexPath, "count", snap.Manifest.Count, "dim", snap.Manifest.Dim)
	} else {
		if prov.Dim() <= 0 {
			return nil, fmt.Errorf("cannot create an empty index: embedding dimension unknown (set TAGSUGGEST_EMBEDDINGS_DIM)")
		}
		if idx, err = index.NewFlat(prov.Dim()); err != nil {
			return nil, err
		}
		st = store.New()
		l.Debug("starting with an empty index", "dir", cfg.IndexPath, "dim", prov.Dim())
	}

	e := &engine{
		cfg:       cfg,
		provider:  prov,
		suggester: search.New(idx, st, prov, an, searchOptions(cfg), l),
	}
	if snap != nil {
		e.manifest = &snap.Manifest
	}
	return e, nil
}

// save writes the current index atomically to cfg.IndexPath.
func (e *engine) save() error {
	snap, err := snapshot.Capture(e.suggester.Index(), e.suggester.Store(), e.provider.ModelID(), embeddings.IsNormalized(e.provider))
	if err != nil {
		return err
	}
	if err := snapshot.Save(e.cfg.IndexPath, snap); err != nil {
		return err
	}
	return nil
}

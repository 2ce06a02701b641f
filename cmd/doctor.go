package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/tagsuggest/internal/config"
	"github.com/kamusis/tagsuggest/internal/embeddings"
	"github.com/kamusis/tagsuggest/internal/lexicon"
	"github.com/kamusis/tagsuggest/internal/popularity"
	"github.com/kamusis/tagsuggest/internal/snapshot"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that tagsuggest's config, embeddings settings, tag index and lexicon
files are usable. Run this command when something seems wrong, or before
filing a bug report.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("tagsuggest doctor")
	fmt.Println()

	// ── Check 1: config.yaml ──────────────────────────────────────────────────
	fmt.Println("[ config ]")
	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath, _ = config.ConfigPath()
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		printWarn("", fmt.Sprintf("%s not found; using defaults (run 'tagsuggest init')", cfgPath))
	}
	cfg, loadErr := loadConfig()
	if loadErr != nil {
		failD("%v", loadErr)
	} else {
		printOK("", fmt.Sprintf("top_n=%d pool_size=%d popularity_weight=%g", cfg.Suggest.TopN, cfg.Suggest.PoolSize, cfg.Suggest.PopularityWeight))
		printOK("", fmt.Sprintf("close_threshold=%g fallback_popularity=%g", cfg.Populate.CloseThreshold, cfg.Populate.FallbackPopularity))
	}
	fmt.Println()

	// ── Check 2: embeddings ───────────────────────────────────────────────────
	fmt.Println("[ embeddings ]")
	var prov embeddings.Provider
	embCfg, err := embeddings.LoadConfig()
	if err != nil {
		failD("%v", err)
	} else if prov, err = embeddings.NewFromConfig(embCfg); err != nil {
		failD("%v", err)
	} else {
		printOK("", fmt.Sprintf("provider %s, model %s", embCfg.Provider, prov.ModelID()))
		if prov.Dim() > 0 {
			printOK("", fmt.Sprintf("dimension %d", prov.Dim()))
		} else {
			printWarn("", "dimension unknown until first request; set TAGSUGGEST_EMBEDDINGS_DIM to create an empty index")
		}
		if embCfg.Rate > 0 {
			printInfo("", fmt.Sprintf("rate limited to %g requests/s", embCfg.Rate))
		}
	}
	fmt.Println()

	// ── Check 3: index snapshot ───────────────────────────────────────────────
	fmt.Println("[ index ]")
	if loadErr == nil {
		snap, err := snapshot.Load(cfg.IndexPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			printMiss("", fmt.Sprintf("no index at %s (run 'tagsuggest populate')", cfg.IndexPath))
		case err != nil:
			failD("index unreadable: %v", err)
		default:
			m := snap.Manifest
			printOK("", fmt.Sprintf("%d tags, dim %d, model %s", m.Count, m.Dim, m.ModelID))
			if prov != nil && prov.ModelID() != m.ModelID {
				failD("model mismatch: index built with %s, provider is %s", m.ModelID, prov.ModelID())
			}
			if prov != nil && prov.Dim() > 0 && prov.Dim() != m.Dim {
				failD("dimension mismatch: index %d, provider %d", m.Dim, prov.Dim())
			}
		}
		if _, err := os.Stat(snapshot.LockPath(cfg.IndexPath)); err == nil {
			printInfo("", fmt.Sprintf("lock file present: %s", snapshot.LockPath(cfg.IndexPath)))
		}
	} else {
		printWarn("", "skipped (config not loaded)")
	}
	fmt.Println()

	// ── Check 4: lexicon ──────────────────────────────────────────────────────
	fmt.Println("[ lexicon ]")
	if loadErr == nil {
		if cfg.Lexicon.LemmaDict == "" {
			printSkip("", "no lemma dictionary; tokens are used as lemmas")
		} else if d, err := lexicon.LoadDictionary(cfg.Lexicon.LemmaDict); err != nil {
			failD("lemma dictionary: %v", err)
		} else {
			printOK("", fmt.Sprintf("lemma dictionary: %d forms (%s)", d.Len(), cfg.Lexicon.LemmaDict))
		}
		if _, err := newNormalizer(cfg); err == nil {
			printOK("", "normalizer ready")
		}
	} else {
		printWarn("", "skipped (config not loaded)")
	}
	fmt.Println()

	// ── Check 5: popularity table ─────────────────────────────────────────────
	fmt.Println("[ popularity table ]")
	switch {
	case loadErr != nil:
		printWarn("", "skipped (config not loaded)")
	case cfg.Populate.Table == "":
		printSkip("", "populate.table not set")
	default:
		path, err := config.ExpandPath(cfg.Populate.Table)
		if err != nil {
			failD("%v", err)
		} else if t, err := popularity.Load(path); err != nil {
			failD("%v", err)
		} else {
			printOK("", fmt.Sprintf("%d distinct queries (%s)", t.Len(), path))
		}
	}
	fmt.Println()

	if !allOK {
		return fmt.Errorf("doctor found problems")
	}
	fmt.Println("✓  All checks passed.")
	return nil
}

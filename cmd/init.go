package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamusis/tagsuggest/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create ~/.tagsuggest with a default config and .env template",
	Long: `Initialize ~/.tagsuggest/.

Writes config.yaml with the stock tuning and a .env template for the
embeddings provider. Existing files are left untouched. The index itself is
created by 'tagsuggest populate' or 'tagsuggest add'.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	// ── 1. Resolve ~/.tagsuggest ──────────────────────────────────────────────
	appDir, err := config.AppDir()
	if err != nil {
		return err
	}
	cfgPath := flagConfig
	if cfgPath == "" {
		if cfgPath, err = config.ConfigPath(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", appDir, err)
	}
	printOK("", fmt.Sprintf("App directory ready: %s", appDir))

	// ── 2. Write config.yaml if missing ───────────────────────────────────────
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if err := config.SaveFile(cfgPath, cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	// ── 3. Write .env template if missing ─────────────────────────────────────
	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		if err := config.EnsureDotEnvTemplate(); err != nil {
			return err
		}
		printOK("", fmt.Sprintf(".env template written: %s", envPath))
	} else {
		printSkip("", fmt.Sprintf(".env already exists: %s", envPath))
	}

	// ── 4. Make sure the index parent exists ──────────────────────────────────
	cfg, err := config.LoadFile(cfgPath)
	if err != nil {
		return err
	}
	parent := filepath.Dir(cfg.IndexPath)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", parent, err)
	}
	if _, err := os.Stat(cfg.IndexPath); os.IsNotExist(err) {
		printMiss("", fmt.Sprintf("No index yet at %s", cfg.IndexPath))
	} else {
		printOK("", fmt.Sprintf("Index present: %s", cfg.IndexPath))
	}

	fmt.Println("\n✓  tagsuggest init complete. Run 'tagsuggest doctor' to verify your environment.")
	return nil
}

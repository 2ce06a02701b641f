package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/tagsuggest/internal/search/store"
	"github.com/kamusis/tagsuggest/internal/snapshot"
)

var (
	flagAddSource     string
	flagAddPopularity float64
)

var addCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a single tag to the index",
	Long: `Embed the given text and append it to the tag index.

Without --popularity the tag is stored without a popularity and ranks with
the default value.

Example:
  tagsuggest add trail running shoes --popularity 42 --source manual-1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&flagAddSource, "source", "", "Source id stored with the tag")
	addCmd.Flags().Float64Var(&flagAddPopularity, "popularity", 0, "Popularity of the tag")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("tag text is blank")
	}

	var pop *float64
	if cmd.Flags().Changed("popularity") {
		p := flagAddPopularity
		pop = &p
		if err := store.CheckPopularity(pop); err != nil {
			return fmt.Errorf("--popularity: %w", err)
		}
	}

	unlock, err := snapshot.Lock(cfg.IndexPath, lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	e, err := openEngine(cfg, true, false)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	slot, err := e.suggester.Add(ctx, text, flagAddSource, pop)
	if err != nil {
		return err
	}
	if err := e.save(); err != nil {
		return err
	}
	printOK("", fmt.Sprintf("Added %q at slot %d (index: %d tags)", text, slot, e.suggester.Len()))
	return nil
}

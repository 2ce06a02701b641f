package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kamusis/tagsuggest/internal/config"
	"github.com/kamusis/tagsuggest/internal/popularity"
	"github.com/kamusis/tagsuggest/internal/search"
	"github.com/kamusis/tagsuggest/internal/snapshot"
)

var (
	flagPopulateTable    string
	flagPopulateQueries  string
	flagPopulateForceNew bool
)

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Ingest historical queries as tags",
	Long: `Embed historical queries and add them to the tag index.

Queries come from --queries (one per line, "-" for stdin) or, when omitted,
from the popularity table itself. Blank queries and queries that sit too close
to an existing tag are skipped. Popularity is looked up in the table; queries
without a single matching row get the fallback popularity.

The index is locked while populating and saved atomically afterwards. If the
run is interrupted, tags added so far are still saved.

Example:
  tagsuggest populate --table history.tsv.gz
  tagsuggest populate --table history.tsv --queries new.txt
  tagsuggest populate --force-new --table history.tsv.zst`,
	Args: cobra.NoArgs,
	RunE: runPopulate,
}

func init() {
	populateCmd.Flags().StringVar(&flagPopulateTable, "table", "", "Popularity table (TSV, optionally .gz or .zst); default from config")
	populateCmd.Flags().StringVar(&flagPopulateQueries, "queries", "", "File with one query per line (\"-\" for stdin)")
	populateCmd.Flags().BoolVar(&flagPopulateForceNew, "force-new", false, "Ignore the existing index and start empty")
	rootCmd.AddCommand(populateCmd)
}

func runPopulate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tablePath := flagPopulateTable
	if tablePath == "" {
		tablePath = cfg.Populate.Table
	}
	var table *popularity.Table
	if tablePath != "" {
		if tablePath, err = config.ExpandPath(tablePath); err != nil {
			return err
		}
		if table, err = popularity.Load(tablePath); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Popularity table loaded: %s (%d queries)", tablePath, table.Len()))
	}

	var queries []string
	switch {
	case flagPopulateQueries != "":
		if queries, err = readQueriesFile(flagPopulateQueries); err != nil {
			return err
		}
	case table != nil:
		queries = table.Queries()
	default:
		return fmt.Errorf("nothing to populate: pass --table or --queries (or set populate.table in config)")
	}

	unlock, err := snapshot.Lock(cfg.IndexPath, lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	e, err := openEngine(cfg, true, flagPopulateForceNew)
	if err != nil {
		return err
	}
	before := e.suggester.Len()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lookup search.PopularityLookup
	if table != nil {
		lookup = table
	}
	stats, runErr := e.suggester.PopulateFromHistory(ctx, queries, lookup)

	printSection("tagsuggest populate")
	printInfo("", fmt.Sprintf("%d queries seen", stats.Seen))
	printOK("", fmt.Sprintf("%d tags added (index: %d → %d)", stats.Added, before, e.suggester.Len()))
	if stats.Skipped > 0 {
		printSkip("", fmt.Sprintf("%d near-duplicates skipped", stats.Skipped))
	}
	if stats.Blank > 0 {
		printSkip("", fmt.Sprintf("%d blank queries skipped", stats.Blank))
	}
	if stats.Fallback > 0 {
		printWarn("", fmt.Sprintf("%d queries used the fallback popularity", stats.Fallback))
	}

	if stats.Added > 0 || flagPopulateForceNew {
		if err := e.save(); err != nil {
			if runErr != nil {
				return fmt.Errorf("%w (and save failed: %v)", runErr, err)
			}
			return err
		}
		printOK("", fmt.Sprintf("Index saved: %s", cfg.IndexPath))
	}
	if runErr != nil {
		printErr("", "populate stopped early")
		return runErr
	}
	return nil
}

// readQueriesFile reads one query per line. Blank lines are kept so that source
// ids match line positions.
func readQueriesFile(path string) ([]string, error) {
	if path == "-" {
		return readQueries(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open queries file: %w", err)
	}
	defer f.Close()
	return readQueries(f)
}

func readQueries(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if n := len(line); n > 0 && line[n-1] == '\r' {
			line = line[:n-1]
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return out, nil
}

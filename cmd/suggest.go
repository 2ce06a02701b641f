package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/tagsuggest/internal/search"
)

var (
	flagSuggestTop    int
	flagSuggestPool   int
	flagSuggestScores bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <query>",
	Short: "Suggest tags for a query",
	Long: `Retrieve the tags closest to the query, drop candidates that repeat the
query or each other, and print the rest in rank order.

Example:
  tagsuggest suggest running shoes
  tagsuggest suggest --top 5 --scores "red dress"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().IntVar(&flagSuggestTop, "top", 0, "Number of tags to return (default from config)")
	suggestCmd.Flags().IntVar(&flagSuggestPool, "pool", 0, "Number of nearest neighbours to consider (default from config)")
	suggestCmd.Flags().BoolVar(&flagSuggestScores, "scores", false, "Show popularity, distance and score per tag")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := openEngine(cfg, false, false)
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	cands, err := e.suggester.SuggestCandidates(ctx, query, flagSuggestTop, flagSuggestPool)
	if err != nil {
		return err
	}
	printSuggestions(query, cands, flagSuggestScores)
	return nil
}

func printSuggestions(query string, cands []search.Candidate, scores bool) {
	fmt.Printf("\ntagsuggest suggest %q\n\n", query)
	fmt.Printf("Tags (%d found):\n", len(cands))
	if len(cands) == 0 {
		printMiss("", "no tags survived filtering")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, c := range cands {
		if scores {
			fmt.Fprintf(w, "  %d.\t%s\t[score %.3f  pop %.1f  dist %.4f  slot %d]\n", i+1, c.Text, c.Score, c.Popularity, c.Distance, c.Slot)
			continue
		}
		fmt.Fprintf(w, "  %d.\t%s\n", i+1, c.Text)
	}
	_ = w.Flush()
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:          "tagsuggest",
	Short:        "tagsuggest — suggest de-duplicated tags for free-text queries",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `tagsuggest retrieves tags whose embeddings are closest to a query and
removes candidates that are lexical supersets, subsets or near-duplicates of
one another. The tag index lives at ~/.tagsuggest/index/ by default.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.tagsuggest/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

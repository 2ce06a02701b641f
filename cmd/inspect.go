package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/tagsuggest/internal/lexicon"
	"github.com/kamusis/tagsuggest/internal/search/index"
	"github.com/kamusis/tagsuggest/internal/snapshot"
	"github.com/kamusis/tagsuggest/internal/subsume"
)

var (
	flagInspectForms   string
	flagInspectLemmas  string
	flagInspectCompare []string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [slot]",
	Short: "Show the index manifest, a stored tag, or lexicon details",
	Long: `Display a summary of the tag index at index_path.

With a slot argument, also print the record stored at that slot.
--lemmas prints the lemma set the normalizer derives from a text, and
--forms lists lemma dictionary entries whose surface form starts with a prefix.
--compare, given twice, shows how the duplicate filter treats a pair of tags.

Example:
  tagsuggest inspect
  tagsuggest inspect 42
  tagsuggest inspect --lemmas "Red Running Shoes"
  tagsuggest inspect --forms runn
  tagsuggest inspect --compare "red shoes" --compare shoes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&flagInspectForms, "forms", "", "List dictionary forms starting with this prefix")
	inspectCmd.Flags().StringVar(&flagInspectLemmas, "lemmas", "", "Print the lemma set of this text")
	inspectCmd.Flags().StringArrayVar(&flagInspectCompare, "compare", nil, "Tag to compare; pass exactly twice")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if flagInspectLemmas != "" {
		n, err := newNormalizer(cfg)
		if err != nil {
			return err
		}
		set, err := n.Normalize(flagInspectLemmas)
		if err != nil {
			return err
		}
		printBullet(fmt.Sprintf("Lemmas of %q:", flagInspectLemmas))
		fmt.Printf("  %s\n", set)
		if stops := stopTokens(n, flagInspectLemmas); len(stops) > 0 {
			printSkip("", "stop words dropped: "+strings.Join(stops, " "))
		}
	}

	if len(flagInspectCompare) > 0 {
		if len(flagInspectCompare) != 2 {
			return fmt.Errorf("--compare needs exactly two tags, got %d", len(flagInspectCompare))
		}
		n, err := newNormalizer(cfg)
		if err != nil {
			return err
		}
		a, b := flagInspectCompare[0], flagInspectCompare[1]
		v, err := comparePair(subsume.NewFilter(n), a, b)
		if err != nil {
			return err
		}
		printBullet(fmt.Sprintf("Compare %q with %q:", a, b))
		fmt.Printf("  Lemmas:      %s  vs  %s\n", v.Comparison.Left, v.Comparison.Right)
		fmt.Printf("  Extras:      %s  vs  %s\n", v.Comparison.ExtraLeft, v.Comparison.ExtraRight)
		if v.Dominates {
			printOK("", fmt.Sprintf("%q survives when ranked above %q", a, b))
		} else {
			printSkip("", fmt.Sprintf("%q is dropped when ranked above %q", a, b))
		}
		if v.Distinct {
			printOK("", fmt.Sprintf("%q is distinct enough from query %q", b, a))
		} else {
			printSkip("", fmt.Sprintf("%q repeats query %q", b, a))
		}
	}

	if flagInspectForms != "" {
		if cfg.Lexicon.LemmaDict == "" {
			printSkip("", "no lemma dictionary configured (lexicon.lemma_dict)")
		} else {
			d, err := lexicon.LoadDictionary(cfg.Lexicon.LemmaDict)
			if err != nil {
				return err
			}
			forms := d.Forms(flagInspectForms)
			surfaces := make([]string, 0, len(forms))
			for s := range forms {
				surfaces = append(surfaces, s)
			}
			sort.Strings(surfaces)
			printBullet(fmt.Sprintf("Forms with prefix %q (%d):", flagInspectForms, len(surfaces)))
			for _, s := range surfaces {
				fmt.Printf("  %-24s → %s\n", s, forms[s])
			}
		}
	}

	if (flagInspectLemmas != "" || flagInspectForms != "" || len(flagInspectCompare) > 0) && len(args) == 0 {
		return nil
	}

	snap, err := snapshot.Load(cfg.IndexPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no index at %s\nRun 'tagsuggest populate' first.", cfg.IndexPath)
		}
		return err
	}
	m := snap.Manifest

	printSection("Index: " + cfg.IndexPath)
	fmt.Printf("  Format:      v%d\n", m.IndexVersion)
	fmt.Printf("  Created:     %s\n", m.CreatedAt)
	fmt.Printf("  Model:       %s\n", m.ModelID)
	fmt.Printf("  Dimension:   %d\n", m.Dim)
	fmt.Printf("  Normalized:  %t\n", m.Normalize)
	fmt.Printf("  Metric:      %s\n", m.Metric)
	fmt.Printf("  Tags:        %d\n", m.Count)

	var withPop int
	for _, r := range snap.Records {
		if r.Popularity != nil {
			withPop++
		}
	}
	fmt.Printf("  Popularity:  %d with value, %d default\n", withPop, len(snap.Records)-withPop)

	if len(args) == 0 {
		return nil
	}

	slot, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid slot %q: %w", args[0], err)
	}
	st := snap.Store()
	rec, err := st.Get(index.Slot(slot))
	if err != nil {
		return err
	}
	printBullet(fmt.Sprintf("Slot %d:", slot))
	fmt.Printf("  Text:        %s\n", rec.Text)
	fmt.Printf("  Source:      %s\n", emptyAsNA(rec.SourceID))
	if rec.Popularity != nil {
		fmt.Printf("  Popularity:  %g\n", *rec.Popularity)
	} else {
		fmt.Printf("  Popularity:  n/a (ranks as %g)\n", cfg.Populate.FallbackPopularity)
	}
	return nil
}

// stopTokens returns the tokens of text removed by the stop list, in order.
func stopTokens(n *lexicon.Normalizer, text string) []string {
	var out []string
	for _, tok := range strings.Fields(lexicon.Fold(text)) {
		if n.IsStopWord(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// pairVerdict is how the duplicate filter treats two tags.
type pairVerdict struct {
	Comparison subsume.Comparison
	Dominates  bool // a survives when ranked above b
	Distinct   bool // b is kept for query a
}

func comparePair(f *subsume.Filter, a, b string) (pairVerdict, error) {
	c, err := f.Preprocess(a, b)
	if err != nil {
		return pairVerdict{}, err
	}
	dom, err := f.Dominates(a, b)
	if err != nil {
		return pairVerdict{}, err
	}
	distinct, err := f.IsDistinctEnough(a, b)
	if err != nil {
		return pairVerdict{}, err
	}
	return pairVerdict{Comparison: c, Dominates: dom, Distinct: distinct}, nil
}

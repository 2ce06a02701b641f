package lexicon

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"
)

// Lemmatizer maps a surface token to its canonical dictionary form.
//
// Implementations must be deterministic and return the token unchanged when no
// canonical form is known.
type Lemmatizer interface {
	Lemmatize(token string) (string, error)
}

// Identity returns every token unchanged.
type Identity struct{}

// Lemmatize implements Lemmatizer.
func (Identity) Lemmatize(token string) (string, error) { return token, nil }

// Dictionary is a lookup lemmatizer backed by a patricia trie of surface forms.
type Dictionary struct {
	trie  *patricia.Trie
	count int
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{trie: patricia.NewTrie()}
}

// Insert registers lemma as the canonical form of surface. Both are folded.
// Later inserts for the same surface form replace earlier ones.
func (d *Dictionary) Insert(surface, lemma string) {
	surface = Fold(strings.TrimSpace(surface))
	lemma = Fold(strings.TrimSpace(lemma))
	if surface == "" || lemma == "" {
		return
	}
	if d.trie.Insert(patricia.Prefix(surface), lemma) {
		d.count++
		return
	}
	d.trie.Set(patricia.Prefix(surface), lemma)
}

// Lemmatize implements Lemmatizer.
func (d *Dictionary) Lemmatize(token string) (string, error) {
	item := d.trie.Get(patricia.Prefix(token))
	if item == nil {
		return token, nil
	}
	lemma, ok := item.(string)
	if !ok {
		return "", fmt.Errorf("dictionary entry for %q has type %T", token, item)
	}
	return lemma, nil
}

// Len returns the number of surface forms.
func (d *Dictionary) Len() int { return d.count }

// Forms returns every surface form starting with prefix, mapped to its lemma.
func (d *Dictionary) Forms(prefix string) map[string]string {
	out := make(map[string]string)
	_ = d.trie.VisitSubtree(patricia.Prefix(Fold(prefix)), func(p patricia.Prefix, item patricia.Item) error {
		if lemma, ok := item.(string); ok {
			out[string(p)] = lemma
		}
		return nil
	})
	return out
}

// LoadDictionary reads a two-column file of "surface<TAB>lemma" lines.
//
// Parsing rules:
// - Empty lines and lines starting with '#' are ignored.
// - Columns may be separated by a tab or by runs of spaces.
// - Lines with fewer than two columns are rejected.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open lemma dictionary %s: %w", path, err)
	}
	defer f.Close()

	d := NewDictionary()
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var cols []string
		if strings.Contains(text, "\t") {
			cols = strings.SplitN(text, "\t", 2)
		} else {
			cols = strings.Fields(text)
		}
		if len(cols) < 2 {
			return nil, fmt.Errorf("lemma dictionary %s:%d: expected two columns", path, line)
		}
		d.Insert(cols[0], cols[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read lemma dictionary %s: %w", path, err)
	}
	return d, nil
}

// Package lexicon turns free text into sets of normalized lemmas.
//
// A Normalizer is built once from a Lemmatizer and an explicit stop list and is
// immutable afterwards; there is no package-level analyzer state.
package lexicon

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultStopWords are commercial filler words that carry no tag meaning.
var DefaultStopWords = []string{
	"buy", "cheap", "cheaper", "cheapest", "discount", "discounts",
	"sale", "price", "prices", "order", "online", "shop", "store",
	"deal", "deals", "offer", "free", "delivery",
}

// DefaultPunctuation are stand-alone punctuation tokens dropped during normalization.
var DefaultPunctuation = []string{
	",", ".", "!", "?", ":", ";", "-", "–", "—", "/", "\\", "|",
	"(", ")", "[", "]", "\"", "'", "«", "»", "&", "+", "*", "#",
}

// Options configures a Normalizer.
type Options struct {
	StopWords   []string
	Punctuation []string
}

// DefaultOptions returns the built-in stop list.
func DefaultOptions() Options {
	return Options{
		StopWords:   append([]string(nil), DefaultStopWords...),
		Punctuation: append([]string(nil), DefaultPunctuation...),
	}
}

// Normalizer maps text to a LemmaSet.
type Normalizer struct {
	lemmatizer Lemmatizer
	stop       map[string]struct{}
}

// NewNormalizer builds a Normalizer. A nil lemmatizer means Identity.
func NewNormalizer(lem Lemmatizer, opts Options) *Normalizer {
	if lem == nil {
		lem = Identity{}
	}
	stop := make(map[string]struct{}, len(opts.StopWords)+len(opts.Punctuation))
	for _, w := range opts.StopWords {
		if w = Fold(strings.TrimSpace(w)); w != "" {
			stop[w] = struct{}{}
		}
	}
	for _, p := range opts.Punctuation {
		if p = strings.TrimSpace(p); p != "" {
			stop[p] = struct{}{}
		}
	}
	return &Normalizer{lemmatizer: lem, stop: stop}
}

// Normalize lower-cases text, splits it on whitespace, lemmatizes every token and
// drops stop words and punctuation. Empty input yields an empty set.
func (n *Normalizer) Normalize(text string) (LemmaSet, error) {
	out := make(LemmaSet)
	for _, tok := range strings.Fields(Fold(text)) {
		if n.isStop(tok) {
			continue
		}
		lemma, err := n.lemmatizer.Lemmatize(tok)
		if err != nil {
			return nil, fmt.Errorf("lemmatize %q: %w", tok, err)
		}
		if lemma == "" || n.isStop(lemma) {
			continue
		}
		out[lemma] = struct{}{}
	}
	return out, nil
}

// IsStopWord reports whether the folded token is in the stop list.
func (n *Normalizer) IsStopWord(token string) bool {
	return n.isStop(Fold(token))
}

func (n *Normalizer) isStop(tok string) bool {
	_, ok := n.stop[tok]
	return ok
}

// Fold applies NFC composition and Unicode lower-casing.
// A fresh Caser is used per call since Casers are not safe for concurrent use.
func Fold(text string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(text))
}

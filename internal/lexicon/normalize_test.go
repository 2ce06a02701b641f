package lexicon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_LowercasesSplitsAndDedupes(t *testing.T) {
	n := NewNormalizer(nil, Options{})

	got, err := n.Normalize("  Red SHOES red  shoes ")
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "shoes"}, got.Sorted())
}

func TestNormalize_EmptyInput(t *testing.T) {
	n := NewNormalizer(nil, DefaultOptions())

	for _, in := range []string{"", "   ", "\t\n"} {
		got, err := n.Normalize(in)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Len(), "input %q", in)
	}
}

func TestNormalize_DropsStopWordsAndPunctuation(t *testing.T) {
	n := NewNormalizer(nil, Options{
		StopWords:   []string{"Cheap", "discount"},
		Punctuation: []string{"-", ","},
	})

	got, err := n.Normalize("cheap running shoes - discount , nike")
	require.NoError(t, err)
	assert.Equal(t, []string{"nike", "running", "shoes"}, got.Sorted())
}

func TestNormalize_StopListAppliesToLemmas(t *testing.T) {
	d := NewDictionary()
	d.Insert("discounts", "discount")
	n := NewNormalizer(d, Options{StopWords: []string{"discount"}})

	got, err := n.Normalize("jeans discounts")
	require.NoError(t, err)
	assert.Equal(t, []string{"jeans"}, got.Sorted())
}

func TestNormalize_UsesLemmatizer(t *testing.T) {
	d := NewDictionary()
	d.Insert("shoes", "shoe")
	d.Insert("running", "run")
	n := NewNormalizer(d, Options{})

	got, err := n.Normalize("Running Shoes shoe")
	require.NoError(t, err)
	assert.Equal(t, []string{"run", "shoe"}, got.Sorted())
}

type failingLemmatizer struct{ err error }

func (f failingLemmatizer) Lemmatize(string) (string, error) { return "", f.err }

func TestNormalize_PropagatesLemmatizerError(t *testing.T) {
	boom := errors.New("analyzer down")
	n := NewNormalizer(failingLemmatizer{err: boom}, Options{})

	_, err := n.Normalize("shoes")
	require.ErrorIs(t, err, boom)
}

func TestNormalize_Deterministic(t *testing.T) {
	n := NewNormalizer(nil, DefaultOptions())

	a, err := n.Normalize("Кроссовки Nike мужские")
	require.NoError(t, err)
	b, err := n.Normalize("Кроссовки Nike мужские")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.True(t, a.Contains("кроссовки"))
}

func TestLemmaSet_Operations(t *testing.T) {
	a := NewLemmaSet("adidas", "shoes")
	b := NewLemmaSet("shoes")

	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(NewLemmaSet("shoes", "adidas", "shoes")))
	assert.Equal(t, []string{"adidas"}, a.Minus(b).Sorted())
	assert.Equal(t, 0, b.Minus(a).Len())
	assert.Equal(t, "{adidas shoes}", a.String())
}

func TestDictionary_LoadAndForms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lemmas.tsv")
	content := "# surface\tlemma\n" +
		"shoes\tshoe\n" +
		"Shoelaces   shoelace\n" +
		"\n" +
		"jeans\tjeans\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := LoadDictionary(path)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())

	lemma, err := d.Lemmatize("shoelaces")
	require.NoError(t, err)
	assert.Equal(t, "shoelace", lemma)

	lemma, err = d.Lemmatize("boots")
	require.NoError(t, err)
	assert.Equal(t, "boots", lemma, "unknown tokens are returned unchanged")

	assert.Equal(t, map[string]string{"shoes": "shoe", "shoelaces": "shoelace"}, d.Forms("sho"))
}

func TestDictionary_InsertReplaces(t *testing.T) {
	d := NewDictionary()
	d.Insert("ran", "running")
	d.Insert("ran", "run")

	lemma, err := d.Lemmatize("ran")
	require.NoError(t, err)
	assert.Equal(t, "run", lemma)
	assert.Equal(t, 1, d.Len())
}

func TestLoadDictionary_RejectsSingleColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tsv")
	require.NoError(t, os.WriteFile(path, []byte("lonely\n"), 0o644))

	_, err := LoadDictionary(path)
	require.Error(t, err)
}

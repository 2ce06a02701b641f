package popularity

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTSV = "query\tquery_popularity\n" +
	"shoes\t10\n" +
	"adidas shoes\t5\n" +
	"tab\\\tinside\t2\n" +
	"\"quoted \"\"name\"\"\"\t3.5\n" +
	"\n" +
	"shoes\t11\r\n" +
	"boots\t1"

func TestRead_ParsesRowsAndEscapes(t *testing.T) {
	tbl, err := Read(strings.NewReader(sampleTSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"shoes", "adidas shoes", "tab\tinside", `quoted "name"`, "boots"}, tbl.Queries())
	assert.Equal(t, 5, tbl.Len())

	p, err := tbl.Lookup("adidas shoes")
	require.NoError(t, err)
	assert.Equal(t, 5.0, p)

	p, err = tbl.Lookup("tab\tinside")
	require.NoError(t, err)
	assert.Equal(t, 2.0, p)

	p, err = tbl.Lookup(`quoted "name"`)
	require.NoError(t, err)
	assert.Equal(t, 3.5, p)

	p, err = tbl.Lookup("boots")
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)
}

func TestLookup_MissingAndAmbiguous(t *testing.T) {
	tbl, err := Read(strings.NewReader(sampleTSV))
	require.NoError(t, err)

	_, err = tbl.Lookup("sandals")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = tbl.Lookup("shoes")
	require.ErrorIs(t, err, ErrAmbiguous)
}

func TestRead_ColumnOrderAndExtraColumns(t *testing.T) {
	in := "id\tquery_popularity\tquery\n1\t7\tjeans\n"
	tbl, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	p, err := tbl.Lookup("jeans")
	require.NoError(t, err)
	assert.Equal(t, 7.0, p)
}

func TestRead_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"missing column": "query\tcount\nshoes\t1\n",
		"bad number":     "query\tquery_popularity\nshoes\tmany\n",
		"short row":      "query\tquery_popularity\nshoes\n",
		"nan":            "query\tquery_popularity\nshoes\tNaN\n",
		"infinite":       "query\tquery_popularity\nshoes\t+Inf\n",
		"negative":       "query\tquery_popularity\nshoes\t-7\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(in))
			require.Error(t, err)
		})
	}
}

func TestRead_RejectsNonFinitePopularity(t *testing.T) {
	in := "query\tquery_popularity\nboots\t1\nshoes\tNaN\n"
	_, err := Read(strings.NewReader(in))
	require.ErrorContains(t, err, "line 3")
	require.ErrorContains(t, err, "non-negative")
}

func TestRead_ReportsLineNumbers(t *testing.T) {
	in := "query\tquery_popularity\nok\t1\nmulti\\\nline\t2\nbad\tx\n"
	_, err := Read(strings.NewReader(in))
	require.ErrorContains(t, err, "line 5")
}

func TestLoad_Compressed(t *testing.T) {
	dir := t.TempDir()

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(sampleTSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	gzPath := filepath.Join(dir, "query_popularity.tsv.gz")
	require.NoError(t, os.WriteFile(gzPath, gz.Bytes(), 0o644))

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zstPath := filepath.Join(dir, "query_popularity.tsv.zst")
	require.NoError(t, os.WriteFile(zstPath, enc.EncodeAll([]byte(sampleTSV), nil), 0o644))
	require.NoError(t, enc.Close())

	plainPath := filepath.Join(dir, "query_popularity.tsv")
	require.NoError(t, os.WriteFile(plainPath, []byte(sampleTSV), 0o644))

	for _, p := range []string{gzPath, zstPath, plainPath} {
		tbl, err := Load(p)
		require.NoError(t, err, p)
		assert.Equal(t, 5, tbl.Len(), p)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.tsv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

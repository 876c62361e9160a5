// Package analyzertest writes small data files and builds engines for tests
// of packages that score documents.
package analyzertest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/zombar/slopscore/internal/analyzer"
	"github.com/zombar/slopscore/internal/corpus"
)

const testBaseline = `{
  "human-authored": {
    "top_bigrams": [
      {"ngram": "of the", "frequency": 50},
      {"ngram": "it was", "frequency": 30},
      {"ngram": "the cat", "frequency": 20}
    ],
    "top_trigrams": [
      {"ngram": "one of the", "frequency": 3},
      {"ngram": "it was a", "frequency": 1}
    ]
  }
}`

// WriteTestData writes a small frequency pack, baseline and lexicon into a
// temporary directory and returns their paths
func WriteTestData(t *testing.T, slopWords []string) analyzer.Paths {
	t.Helper()
	dir := t.TempDir()

	buckets := make([][]string, 700)
	buckets[200] = []string{"the", "and", "it", "was"}
	buckets[300] = []string{"cat", "day", "nice"}
	buckets[450] = []string{"tapestry", "ideas"}
	buckets[520] = []string{"delve"}
	raw, err := msgpack.Marshal([]interface{}{
		map[string]interface{}{"format": "cB", "version": 1},
		buckets,
	})
	require.NoError(t, err)
	pack, err := corpus.Gzip(raw)
	require.NoError(t, err)

	base, err := corpus.Gzip([]byte(testBaseline))
	require.NoError(t, err)

	words, err := json.Marshal(slopWords)
	require.NoError(t, err)

	paths := analyzer.Paths{
		WordFreq:     filepath.Join(dir, "large_en.msgpack.gz"),
		Baseline:     filepath.Join(dir, "human_writing_profile.json.gz"),
		SlopWords:    filepath.Join(dir, "slop_list.json"),
		SlopTrigrams: filepath.Join(dir, "slop_list_trigrams.json"),
	}
	require.NoError(t, os.WriteFile(paths.WordFreq, pack, 0o644))
	require.NoError(t, os.WriteFile(paths.Baseline, base, 0o644))
	require.NoError(t, os.WriteFile(paths.SlopWords, words, 0o644))
	require.NoError(t, os.WriteFile(paths.SlopTrigrams, []byte(`[["rich tapestry of"], "a testament to"]`), 0o644))
	return paths
}

// NewEngine returns an engine loaded from WriteTestData files with the slop
// words delve, tapestry and testament
func NewEngine(t *testing.T, opts ...analyzer.EngineOption) (*analyzer.Engine, analyzer.Paths) {
	t.Helper()
	paths := WriteTestData(t, []string{"delve", "tapestry", "testament"})
	res, err := analyzer.LoadResources(context.Background(), analyzer.Config{Paths: paths, Options: analyzer.DefaultOptions()})
	require.NoError(t, err)
	return analyzer.New(res, opts...), paths
}

package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/slopscore/internal/corpus"
)

func TestLoad(t *testing.T) {
	words := []byte(`["Delve", ["tapestry", 812], "  testament ", "123", ["", 1], {"x": 1}, "it’s"]`)
	trigrams := []byte(`["a testament to", ["in the realm of", 40], "too short"]`)

	lex, err := Load(words, trigrams)
	require.NoError(t, err)

	assert.Equal(t, 4, lex.WordCount())
	for _, w := range []string{"delve", "tapestry", "testament", "it's"} {
		assert.True(t, lex.HasWord(w), "expected %q in lexicon", w)
	}
	assert.False(t, lex.HasWord("123"))

	assert.Equal(t, 2, lex.TrigramCount())
	assert.True(t, lex.HasTrigram("a testament to"))
	assert.True(t, lex.HasTrigram("in the realm"))
	assert.False(t, lex.HasTrigram("too short"))
}

func TestLoadRejectsNonArray(t *testing.T) {
	_, err := Load([]byte(`{"words": []}`), []byte(`[]`))
	assert.ErrorIs(t, err, corpus.ErrDataFormat)

	_, err = Load([]byte(`[]`), []byte(`not json`))
	assert.ErrorIs(t, err, corpus.ErrDataFormat)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	wordsPath := filepath.Join(dir, "slop_list.json")
	trigramsPath := filepath.Join(dir, "slop_list_trigrams.json.gz")

	require.NoError(t, os.WriteFile(wordsPath, []byte(`[["delve"], ["tapestry"]]`), 0o644))
	packed, err := corpus.Gzip([]byte(`[["a testament to"]]`))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(trigramsPath, packed, 0o644))

	lex, err := LoadFiles(wordsPath, trigramsPath)
	require.NoError(t, err)
	assert.True(t, lex.HasWord("delve"))
	assert.True(t, lex.HasTrigram("a testament to"))

	_, err = LoadFiles(filepath.Join(dir, "missing.json"), trigramsPath)
	assert.ErrorIs(t, err, corpus.ErrDataFormat)
}

package slopindex

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zombar/slopscore/internal/lexicon"
	"github.com/zombar/slopscore/internal/tokenize"
)

func testLexicon() *lexicon.Lexicon {
	return lexicon.New(
		[]string{"delve", "tapestry", "testament"},
		[]string{"a testament to", "rich tapestry of"},
	)
}

func TestCompute(t *testing.T) {
	tokens := tokenize.Words("We delve into a rich tapestry of ideas. It is a testament to delve deeper.")
	result := Compute(tokens, testLexicon(), true)

	total := float64(len(tokens))
	assert.InDelta(t, 1000*4/total, result.WordScore, 1e-9)
	assert.InDelta(t, 1000*2/total, result.TrigramScore, 1e-9)

	assert.Equal(t, []Hit{
		{Phrase: "delve", Count: 2},
		{Phrase: "tapestry", Count: 1},
		{Phrase: "testament", Count: 1},
	}, result.WordHits)
	assert.Equal(t, []Hit{
		{Phrase: "rich tapestry of", Count: 1},
		{Phrase: "a testament to", Count: 1},
	}, result.TrigramHits)
}

func TestComputeWithoutTracking(t *testing.T) {
	tokens := tokenize.Words("delve delve tapestry")
	result := Compute(tokens, testLexicon(), false)
	assert.InDelta(t, 1000.0, result.WordScore, 1e-9)
	assert.Empty(t, result.WordHits)
	assert.Empty(t, result.TrigramHits)
}

func TestComputeEmpty(t *testing.T) {
	result := Compute(nil, testLexicon(), true)
	assert.Zero(t, result.WordScore)
	assert.Zero(t, result.TrigramScore)
	assert.NotNil(t, result.WordHits)
	assert.Empty(t, result.WordHits)
	assert.Empty(t, result.TrigramHits)
}

func TestComputeNoHitsScoresZero(t *testing.T) {
	tokens := tokenize.Words("The cat sat on the mat. It was a nice day.")
	result := Compute(tokens, testLexicon(), true)
	assert.Zero(t, result.WordScore)
	assert.Zero(t, result.TrigramScore)
}

func TestComputeExactRate(t *testing.T) {
	// 1000 tokens with one flagged word repeated exactly 50 times.
	tokens := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		if i%20 == 0 {
			tokens = append(tokens, "delve")
		} else {
			tokens = append(tokens, fmt.Sprintf("filler%c", 'a'+rune(i%26)))
		}
	}

	result := Compute(tokens, testLexicon(), true)
	assert.Equal(t, 50.0, result.WordScore)
	assert.Equal(t, []Hit{{Phrase: "delve", Count: 50}}, result.WordHits)
}

func TestComputeScoresNonNegative(t *testing.T) {
	inputs := []string{"", "delve", "a testament to nothing", "plain words only"}
	for _, in := range inputs {
		result := Compute(tokenize.Words(in), testLexicon(), false)
		assert.GreaterOrEqual(t, result.WordScore, 0.0)
		assert.GreaterOrEqual(t, result.TrigramScore, 0.0)
	}
}

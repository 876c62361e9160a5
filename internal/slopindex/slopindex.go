// Package slopindex scores a token stream by how often it hits the slop
// lexicon, per thousand tokens.
package slopindex

import (
	"sort"
	"strings"

	"github.com/zombar/slopscore/internal/lexicon"
)

// Hit is a lexicon entry found in the tokens and how often it occurred.
type Hit struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// Result holds both scores and, when requested, the hit breakdowns.
type Result struct {
	WordScore    float64
	TrigramScore float64
	WordHits     []Hit
	TrigramHits  []Hit
}

// Compute scores tokens against lex. Scores are hits per 1000 tokens; no
// tokens means zero scores and empty hit lists.
func Compute(tokens []string, lex *lexicon.Lexicon, trackHits bool) Result {
	result := Result{WordHits: []Hit{}, TrigramHits: []Hit{}}
	if len(tokens) == 0 || lex == nil {
		return result
	}

	words := newCounter(trackHits)
	for _, tok := range tokens {
		if lex.HasWord(tok) {
			words.add(tok)
		}
	}

	trigrams := newCounter(trackHits)
	for i := 0; i+3 <= len(tokens); i++ {
		tri := strings.Join(tokens[i:i+3], " ")
		if lex.HasTrigram(tri) {
			trigrams.add(tri)
		}
	}

	total := float64(len(tokens))
	result.WordScore = 1000 * float64(words.total) / total
	result.TrigramScore = 1000 * float64(trigrams.total) / total
	if trackHits {
		result.WordHits = words.sorted()
		result.TrigramHits = trigrams.sorted()
	}
	return result
}

// counter tallies hits and remembers first-occurrence order for ties.
type counter struct {
	total  int
	track  bool
	counts map[string]int
	order  []string
}

func newCounter(track bool) *counter {
	return &counter{track: track, counts: make(map[string]int)}
}

func (c *counter) add(phrase string) {
	c.total++
	if !c.track {
		return
	}
	if _, seen := c.counts[phrase]; !seen {
		c.order = append(c.order, phrase)
	}
	c.counts[phrase]++
}

func (c *counter) sorted() []Hit {
	hits := make([]Hit, 0, len(c.order))
	for _, phrase := range c.order {
		hits = append(hits, Hit{Phrase: phrase, Count: c.counts[phrase]})
	}
	// Stable keeps first-occurrence order among equal counts.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Count > hits[j].Count
	})
	return hits
}

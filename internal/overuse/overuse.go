// Package overuse ranks a document's n-grams by how much more often they
// appear than in a reference distribution.
package overuse

import (
	"sort"

	"github.com/zombar/slopscore/internal/baseline"
	"github.com/zombar/slopscore/internal/tokenize"
	"github.com/zombar/slopscore/internal/wordfreq"
)

const epsilon = 1e-12

// Entry is one ranked n-gram.
type Entry struct {
	NGram string  `json:"ngram"`
	Ratio float64 `json:"ratio"`
	Count int     `json:"count"`
}

// RankWithCounts counts ngrams and ranks them by modelFreq / baselineFreq,
// descending, keeping at most topK (topK <= 0 keeps all). N-grams missing
// from the baseline are scored against its smallest positive probability so
// that unseen phrases rank high without dividing by zero. Equal ratios are
// ordered by n-gram.
func RankWithCounts(ngrams []string, reference map[string]float64, topK int) []Entry {
	return RankAgainst(ngrams, reference, baseline.SmallestPositive(reference), topK)
}

// RankAgainst is RankWithCounts with the fallback probability for unseen
// n-grams supplied by the caller, typically computed once per baseline.
func RankAgainst(ngrams []string, reference map[string]float64, floor float64, topK int) []Entry {
	if len(ngrams) == 0 {
		return []Entry{}
	}

	counts := make(map[string]int, len(ngrams))
	for _, g := range ngrams {
		counts[g]++
	}

	total := float64(len(ngrams))

	entries := make([]Entry, 0, len(counts))
	for g, count := range counts {
		base, ok := reference[g]
		if !ok || base <= 0 {
			base = floor
		}
		modelFreq := float64(count) / total
		entries = append(entries, Entry{
			NGram: g,
			Ratio: modelFreq / (base + epsilon),
			Count: count,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Ratio != entries[j].Ratio {
			return entries[i].Ratio > entries[j].Ratio
		}
		return entries[i].NGram < entries[j].NGram
	})

	if topK > 0 && len(entries) > topK {
		entries = entries[:topK]
	}
	return entries
}

// RankWords ranks the content words of tokens against the general word
// frequency table. Words the table does not know are skipped, since their
// ratio would only reflect vocabulary gaps.
func RankWords(tokens []string, freq *wordfreq.Table, topK int) []Entry {
	if freq == nil {
		return []Entry{}
	}
	content := tokenize.ContentTokens(tokens)

	known := make([]string, 0, len(content))
	reference := make(map[string]float64)
	for _, w := range content {
		f, seen := reference[w]
		if !seen {
			f = freq.Frequency(w)
			reference[w] = f
		}
		if f > 0 {
			known = append(known, w)
		}
	}
	for w, f := range reference {
		if f <= 0 {
			delete(reference, w)
		}
	}
	return RankWithCounts(known, reference, topK)
}

// RepetitionScore is the number of repeated (count >= 2) occurrences among the
// ranked n-grams per 1000 tokens.
func RepetitionScore(entries []Entry, totalTokens int) float64 {
	if totalTokens == 0 {
		return 0
	}
	repeated := 0
	for _, e := range entries {
		if e.Count >= 2 {
			repeated += e.Count
		}
	}
	return 1000 * float64(repeated) / float64(totalTokens)
}

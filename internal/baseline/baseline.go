// Package baseline loads the human-authored n-gram corpus into normalized
// bigram and trigram probability tables.
package baseline

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/zombar/slopscore/internal/corpus"
	"github.com/zombar/slopscore/internal/tokenize"
)

// Table holds the bigram and trigram probabilities. Each map sums to 1 over
// the entries that survived loading. Read-only after Load.
type Table struct {
	bigrams      map[string]float64
	trigrams     map[string]float64
	bigramFloor  float64
	trigramFloor float64
}

type entry struct {
	NGram     json.RawMessage `json:"ngram"`
	Frequency *float64        `json:"frequency"`
	Count     *float64        `json:"count"`
}

type section struct {
	TopBigrams  []entry `json:"top_bigrams"`
	Bigrams     []entry `json:"bigrams"`
	TopTrigrams []entry `json:"top_trigrams"`
	Trigrams    []entry `json:"trigrams"`
}

var sectionKeys = []string{"human-authored", "human"}

// LoadFile reads and decodes a baseline corpus file.
func LoadFile(path string) (*Table, error) {
	data, err := corpus.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return load(path, data)
}

// Load decodes (optionally gzip-compressed) baseline JSON.
func Load(data []byte) (*Table, error) {
	return load("baseline", data)
}

func load(source string, data []byte) (*Table, error) {
	raw, err := corpus.Decompress(source, data)
	if err != nil {
		return nil, err
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, corpus.Errorf(source, err, "invalid baseline JSON")
	}

	body := json.RawMessage(raw)
	for _, key := range sectionKeys {
		if nested, ok := root[key]; ok {
			body = nested
			break
		}
	}

	var sec section
	if err := json.Unmarshal(body, &sec); err != nil {
		return nil, corpus.Errorf(source, err, "invalid baseline section")
	}

	bigramEntries := sec.TopBigrams
	if bigramEntries == nil {
		bigramEntries = sec.Bigrams
	}
	trigramEntries := sec.TopTrigrams
	if trigramEntries == nil {
		trigramEntries = sec.Trigrams
	}
	if len(bigramEntries) == 0 && len(trigramEntries) == 0 {
		return nil, corpus.Errorf(source, nil, "no bigram or trigram lists found")
	}

	t := &Table{
		bigrams:  normalizeEntries(bigramEntries),
		trigrams: normalizeEntries(trigramEntries),
	}
	t.bigramFloor = SmallestPositive(t.bigrams)
	t.trigramFloor = SmallestPositive(t.trigrams)
	return t, nil
}

// SmallestPositive returns the smallest value above zero in table, or 0
// when there is none.
func SmallestPositive(table map[string]float64) float64 {
	lowest := math.Inf(1)
	for _, v := range table {
		if v > 0 && v < lowest {
			lowest = v
		}
	}
	if math.IsInf(lowest, 1) {
		return 0
	}
	return lowest
}

// normalizeEntries keys each entry by its space-joined alphabetic tokens and
// divides by the total so the values form a probability distribution.
func normalizeEntries(entries []entry) map[string]float64 {
	counts := make(map[string]float64, len(entries))
	total := 0.0
	for _, e := range entries {
		key, ok := ngramKey(e.NGram)
		if !ok {
			continue
		}
		freq := 0.0
		switch {
		case e.Frequency != nil:
			freq = *e.Frequency
		case e.Count != nil:
			freq = *e.Count
		}
		if freq <= 0 {
			continue
		}
		counts[key] += freq
		total += freq
	}

	if total == 0 {
		return map[string]float64{}
	}
	for key := range counts {
		counts[key] /= total
	}
	return counts
}

func ngramKey(raw json.RawMessage) (string, bool) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var parts []string
		if err := json.Unmarshal(raw, &parts); err != nil {
			return "", false
		}
		text = strings.Join(parts, " ")
	}

	tokens := tokenize.AlphaTokens(tokenize.Words(text))
	if len(tokens) < 2 {
		return "", false
	}
	return strings.Join(tokens, " "), true
}

// Bigram returns the probability of a space-joined bigram, 0 when absent.
func (t *Table) Bigram(ngram string) float64 {
	return t.bigrams[ngram]
}

// Trigram returns the probability of a space-joined trigram, 0 when absent.
func (t *Table) Trigram(ngram string) float64 {
	return t.trigrams[ngram]
}

// BigramFloor is the smallest positive bigram probability, used for bigrams
// the corpus never saw.
func (t *Table) BigramFloor() float64 {
	return t.bigramFloor
}

// TrigramFloor is the smallest positive trigram probability.
func (t *Table) TrigramFloor() float64 {
	return t.trigramFloor
}

// Bigrams returns the bigram table. Callers must not modify it.
func (t *Table) Bigrams() map[string]float64 {
	return t.bigrams
}

// Trigrams returns the trigram table. Callers must not modify it.
func (t *Table) Trigrams() map[string]float64 {
	return t.trigrams
}

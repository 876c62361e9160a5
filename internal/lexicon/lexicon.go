// Package lexicon loads the word and trigram lists flagged as overused in
// machine-generated prose.
package lexicon

import (
	"encoding/json"
	"strings"

	"github.com/zombar/slopscore/internal/corpus"
	"github.com/zombar/slopscore/internal/tokenize"
)

// Lexicon is an immutable set of flagged words and trigram phrases.
type Lexicon struct {
	words    map[string]struct{}
	trigrams map[string]struct{}
}

// New builds a lexicon from in-memory lists. Entries are normalized the same
// way file entries are.
func New(words, trigrams []string) *Lexicon {
	lex := &Lexicon{
		words:    make(map[string]struct{}, len(words)),
		trigrams: make(map[string]struct{}, len(trigrams)),
	}
	for _, w := range words {
		if phrase, ok := firstRun(w, 1); ok {
			lex.words[phrase] = struct{}{}
		}
	}
	for _, tri := range trigrams {
		if phrase, ok := firstRun(tri, 3); ok {
			lex.trigrams[phrase] = struct{}{}
		}
	}
	return lex
}

// Load decodes the two JSON list files. Either list may be gzip-compressed.
func Load(wordsJSON, trigramsJSON []byte) (*Lexicon, error) {
	words, err := parseList("slop words", wordsJSON)
	if err != nil {
		return nil, err
	}
	trigrams, err := parseList("slop trigrams", trigramsJSON)
	if err != nil {
		return nil, err
	}
	return New(words, trigrams), nil
}

// LoadFiles reads and decodes the word and trigram list files.
func LoadFiles(wordsPath, trigramsPath string) (*Lexicon, error) {
	wordsData, err := corpus.ReadFile(wordsPath)
	if err != nil {
		return nil, err
	}
	trigramsData, err := corpus.ReadFile(trigramsPath)
	if err != nil {
		return nil, err
	}

	words, err := parseList(wordsPath, wordsData)
	if err != nil {
		return nil, err
	}
	trigrams, err := parseList(trigramsPath, trigramsData)
	if err != nil {
		return nil, err
	}
	return New(words, trigrams), nil
}

// parseList accepts a JSON array whose entries are strings or arrays whose
// first element is a string (["word", 123] style exports).
func parseList(source string, data []byte) ([]string, error) {
	raw, err := corpus.Decompress(source, data)
	if err != nil {
		return nil, err
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, corpus.Errorf(source, err, "lexicon must be a JSON array")
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			out = append(out, s)
			continue
		}
		var parts []json.RawMessage
		if err := json.Unmarshal(e, &parts); err != nil || len(parts) == 0 {
			continue
		}
		if err := json.Unmarshal(parts[0], &s); err == nil {
			out = append(out, s)
		}
	}
	return out, nil
}

// firstRun extracts the first n lowercase alphabetic tokens of entry.
func firstRun(entry string, n int) (string, bool) {
	tokens := tokenize.AlphaTokens(tokenize.Words(entry))
	if len(tokens) < n {
		return "", false
	}
	return strings.Join(tokens[:n], " "), true
}

// HasWord reports whether token is a flagged word.
func (l *Lexicon) HasWord(token string) bool {
	_, ok := l.words[token]
	return ok
}

// HasTrigram reports whether the space-joined trigram is flagged.
func (l *Lexicon) HasTrigram(trigram string) bool {
	_, ok := l.trigrams[trigram]
	return ok
}

// WordCount returns the number of flagged words.
func (l *Lexicon) WordCount() int {
	return len(l.words)
}

// TrigramCount returns the number of flagged trigrams.
func (l *Lexicon) TrigramCount() int {
	return len(l.trigrams)
}

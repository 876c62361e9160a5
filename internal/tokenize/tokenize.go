// Package tokenize turns raw text into normalized token sequences. Every
// function here is pure and total: the same input always yields the same
// output and no input makes them fail.
package tokenize

import (
	"regexp"
	"strings"
)

var (
	wordRun   = regexp.MustCompile(`[\p{L}']+`)
	alphaWord = regexp.MustCompile(`^\p{L}+(?:'\p{L}+)?$`)
)

var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
	"′", "'", "ʼ", "'", "＇", "'", "‹", "'", "›", "'",
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"″", `"`, "«", `"`, "»", `"`, "＂", `"`,
)

// NormalizeQuotes maps curly, low-9, prime, guillemet and fullwidth quote
// variants to ASCII ' and ". The mapping is rune-for-rune.
func NormalizeQuotes(text string) string {
	return quoteReplacer.Replace(text)
}

// Words lowercases text and extracts runs of letters and apostrophes.
// Leading and trailing apostrophes are stripped and empty runs dropped.
func Words(text string) []string {
	text = strings.ToLower(NormalizeQuotes(text))
	runs := wordRun.FindAllString(text, -1)

	words := make([]string, 0, len(runs))
	for _, run := range runs {
		word := strings.Trim(run, "'")
		if word == "" {
			continue
		}
		words = append(words, word)
	}
	return words
}

// IsAlpha reports whether token is a single alphabetic word, optionally with
// one internal contraction apostrophe ("don't", "o'clock").
func IsAlpha(token string) bool {
	return alphaWord.MatchString(token)
}

// AlphaTokens keeps the alphabetic tokens.
func AlphaTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if IsAlpha(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// ContentTokens keeps alphabetic tokens that are not stop words.
func ContentTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if IsAlpha(tok) && !IsStopword(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// NGrams returns the contiguous n-token windows of tokens, space-joined.
func NGrams(tokens []string, n int) []string {
	if n <= 0 || len(tokens) < n {
		return nil
	}
	grams := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		grams = append(grams, strings.Join(tokens[i:i+n], " "))
	}
	return grams
}

package analyzer

import (
	"math"
	"regexp"
	"strings"
)

var (
	sentenceSplit  = regexp.MustCompile(`[.!?]+`)
	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
	silentSuffix   = regexp.MustCompile(`(?:[^laeiouy]es|ed|[^laeiouy]e)$`)
	vowelCluster   = regexp.MustCompile(`[aeiouy]{1,2}`)
)

// countSentences counts the non-empty pieces between sentence terminators
func countSentences(text string) int {
	count := 0
	for _, piece := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(piece) != "" {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}

// countParagraphs counts blank-line separated paragraphs
func countParagraphs(text string) int {
	count := 0
	for _, p := range paragraphSplit.Split(text, -1) {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	if count == 0 {
		return 1
	}
	return count
}

// countSyllablesInWord estimates syllables from vowel clusters
func countSyllablesInWord(word string) int {
	word = strings.ToLower(word)
	if len(word) <= 3 {
		return 1
	}

	word = silentSuffix.ReplaceAllString(word, "")
	word = strings.TrimPrefix(word, "y")

	count := len(vowelCluster.FindAllString(word, -1))
	if count == 0 {
		return 1
	}
	return count
}

// vocabLevel is the Flesch-Kincaid grade level of the tokens
func vocabLevel(words []string, sentences int) float64 {
	if len(words) == 0 || sentences == 0 {
		return 0
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllablesInWord(w)
	}

	wordsPerSentence := float64(len(words)) / float64(sentences)
	syllablesPerWord := float64(syllables) / float64(len(words))

	grade := 0.39*wordsPerSentence + 11.8*syllablesPerWord - 15.59
	return math.Round(grade*100) / 100
}

package analyzer

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/zombar/slopscore/internal/contrast"
	"github.com/zombar/slopscore/internal/diversity"
	"github.com/zombar/slopscore/internal/models"
	"github.com/zombar/slopscore/internal/overuse"
	"github.com/zombar/slopscore/internal/slopindex"
	"github.com/zombar/slopscore/internal/tokenize"
)

// Engine performs slop analysis against the currently loaded resources
type Engine struct {
	current atomic.Pointer[Resources]
	logger  *slog.Logger
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithLogger sets the engine logger
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine serving res
func New(res *Resources, opts ...EngineOption) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.current.Store(res)
	return e
}

// Resources returns the snapshot new analyses will use
func (e *Engine) Resources() *Resources {
	return e.current.Load()
}

// Reload loads a fresh set of resources with the same tagger and options and
// swaps it in. Analyses already running keep the snapshot they started with.
// On failure the current resources stay in place.
func (e *Engine) Reload(ctx context.Context, paths Paths) error {
	old := e.current.Load()
	cfg := Config{Paths: paths, Options: old.Options, Tagger: old.Tagger, Logger: e.logger}

	res, err := LoadResources(ctx, cfg)
	if err != nil {
		e.logger.Error("resource reload failed", "error", err)
		return err
	}

	e.current.Store(res)
	e.logger.Info("resources reloaded",
		"words", res.WordFreq.Len(),
		"bigrams", len(res.Baseline.Bigrams()),
		"trigrams", len(res.Baseline.Trigrams()),
		"lexicon_words", res.Lexicon.WordCount(),
		"lexicon_trigrams", res.Lexicon.TrigramCount(),
	)
	return nil
}

// Analyze computes the fingerprint of text using the current resources
func (e *Engine) Analyze(ctx context.Context, file, text string) models.AnalysisResult {
	return e.current.Load().Analyze(ctx, file, text)
}

// Analyze computes the fingerprint of text. Resources are only read, so
// concurrent calls are safe.
func (r *Resources) Analyze(ctx context.Context, file, text string) models.AnalysisResult {
	result := models.AnalysisResult{
		File:       file,
		TotalChars: utf8.RuneCountInString(text),
	}

	tokens := tokenize.Words(text)
	if len(tokens) == 0 {
		return result
	}
	result.TotalWords = len(tokens)

	// Lexicon hits
	slop := slopindex.Compute(tokens, r.Lexicon, r.Options.TrackHits)
	result.Metrics.SlopWordsPer1k = slop.WordScore
	result.Metrics.SlopTrigramsPer1k = slop.TrigramScore

	// Contrast constructions
	contrastResult := r.Detector.Detect(ctx, text)
	result.Metrics.NotXButYPer1kChars = contrastResult.RatePer1kChars

	// Over-representation against the human baseline
	alpha := tokenize.AlphaTokens(tokens)
	bigrams := overuse.RankAgainst(tokenize.NGrams(alpha, 2), r.Baseline.Bigrams(), r.Baseline.BigramFloor(), r.Options.TopK)
	trigrams := overuse.RankAgainst(tokenize.NGrams(alpha, 3), r.Baseline.Trigrams(), r.Baseline.TrigramFloor(), r.Options.TopK)
	ranked := make([]overuse.Entry, 0, len(bigrams)+len(trigrams))
	ranked = append(ranked, bigrams...)
	ranked = append(ranked, trigrams...)
	result.Metrics.NGramRepetitionScore = overuse.RepetitionScore(ranked, len(tokens))

	// Diversity
	div := diversity.Compute(tokens, r.Options.MATTRWindow)
	result.Metrics.LexicalDiversity = models.LexicalDiversity{
		MATTR500:       div.MATTR,
		TypeTokenRatio: div.TTR,
		UniqueWords:    div.Unique,
		TotalWords:     div.Total,
	}

	// Style
	sentences := countSentences(text)
	paragraphs := countParagraphs(text)
	result.Metrics.VocabLevel = vocabLevel(tokens, sentences)
	result.Metrics.AvgSentenceLength = float64(len(tokens)) / float64(sentences)
	result.Metrics.AvgParagraphLength = float64(len(tokens)) / float64(paragraphs)
	result.Metrics.DialogueFrequency = dialogueFrequency(text, result.TotalChars)

	result.SlopScore = SlopScore(slop.WordScore, slop.TrigramScore, contrastResult.RatePer1kChars)

	if r.Options.TrackHits {
		result.SlopWordHits = toHits(slop.WordHits)
		result.SlopTrigramHits = toHits(slop.TrigramHits)
		result.ContrastMatches = toContrastMatches(contrastResult.Matches)
		result.TopOverRepresented = &models.TopOverRepresented{
			Words:    toOverused(overuse.RankWords(tokens, r.WordFreq, r.Options.TopK)),
			Bigrams:  toOverused(bigrams),
			Trigrams: toOverused(trigrams),
		}
	}

	return result
}

func toHits(hits []slopindex.Hit) []models.Hit {
	out := make([]models.Hit, len(hits))
	for i, h := range hits {
		out[i] = models.Hit{Phrase: h.Phrase, Count: h.Count}
	}
	return out
}

func toContrastMatches(matches []contrast.Match) []models.ContrastMatch {
	out := make([]models.ContrastMatch, len(matches))
	for i, m := range matches {
		out[i] = models.ContrastMatch{
			Sentence:      m.Sentence,
			Pattern:       m.Pattern,
			MatchText:     m.MatchText,
			SentenceCount: m.SentenceCount,
			Start:         m.Start,
			End:           m.End,
		}
	}
	return out
}

func toOverused(entries []overuse.Entry) []models.OverusedNGram {
	out := make([]models.OverusedNGram, len(entries))
	for i, e := range entries {
		out[i] = models.OverusedNGram{NGram: e.NGram, Ratio: e.Ratio, Count: e.Count}
	}
	return out
}

// dialogueFrequency is the number of quoted passages per 1000 characters,
// estimating one passage per pair of double quotes.
func dialogueFrequency(text string, chars int) float64 {
	if chars == 0 {
		return 0
	}
	quotes := strings.Count(tokenize.NormalizeQuotes(text), `"`)
	return 1000 * (float64(quotes) / 2) / float64(chars)
}

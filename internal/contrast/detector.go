// Package contrast detects "not X, but Y" style contrast constructions.
//
// Detection runs in two stages. The surface stage applies a registry of
// regular expressions to the normalized text. The syntactic stage tags the
// text with a part-of-speech tagger, rewrites words of the target category as
// placeholders and applies a second registry to that stream. Candidates from
// both stages are mapped onto sentence spans and merged so that each group of
// overlapping sentences is reported once.
package contrast

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/zombar/slopscore/internal/postag"
)

const (
	surfacePrefix = "S1_"
	streamPrefix  = "S2_"
)

// Match is one merged contrast construction.
type Match struct {
	Sentence      string
	Pattern       string
	MatchText     string
	SentenceCount int
	Start         int
	End           int
}

// Result holds the merged matches of a text and their rate.
type Result struct {
	Matches        []Match
	RatePer1kChars float64
}

type candidate struct {
	spanLo, spanHi   int
	rawStart, rawEnd int
	pattern          string
	text             string
}

// Detector runs both detection stages. It is safe for concurrent use when
// its tagger is.
type Detector struct {
	tagger postag.Tagger
	target postag.Target
	logger *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger used to report skipped stages.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// NewDetector creates a detector. A nil tagger disables the syntactic stage.
func NewDetector(tagger postag.Tagger, target postag.Target, opts ...Option) *Detector {
	d := &Detector{
		tagger: tagger,
		target: target,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect finds contrast constructions in text. Patterns run on the
// normalized text; offsets, sentences and match text in the returned
// matches refer to text itself.
func (d *Detector) Detect(ctx context.Context, text string) Result {
	norm, offsets := normalizeMapped(text)
	spans := Segment(norm)
	if len(spans) == 0 {
		return Result{Matches: []Match{}}
	}

	candidates := surfaceCandidates(norm, spans)

	if d.tagger != nil {
		stream, err := BuildStream(ctx, d.tagger, norm, d.target)
		if err != nil {
			d.logger.Warn("skipping syntactic contrast detection",
				"error", err,
				"target", d.target.String(),
			)
		} else {
			candidates = append(candidates, streamCandidates(spans, stream)...)
		}
	}

	rawSpans := make([]Span, len(spans))
	for i, sp := range spans {
		rawSpans[i] = Span{Start: offsets.raw(sp.Start), End: offsets.raw(sp.End)}
	}
	for i := range candidates {
		c := &candidates[i]
		c.rawStart, c.rawEnd = offsets.raw(c.rawStart), offsets.raw(c.rawEnd)
		c.text = text[c.rawStart:c.rawEnd]
	}

	matches := merge(text, rawSpans, candidates)

	var rate float64
	if chars := utf8.RuneCountInString(text); chars > 0 {
		rate = 1000 * float64(len(matches)) / float64(chars)
	}
	return Result{Matches: matches, RatePer1kChars: rate}
}

func surfaceCandidates(text string, spans []Span) []candidate {
	var out []candidate
	for _, p := range surfacePatterns {
		for _, loc := range p.Re.FindAllStringIndex(text, -1) {
			lo, hi, ok := cover(spans, loc[0], loc[1])
			if !ok {
				continue
			}
			out = append(out, candidate{
				spanLo:   lo,
				spanHi:   hi,
				rawStart: loc[0],
				rawEnd:   loc[1],
				pattern:  surfacePrefix + p.Name,
			})
		}
	}
	return out
}

func streamCandidates(spans []Span, stream *Stream) []candidate {
	var out []candidate
	for _, p := range streamPatterns {
		for _, loc := range p.Re.FindAllStringIndex(stream.Text, -1) {
			rawStart, rawEnd, ok := stream.Pieces.Map(loc[0], loc[1])
			if !ok {
				continue
			}
			lo, hi, ok := cover(spans, rawStart, rawEnd)
			if !ok {
				continue
			}
			out = append(out, candidate{
				spanLo:   lo,
				spanHi:   hi,
				rawStart: rawStart,
				rawEnd:   rawEnd,
				pattern:  streamPrefix + p.Name,
			})
		}
	}
	return out
}

// merge groups candidates whose span ranges overlap or touch. The first
// candidate of each group in (spanLo, spanHi, rawStart) order names it.
func merge(text string, spans []Span, candidates []candidate) []Match {
	matches := []Match{}
	if len(candidates) == 0 {
		return matches
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.spanLo != b.spanLo {
			return a.spanLo < b.spanLo
		}
		if a.spanHi != b.spanHi {
			return a.spanHi < b.spanHi
		}
		return a.rawStart < b.rawStart
	})

	emit := func(c candidate) {
		start, end := spans[c.spanLo].Start, spans[c.spanHi].End
		matches = append(matches, Match{
			Sentence:      strings.TrimSpace(text[start:end]),
			Pattern:       c.pattern,
			MatchText:     c.text,
			SentenceCount: c.spanHi - c.spanLo + 1,
			Start:         c.rawStart,
			End:           c.rawEnd,
		})
	}

	cur := candidates[0]
	for _, next := range candidates[1:] {
		if next.spanLo <= cur.spanHi {
			cur.spanHi = max(cur.spanHi, next.spanHi)
			cur.rawEnd = max(cur.rawEnd, next.rawEnd)
			continue
		}
		emit(cur)
		cur = next
	}
	emit(cur)

	return matches
}

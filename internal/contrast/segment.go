package contrast

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/zombar/slopscore/internal/tokenize"
)

var dashReplacer = strings.NewReplacer(
	"\u2010", "-", "\u2011", "-", "\u2012", "-", "\u2013", "-", "\u2014", "-", "\u2015", "-",
	"\u2212", "-", "\ufe58", "-", "\ufe63", "-", "\uff0d", "-",
	"\u00a0", " ",
)

// Normalize canonicalizes dashes, non-breaking spaces and quotes. Every
// substitution replaces one rune with one rune, so rune positions line up
// with the original text. Byte positions do not: use normalizeMapped when
// offsets have to be reported against the original.
func Normalize(text string) string {
	return tokenize.NormalizeQuotes(dashReplacer.Replace(text))
}

// offsetMap converts byte offsets of normalized text back to the text it
// was produced from. norm holds the normalized offset just after each
// substitution that changed the byte length; shift holds raw minus
// normalized offset from that point on.
type offsetMap struct {
	norm  []int
	shift []int
}

func (m *offsetMap) raw(pos int) int {
	i := sort.SearchInts(m.norm, pos+1) - 1
	if i < 0 {
		return pos
	}
	return pos + m.shift[i]
}

// normalizeMapped is Normalize plus the map back to text offsets. Only
// non-ASCII runes are ever substituted.
func normalizeMapped(text string) (string, *offsetMap) {
	var b strings.Builder
	b.Grow(len(text))
	m := &offsetMap{}

	for i, r := range text {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		repl := Normalize(text[i : i+size])
		b.WriteString(repl)
		if len(repl) != size {
			m.norm = append(m.norm, b.Len())
			m.shift = append(m.shift, i+size-b.Len())
		}
	}
	return b.String(), m
}

// Span is a half-open byte range [Start, End) of the normalized text.
type Span struct {
	Start int
	End   int
}

var sentenceEnd = regexp.MustCompile(`[.!?]+["')\]]*`)

// Segment splits text into sentence spans. Each span ends after a run of
// terminal punctuation (and any closing quotes or brackets); text after the
// last terminator forms a final span, or joins the previous span when it is
// only whitespace. The spans tile [0, len(text)) exactly.
func Segment(text string) []Span {
	if text == "" {
		return nil
	}

	var spans []Span
	start := 0
	for _, m := range sentenceEnd.FindAllStringIndex(text, -1) {
		spans = append(spans, Span{Start: start, End: m[1]})
		start = m[1]
	}

	if start < len(text) {
		if len(spans) > 0 && strings.TrimSpace(text[start:]) == "" {
			spans[len(spans)-1].End = len(text)
		} else {
			spans = append(spans, Span{Start: start, End: len(text)})
		}
	}
	return spans
}

// cover returns the minimal range of spans [lo, hi] intersecting the byte
// range [start, end). ok is false when the range touches no span.
func cover(spans []Span, start, end int) (lo, hi int, ok bool) {
	if end <= start {
		end = start + 1
	}
	lo = sort.Search(len(spans), func(i int) bool { return spans[i].End > start })
	hi = sort.Search(len(spans), func(i int) bool { return spans[i].Start >= end }) - 1
	if lo >= len(spans) || hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

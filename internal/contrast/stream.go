package contrast

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zombar/slopscore/internal/postag"
)

// Stream is the POS-tagged rendering of a text together with the piece
// table that maps it back to the text.
type Stream struct {
	Text   string
	Pieces *PieceTable
}

// anchorWords are matched literally by the stream patterns. Taggers label
// most of them AUX, ADV, ADJ or PART, so they are never replaced.
var anchorWords = map[string]bool{
	"not": true, "n't": true, "but": true, "to": true, "also": true,
	"just": true, "only": true, "merely": true, "simply": true,
	"do": true, "does": true, "did": true,
	"don't": true, "doesn't": true, "didn't": true,
	"more": true, "than": true, "a": true, "an": true, "the": true,
	"it": true, "it's": true, "is": true, "are": true, "this": true, "that": true,
	"they": true, "they're": true, "he": true, "she": true, "we": true, "you": true,
}

// BuildStream tags text and rewrites it so that every token whose category
// matches target becomes its placeholder. Untagged text between tokens is
// copied through unchanged. Tokens the tagger returns that cannot be located
// in order, on word boundaries, are skipped.
func BuildStream(ctx context.Context, tagger postag.Tagger, text string, target postag.Target) (*Stream, error) {
	tokens, err := tagger.Tag(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to tag text: %w", err)
	}

	var b strings.Builder
	b.Grow(len(text))
	pieces := &PieceTable{}

	emit := func(s string, rawStart, rawEnd int) {
		streamStart := b.Len()
		b.WriteString(s)
		pieces.Add(streamStart, b.Len(), rawStart, rawEnd)
	}

	cursor := 0
	for i, tok := range tokens {
		if tok.Value == "" {
			continue
		}
		var next string
		if i+1 < len(tokens) {
			next = tokens[i+1].Value
		}
		start := locate(text, cursor, tok.Value, next)
		if start < 0 {
			continue
		}
		end := start + len(tok.Value)

		if start > cursor {
			emit(text[cursor:start], cursor, start)
		}

		value := tok.Value
		category := postag.CategoryOf(tok.POS)
		if target.Matches(category) && !anchorWords[strings.ToLower(value)] {
			value = category.Placeholder()
		}
		emit(value, start, end)
		cursor = end
	}

	if cursor < len(text) {
		emit(text[cursor:], cursor, len(text))
	}

	return &Stream{Text: b.String(), Pieces: pieces}, nil
}

// locate finds value in text at or after from, requiring word boundaries on
// both sides. A token may sit directly against the previous one, and may run
// directly into next, so split contractions ("do" "n't") still line up.
func locate(text string, from int, value, next string) int {
	for off := from; off < len(text); {
		idx := strings.Index(text[off:], value)
		if idx < 0 {
			return -1
		}
		start := off + idx
		end := start + len(value)

		left := start == from || !startsWord(value) || !isWordRune(lastRune(text[:start]))
		right := end == len(text) || !endsWord(value) || !isWordRune(firstRune(text[end:])) ||
			(next != "" && strings.HasPrefix(text[end:], next))
		if left && right {
			return start
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		off = start + size
	}
	return -1
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func startsWord(s string) bool { return isWordRune(firstRune(s)) }

func endsWord(s string) bool { return isWordRune(lastRune(s)) }

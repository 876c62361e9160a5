// Package postag defines the part-of-speech tagging capability consumed by
// the contrast detector. Tagging itself is provided by an external service;
// this package only fixes the interface and the tag categories.
package postag

import (
	"context"
	"fmt"
	"strings"
)

// Token is one tagged token. Value is the token text as it appears in the
// tagged input; POS is the tagger's tag (Universal or Penn Treebank).
type Token struct {
	Value string `json:"value"`
	POS   string `json:"pos"`
}

// Tagger tags text into tokens in reading order.
type Tagger interface {
	Tag(ctx context.Context, text string) ([]Token, error)
}

// TaggerFunc adapts a function to Tagger.
type TaggerFunc func(ctx context.Context, text string) ([]Token, error)

// Tag calls f.
func (f TaggerFunc) Tag(ctx context.Context, text string) ([]Token, error) {
	return f(ctx, text)
}

// Category is a coarse grammatical category.
type Category int

const (
	Other Category = iota
	Verb
	Noun
	Adj
	Adv
)

// Placeholder returns the stream token that replaces words of this category.
func (c Category) Placeholder() string {
	switch c {
	case Verb:
		return "VERB"
	case Noun:
		return "NOUN"
	case Adj:
		return "ADJ"
	case Adv:
		return "ADV"
	default:
		return ""
	}
}

// CategoryOf maps a Universal or Penn Treebank tag to its category.
func CategoryOf(tag string) Category {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	switch {
	case tag == "VERB" || tag == "AUX" || strings.HasPrefix(tag, "VB") || tag == "MD":
		return Verb
	case tag == "NOUN" || tag == "PROPN" || strings.HasPrefix(tag, "NN"):
		return Noun
	case tag == "ADJ" || strings.HasPrefix(tag, "JJ"):
		return Adj
	case tag == "ADV" || strings.HasPrefix(tag, "RB") || tag == "WRB":
		return Adv
	default:
		return Other
	}
}

// Target selects which categories the tagged stream replaces.
type Target int

const (
	TargetVerb Target = iota
	TargetNoun
	TargetAdj
	TargetAdv
	TargetAll
)

// Matches reports whether words of category c are replaced under t.
func (t Target) Matches(c Category) bool {
	if c == Other {
		return false
	}
	switch t {
	case TargetVerb:
		return c == Verb
	case TargetNoun:
		return c == Noun
	case TargetAdj:
		return c == Adj
	case TargetAdv:
		return c == Adv
	case TargetAll:
		return true
	default:
		return false
	}
}

func (t Target) String() string {
	switch t {
	case TargetVerb:
		return "verb"
	case TargetNoun:
		return "noun"
	case TargetAdj:
		return "adj"
	case TargetAdv:
		return "adv"
	case TargetAll:
		return "all"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// ParseTarget parses a config value (verb, noun, adj, adv, all).
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "verb", "verbs":
		return TargetVerb, nil
	case "noun", "nouns":
		return TargetNoun, nil
	case "adj", "adjective", "adjectives":
		return TargetAdj, nil
	case "adv", "adverb", "adverbs":
		return TargetAdv, nil
	case "all", "":
		return TargetAll, nil
	default:
		return TargetAll, fmt.Errorf("unknown POS target %q", s)
	}
}

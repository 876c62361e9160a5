package contrast

import "regexp"

// Pattern is a named contrast-construction regex.
type Pattern struct {
	Name string
	Re   *regexp.Regexp
}

// surfacePatterns run directly on normalized text.
var surfacePatterns = []Pattern{
	{
		Name: "not_just_x_but_y",
		Re:   regexp.MustCompile(`(?i)\bnot\s+(?:just|only|merely|simply|solely)\s+[^.!?;]{1,80}?[,;]?\s+but\b(?:\s+also)?`),
	},
	{
		Name: "not_x_but_y",
		Re:   regexp.MustCompile(`(?i)\b(?:is|was|are|were|be|been|it's|that's)\s+not\s+[^.!?;]{1,60}?,\s*but\s+[\w']+`),
	},
	{
		Name: "its_not_x_its_y",
		Re:   regexp.MustCompile(`(?i)\b(?:it|this|that)(?:'s|\s+is|\s+was)\s+not\s+[^.!?]{1,80}?[.;,:-]+\s*(?:it|this|that)(?:'s|\s+is|\s+was)\b`),
	},
	{
		Name: "isnt_just_x_its_y",
		Re:   regexp.MustCompile(`(?i)\b(?:isn't|wasn't|aren't|weren't|doesn't|don't)\s+(?:just|only|merely|simply)\b[^.!?]{0,80}?[.;,:-]+\s*(?:it|they|this|that|he|she)(?:'s|'re|\s+is|\s+are|\s+was|\s+were)\b`),
	},
	{
		Name: "not_about_x_about_y",
		Re:   regexp.MustCompile(`(?i)\b(?:this|it)\s+(?:isn't|is\s+not|wasn't|was\s+not)\s+about\b[^.!?]{1,80}?[.;,:-]+\s*(?:it's|it\s+is|this\s+is|it\s+was)\s+about\b`),
	},
	{
		Name: "not_because_but_because",
		Re:   regexp.MustCompile(`(?i)\bnot\s+because\b[^.!?]{1,100}?\bbut\s+because\b`),
	},
	{
		Name: "less_x_more_y",
		Re:   regexp.MustCompile(`(?i)\b(?:less|not\s+so\s+much)\s+(?:about|a\s+matter\s+of)\b[^.!?]{1,100}?\b(?:and\s+)?more\s+(?:about|a\s+matter\s+of|like)\b`),
	},
	{
		Name: "not_x_not_y_but_z",
		Re:   regexp.MustCompile(`(?i)\bnot\s+[\w'-]+(?:\s+[\w'-]+)?,\s*not\s+[\w'-]+(?:\s+[\w'-]+)?,\s*but\b`),
	},
}

// streamPatterns run on the POS-tagged stream, where words of the target
// category have been replaced by VERB, NOUN, ADJ or ADV placeholders.
// Placeholders are matched case-sensitively; ordinary words are not.
var streamPatterns = []Pattern{
	{
		Name: "not_verb_but_verb",
		Re:   regexp.MustCompile(`\b(?i:not)\s+(?:(?i:just|only|merely|simply)\s+)?VERB\b[^.!?]{0,60}?[,;]?\s*(?i:but)\s+(?:(?i:to|also)\s+)?VERB\b`),
	},
	{
		Name: "dont_verb_they_verb",
		Re:   regexp.MustCompile(`\b(?i:don't|doesn't|didn't|do\s+not|does\s+not|did\s+not)\s+(?:(?i:just|only|merely|simply)\s+)?VERB\b[^.!?]{0,60}?[.;,:-]+\s*(?i:it|they|he|she|we|you|this|that)\s+(?:ADV\s+)?VERB\b`),
	},
	{
		Name: "not_noun_but_noun",
		Re:   regexp.MustCompile(`\b(?i:not)\s+(?:(?i:a|an|the|just|only|merely)\s+)*(?:ADJ\s+)*NOUN\b[^.!?]{0,40}?[,;]?\s*(?i:but)\s+(?:(?i:a|an|the)\s+)?(?:ADJ\s+)*NOUN\b`),
	},
	{
		Name: "not_adj_but_adj",
		Re:   regexp.MustCompile(`\b(?i:not)\s+(?:(?i:just|only|merely|simply)\s+)?(?:ADV\s+)?ADJ\b[^.!?]{0,40}?[,;]?\s*(?i:but)\s+(?:ADV\s+)?ADJ\b`),
	},
	{
		Name: "more_than_noun",
		Re:   regexp.MustCompile(`\b(?i:more)\s+(?i:than)\s+(?:(?i:just|merely)\s+)?(?:(?i:a|an|the)\s+)?(?:ADJ\s+)*NOUN\b[^.!?]{0,40}?[.;,:-]+\s*(?i:it's|it\s+is|this\s+is|they're|they\s+are)\s+`),
	},
}

// SurfacePatterns returns the names of the stage-one patterns.
func SurfacePatterns() []string {
	return patternNames(surfacePatterns)
}

// StreamPatterns returns the names of the stage-two patterns.
func StreamPatterns() []string {
	return patternNames(streamPatterns)
}

func patternNames(patterns []Pattern) []string {
	names := make([]string, len(patterns))
	for i, p := range patterns {
		names[i] = p.Name
	}
	return names
}

package models

import "time"

// Analysis statuses
const (
	StatusQueued    = "queued"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Analysis is a persisted analysis run
type Analysis struct {
	ID        string          `json:"id"`
	File      string          `json:"file"`
	Text      string          `json:"text,omitempty"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Result    *AnalysisResult `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AnalysisResult is the slop fingerprint of one document
type AnalysisResult struct {
	ID         string  `json:"id,omitempty"`
	File       string  `json:"file"`
	TotalChars int     `json:"total_chars"`
	TotalWords int     `json:"total_words"`
	SlopScore  float64 `json:"slop_score"`
	Metrics    Metrics `json:"metrics"`

	// Optional detail, populated when hit tracking is enabled
	SlopWordHits       []Hit               `json:"slop_word_hits,omitempty"`
	SlopTrigramHits    []Hit               `json:"slop_trigram_hits,omitempty"`
	ContrastMatches    []ContrastMatch     `json:"contrast_matches,omitempty"`
	TopOverRepresented *TopOverRepresented `json:"top_over_represented,omitempty"`
}

// Metrics holds the individual signals behind the composite score
type Metrics struct {
	SlopWordsPer1k       float64          `json:"slop_words_per_1k"`
	SlopTrigramsPer1k    float64          `json:"slop_trigrams_per_1k"`
	NGramRepetitionScore float64          `json:"ngram_repetition_score"`
	NotXButYPer1kChars   float64          `json:"not_x_but_y_per_1k_chars"`
	LexicalDiversity     LexicalDiversity `json:"lexical_diversity"`
	VocabLevel           float64          `json:"vocab_level"`
	AvgSentenceLength    float64          `json:"avg_sentence_length"`
	AvgParagraphLength   float64          `json:"avg_paragraph_length"`
	DialogueFrequency    float64          `json:"dialogue_frequency"`
}

// LexicalDiversity reports type-token ratios
type LexicalDiversity struct {
	MATTR500       float64 `json:"mattr_500"`
	TypeTokenRatio float64 `json:"type_token_ratio"`
	UniqueWords    int     `json:"unique_words"`
	TotalWords     int     `json:"total_words"`
}

// Hit is a lexicon word or trigram and how often it occurred
type Hit struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// ContrastMatch is one "not X, but Y" style construction
type ContrastMatch struct {
	Sentence      string `json:"sentence"`
	Pattern       string `json:"pattern"`
	MatchText     string `json:"match_text"`
	SentenceCount int    `json:"sentence_count"`
	Start         int    `json:"start"`
	End           int    `json:"end"`
}

// OverusedNGram is an n-gram used more often than the human baseline predicts
type OverusedNGram struct {
	NGram string  `json:"ngram"`
	Ratio float64 `json:"ratio"`
	Count int     `json:"count"`
}

// TopOverRepresented lists the most over-used words and n-grams
type TopOverRepresented struct {
	Words    []OverusedNGram `json:"words"`
	Bigrams  []OverusedNGram `json:"bigrams"`
	Trigrams []OverusedNGram `json:"trigrams"`
}

// JobStatus reports the state of a queued analysis
type JobStatus struct {
	JobID    string    `json:"job_id"`
	Status   string    `json:"status"`
	Analysis *Analysis `json:"analysis,omitempty"`
}

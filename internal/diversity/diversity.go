// Package diversity measures lexical diversity of a token stream.
package diversity

// DefaultWindow is the MATTR window size used for analysis results.
const DefaultWindow = 500

// Metrics summarizes the diversity of a token stream.
type Metrics struct {
	MATTR  float64 `json:"mattr_500"`
	TTR    float64 `json:"type_token_ratio"`
	Unique int     `json:"unique_words"`
	Total  int     `json:"total_words"`
}

// TypeTokenRatio returns unique tokens over total tokens, or 0 for no tokens.
func TypeTokenRatio(tokens []string) float64 {
	if len(tokens) == 0 {
		return 0
	}
	return float64(countUnique(tokens)) / float64(len(tokens))
}

// MATTR returns the moving-average type-token ratio over windows of the
// given size. Streams shorter than the window fall back to TypeTokenRatio.
// The window is slid with a rolling count so the cost is linear in the
// number of tokens.
func MATTR(tokens []string, window int) float64 {
	n := len(tokens)
	if n == 0 {
		return 0
	}
	if window <= 0 || n < window {
		return TypeTokenRatio(tokens)
	}

	counts := make(map[string]int, window)
	for _, tok := range tokens[:window] {
		counts[tok]++
	}

	sum := float64(len(counts))
	for i := window; i < n; i++ {
		out := tokens[i-window]
		if counts[out] == 1 {
			delete(counts, out)
		} else {
			counts[out]--
		}
		counts[tokens[i]]++
		sum += float64(len(counts))
	}

	windows := n - window + 1
	return sum / float64(windows) / float64(window)
}

// NaiveMATTR computes MATTR by recounting every window.
func NaiveMATTR(tokens []string, window int) float64 {
	n := len(tokens)
	if n == 0 {
		return 0
	}
	if window <= 0 || n < window {
		return TypeTokenRatio(tokens)
	}

	var sum float64
	for i := 0; i+window <= n; i++ {
		sum += float64(countUnique(tokens[i:i+window])) / float64(window)
	}
	return sum / float64(n-window+1)
}

// Compute returns all diversity metrics for tokens.
func Compute(tokens []string, window int) Metrics {
	if len(tokens) == 0 {
		return Metrics{}
	}
	return Metrics{
		MATTR:  MATTR(tokens, window),
		TTR:    TypeTokenRatio(tokens),
		Unique: countUnique(tokens),
		Total:  len(tokens),
	}
}

func countUnique(tokens []string) int {
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		seen[tok] = struct{}{}
	}
	return len(seen)
}

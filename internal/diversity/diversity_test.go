package diversity

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeTokenRatio(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []string
		expected float64
	}{
		{"empty", nil, 0},
		{"all unique", []string{"a", "b", "c", "d"}, 1},
		{"repeated", []string{"a", "a", "b", "b"}, 0.5},
		{"single", []string{"word"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, TypeTokenRatio(tt.tokens), 1e-12)
		})
	}
}

func TestMATTRShortStreamEqualsTTR(t *testing.T) {
	tokens := []string{"the", "cat", "sat", "on", "the", "mat"}
	assert.Equal(t, TypeTokenRatio(tokens), MATTR(tokens, DefaultWindow))
}

func TestMATTRSmallWindow(t *testing.T) {
	// windows: [a b] [b a] [a a] -> 1, 1, 0.5
	tokens := []string{"a", "b", "a", "a"}
	assert.InDelta(t, 2.5/3, MATTR(tokens, 2), 1e-12)
}

func TestMATTRMatchesNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	vocab := make([]string, 120)
	for i := range vocab {
		vocab[i] = fmt.Sprintf("w%d", i)
	}

	for _, size := range []int{0, 10, 499, 500, 501, 1500, 4000} {
		tokens := make([]string, size)
		for i := range tokens {
			tokens[i] = vocab[rng.Intn(len(vocab))]
		}
		for _, window := range []int{1, 7, 50, DefaultWindow} {
			t.Run(fmt.Sprintf("n=%d/w=%d", size, window), func(t *testing.T) {
				assert.InDelta(t, NaiveMATTR(tokens, window), MATTR(tokens, window), 1e-9)
			})
		}
	}
}

func TestMATTRBounds(t *testing.T) {
	tokens := make([]string, 1200)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("t%d", i%37)
	}
	got := MATTR(tokens, DefaultWindow)
	assert.Greater(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)
}

func TestCompute(t *testing.T) {
	assert.Equal(t, Metrics{}, Compute(nil, DefaultWindow))

	m := Compute([]string{"a", "b", "a"}, DefaultWindow)
	assert.Equal(t, 2, m.Unique)
	assert.Equal(t, 3, m.Total)
	assert.InDelta(t, 2.0/3, m.TTR, 1e-12)
	assert.InDelta(t, m.TTR, m.MATTR, 1e-12)
}

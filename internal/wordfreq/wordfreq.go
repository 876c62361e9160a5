// Package wordfreq decodes the bucketed cBpack frequency corpus into a
// read-only word → Zipf lookup table.
//
// A cBpack file is a gzip-compressed msgpack array of two elements: a header
// map {"format": "cB", "version": 1} and an array of buckets. Bucket i holds
// the words whose frequency is -i centibels, i.e. Zipf (900-i)/100.
package wordfreq

import (
	"bytes"
	"math"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/unicode/norm"

	"github.com/zombar/slopscore/internal/corpus"
	"github.com/zombar/slopscore/internal/tokenize"
)

const (
	FormatTag     = "cB"
	FormatVersion = 1
)

// Table maps normalized words to Zipf frequencies. It is never mutated after
// Load returns, so it is safe for concurrent use.
type Table struct {
	zipf       map[string]float64
	defaultVal float64
}

// Option configures a Table at load time.
type Option func(*Table)

// WithDefault sets the Zipf value returned for out-of-vocabulary input.
func WithDefault(zipf float64) Option {
	return func(t *Table) {
		t.defaultVal = zipf
	}
}

type header struct {
	Format  string `msgpack:"format"`
	Version int    `msgpack:"version"`
}

// LoadFile reads and decodes a cBpack file.
func LoadFile(path string, opts ...Option) (*Table, error) {
	data, err := corpus.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return load(path, data, opts...)
}

// Load decodes cBpack bytes.
func Load(data []byte, opts ...Option) (*Table, error) {
	return load("cBpack", data, opts...)
}

func load(source string, data []byte, opts ...Option) (*Table, error) {
	raw, err := corpus.Decompress(source, data)
	if err != nil {
		return nil, err
	}

	dec := msgpack.NewDecoder(bytes.NewReader(raw))
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, corpus.Errorf(source, err, "failed to decode top-level array")
	}
	if n != 2 {
		return nil, corpus.Errorf(source, nil, "expected 2 top-level elements, got %d", n)
	}

	var h header
	if err := dec.Decode(&h); err != nil {
		return nil, corpus.Errorf(source, err, "failed to decode header")
	}
	if h.Format != FormatTag || h.Version != FormatVersion {
		return nil, corpus.Errorf(source, nil, "unexpected header %q v%d (want %q v%d)",
			h.Format, h.Version, FormatTag, FormatVersion)
	}

	var buckets [][]string
	if err := dec.Decode(&buckets); err != nil {
		return nil, corpus.Errorf(source, err, "failed to decode buckets")
	}

	t := &Table{zipf: make(map[string]float64)}
	for _, opt := range opts {
		opt(t)
	}

	for i, bucket := range buckets {
		z := BucketZipf(i)
		for _, word := range bucket {
			if _, seen := t.zipf[word]; seen {
				continue
			}
			t.zipf[word] = z
		}
	}
	return t, nil
}

// BucketZipf converts a bucket index to its Zipf value.
func BucketZipf(bucket int) float64 {
	centibels := -bucket
	return float64(centibels+900) / 100
}

// Len returns the number of distinct words in the table.
func (t *Table) Len() int {
	return len(t.zipf)
}

// Default returns the out-of-vocabulary Zipf value.
func (t *Table) Default() float64 {
	return t.defaultVal
}

// Zipf returns the Zipf frequency of input. Input that tokenizes to several
// words scores as its rarest word. Unknown or empty input gets the default.
func (t *Table) Zipf(input string) float64 {
	if t == nil {
		return 0
	}
	normalized := normalize(input)
	if normalized == "" {
		return t.defaultVal
	}

	words := tokenize.Words(normalized)
	switch len(words) {
	case 0:
		if z, ok := t.zipf[normalized]; ok {
			return z
		}
		return t.defaultVal
	case 1:
		if z, ok := t.zipf[words[0]]; ok {
			return z
		}
		return t.defaultVal
	}

	lowest := math.Inf(1)
	for _, word := range words {
		z, ok := t.zipf[word]
		if !ok {
			z = t.defaultVal
		}
		lowest = math.Min(lowest, z)
	}
	return lowest
}

// Frequency returns the word's frequency as a proportion in [0, 1].
func (t *Table) Frequency(word string) float64 {
	z := t.Zipf(word)
	if z <= 0 {
		return 0
	}
	return math.Pow(10, z-9)
}

func normalize(input string) string {
	input = norm.NFKC.String(input)
	input = tokenize.NormalizeQuotes(input)
	return strings.TrimSpace(strings.ToLower(input))
}

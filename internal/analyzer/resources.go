package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/zombar/slopscore/internal/baseline"
	"github.com/zombar/slopscore/internal/contrast"
	"github.com/zombar/slopscore/internal/diversity"
	"github.com/zombar/slopscore/internal/lexicon"
	"github.com/zombar/slopscore/internal/postag"
	"github.com/zombar/slopscore/internal/wordfreq"
)

// Paths locates the data files behind the three stores
type Paths struct {
	WordFreq     string `yaml:"word_freq"`
	Baseline     string `yaml:"baseline"`
	SlopWords    string `yaml:"slop_words"`
	SlopTrigrams string `yaml:"slop_trigrams"`
}

// Options tune an analysis
type Options struct {
	TopK        int
	MATTRWindow int
	TrackHits   bool
	DefaultZipf float64
	POSTarget   postag.Target
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		TopK:        20,
		MATTRWindow: diversity.DefaultWindow,
		TrackHits:   true,
		POSTarget:   postag.TargetAll,
	}
}

// Config is everything LoadResources needs
type Config struct {
	Paths   Paths
	Options Options
	Tagger  postag.Tagger
	Logger  *slog.Logger
}

// Resources is an immutable snapshot of the loaded stores. It is built once
// and shared by every analysis that runs against it.
type Resources struct {
	WordFreq *wordfreq.Table
	Baseline *baseline.Table
	Lexicon  *lexicon.Lexicon
	Tagger   postag.Tagger
	Detector *contrast.Detector
	Options  Options
}

// NewResources assembles resources from already loaded stores. tagger may be
// nil, which disables tagger-based contrast detection.
func NewResources(freq *wordfreq.Table, base *baseline.Table, lex *lexicon.Lexicon, tagger postag.Tagger, opts Options, logger *slog.Logger) *Resources {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MATTRWindow <= 0 {
		opts.MATTRWindow = diversity.DefaultWindow
	}
	return &Resources{
		WordFreq: freq,
		Baseline: base,
		Lexicon:  lex,
		Tagger:   tagger,
		Detector: contrast.NewDetector(tagger, opts.POSTarget, contrast.WithLogger(logger)),
		Options:  opts,
	}
}

// LoadResources loads the frequency table, the human baseline and the slop
// lexicon concurrently. Any failure aborts the whole load.
func LoadResources(ctx context.Context, cfg Config) (*Resources, error) {
	var (
		freq *wordfreq.Table
		base *baseline.Table
		lex  *lexicon.Lexicon
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := wordfreq.LoadFile(cfg.Paths.WordFreq, wordfreq.WithDefault(cfg.Options.DefaultZipf))
		if err != nil {
			return fmt.Errorf("failed to load word frequencies: %w", err)
		}
		freq = t
		return nil
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, err := baseline.LoadFile(cfg.Paths.Baseline)
		if err != nil {
			return fmt.Errorf("failed to load human baseline: %w", err)
		}
		base = t
		return nil
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		l, err := lexicon.LoadFiles(cfg.Paths.SlopWords, cfg.Paths.SlopTrigrams)
		if err != nil {
			return fmt.Errorf("failed to load slop lexicon: %w", err)
		}
		lex = l
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewResources(freq, base, lex, cfg.Tagger, cfg.Options, cfg.Logger), nil
}

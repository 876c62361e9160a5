// Package config loads the service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zombar/slopscore/internal/analyzer"
	"github.com/zombar/slopscore/internal/postag"
)

// Default data file names looked up under DataConfig.Dir
const (
	DefaultWordFreqFile     = "large_en.msgpack.gz"
	DefaultBaselineFile     = "human_writing_profile.json.gz"
	DefaultSlopWordsFile    = "slop_list.json"
	DefaultSlopTrigramsFile = "slop_list_trigrams.json"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	Data     DataConfig     `yaml:"data"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
}

// DatabaseConfig configures SQLite persistence.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig configures the task queue. An empty Addr disables queued jobs.
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	Concurrency int    `yaml:"concurrency"`
}

// OllamaConfig configures the LLM-backed part-of-speech tagger.
type OllamaConfig struct {
	Enabled   bool   `yaml:"enabled"`
	URL       string `yaml:"url"`
	Model     string `yaml:"model"`
	Timeout   string `yaml:"timeout"`
	ChunkSize int    `yaml:"chunk_size"`
}

// DataConfig locates the frequency pack, baseline corpus and lexicon files.
// Empty paths resolve to the default file names under Dir.
type DataConfig struct {
	Dir   string         `yaml:"dir"`
	Paths analyzer.Paths `yaml:"paths"`
}

// AnalysisConfig tunes the analysis engine.
type AnalysisConfig struct {
	TopK        int     `yaml:"top_k"`
	MATTRWindow int     `yaml:"mattr_window"`
	TrackHits   bool    `yaml:"track_hits"`
	DefaultZipf float64 `yaml:"default_zipf"`
	POSTarget   string  `yaml:"pos_target"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	opts := analyzer.DefaultOptions()
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  "30s",
			WriteTimeout: "420s",
		},
		Database: DatabaseConfig{
			Path: "slopscore.db",
		},
		Redis: RedisConfig{
			Concurrency: 4,
		},
		Ollama: OllamaConfig{
			Enabled:   false,
			URL:       "http://localhost:11434",
			Model:     "gpt-oss:20b",
			Timeout:   "360s",
			ChunkSize: 4000,
		},
		Data: DataConfig{
			Dir: "data",
		},
		Analysis: AnalysisConfig{
			TopK:        opts.TopK,
			MATTRWindow: opts.MATTRWindow,
			TrackHits:   opts.TrackHits,
			DefaultZipf: opts.DefaultZipf,
			POSTarget:   opts.POSTarget.String(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.Concurrency = n
		}
	}
	if v := os.Getenv("USE_OLLAMA"); v != "" {
		c.Ollama.Enabled = v == "true" || v == "1" || v == "yes"
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		c.Ollama.URL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		c.Ollama.Model = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	if v := os.Getenv("POS_TARGET"); v != "" {
		c.Analysis.POSTarget = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// ResolvedPaths returns the data file paths with defaults filled in from
// Data.Dir.
func (c *Config) ResolvedPaths() analyzer.Paths {
	p := c.Data.Paths
	resolve := func(path, name string) string {
		if path != "" {
			return path
		}
		return filepath.Join(c.Data.Dir, name)
	}
	p.WordFreq = resolve(p.WordFreq, DefaultWordFreqFile)
	p.Baseline = resolve(p.Baseline, DefaultBaselineFile)
	p.SlopWords = resolve(p.SlopWords, DefaultSlopWordsFile)
	p.SlopTrigrams = resolve(p.SlopTrigrams, DefaultSlopTrigramsFile)
	return p
}

// AnalyzerOptions converts the analysis settings to engine options.
func (c *Config) AnalyzerOptions() (analyzer.Options, error) {
	target, err := postag.ParseTarget(c.Analysis.POSTarget)
	if err != nil {
		return analyzer.Options{}, err
	}
	return analyzer.Options{
		TopK:        c.Analysis.TopK,
		MATTRWindow: c.Analysis.MATTRWindow,
		TrackHits:   c.Analysis.TrackHits,
		DefaultZipf: c.Analysis.DefaultZipf,
		POSTarget:   target,
	}, nil
}

// GetReadTimeout returns the server read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns the server write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 420*time.Second)
}

// GetOllamaTimeout returns the tagger request timeout as a duration.
func (c *Config) GetOllamaTimeout() time.Duration {
	return parseDuration(c.Ollama.Timeout, 360*time.Second)
}

// QueueEnabled reports whether queued analysis is configured.
func (c *Config) QueueEnabled() bool {
	return c.Redis.Addr != ""
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port not configured")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path not configured")
	}
	if c.Analysis.TopK < 0 {
		return fmt.Errorf("invalid top_k: %d", c.Analysis.TopK)
	}
	if c.Analysis.MATTRWindow < 0 {
		return fmt.Errorf("invalid mattr_window: %d", c.Analysis.MATTRWindow)
	}
	if _, err := postag.ParseTarget(c.Analysis.POSTarget); err != nil {
		return err
	}
	if c.QueueEnabled() && c.Redis.Concurrency <= 0 {
		return fmt.Errorf("invalid worker concurrency: %d", c.Redis.Concurrency)
	}
	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

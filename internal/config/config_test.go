package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/slopscore/internal/postag"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DB_PATH", "REDIS_ADDR", "WORKER_CONCURRENCY", "USE_OLLAMA", "OLLAMA_URL",
		"OLLAMA_MODEL", "DATA_DIR", "POS_TARGET", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "slopscore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
redis:
  addr: localhost:6379
  concurrency: 8
data:
  dir: /srv/data
  paths:
    slop_words: /etc/slopscore/words.json
analysis:
  top_k: 5
  pos_target: verb
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.QueueEnabled())
	assert.Equal(t, 8, cfg.Redis.Concurrency)
	assert.Equal(t, 5, cfg.Analysis.TopK)
	// Unset keys keep their defaults
	assert.Equal(t, "slopscore.db", cfg.Database.Path)
	assert.Equal(t, 500, cfg.Analysis.MATTRWindow)

	paths := cfg.ResolvedPaths()
	assert.Equal(t, "/etc/slopscore/words.json", paths.SlopWords)
	assert.Equal(t, filepath.Join("/srv/data", DefaultWordFreqFile), paths.WordFreq)
	assert.Equal(t, filepath.Join("/srv/data", DefaultBaselineFile), paths.Baseline)
	assert.Equal(t, filepath.Join("/srv/data", DefaultSlopTrigramsFile), paths.SlopTrigrams)

	opts, err := cfg.AnalyzerOptions()
	require.NoError(t, err)
	assert.Equal(t, postag.TargetVerb, opts.POSTarget)
	assert.Equal(t, 5, opts.TopK)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("USE_OLLAMA", "yes")
	t.Setenv("OLLAMA_MODEL", "llama3")
	t.Setenv("WORKER_CONCURRENCY", "2")
	t.Setenv("POS_TARGET", "noun")

	path := filepath.Join(t.TempDir(), "slopscore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.True(t, cfg.Ollama.Enabled)
	assert.Equal(t, "llama3", cfg.Ollama.Model)
	assert.Equal(t, 2, cfg.Redis.Concurrency)
	assert.Equal(t, "noun", cfg.Analysis.POSTarget)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)

	cfg := DefaultConfig()
	cfg.Redis.Addr = "redis:6379"
	path := filepath.Join(t.TempDir(), "nested", "slopscore.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Server.Port = "" }, true},
		{"missing database", func(c *Config) { c.Database.Path = "" }, true},
		{"negative top k", func(c *Config) { c.Analysis.TopK = -1 }, true},
		{"bad pos target", func(c *Config) { c.Analysis.POSTarget = "pronoun" }, true},
		{"queue without workers", func(c *Config) {
			c.Redis.Addr = "localhost:6379"
			c.Redis.Concurrency = 0
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.GetReadTimeout())
	assert.Equal(t, 420*time.Second, cfg.GetWriteTimeout())
	assert.Equal(t, 360*time.Second, cfg.GetOllamaTimeout())

	cfg.Server.ReadTimeout = "garbage"
	assert.Equal(t, 30*time.Second, cfg.GetReadTimeout())
}

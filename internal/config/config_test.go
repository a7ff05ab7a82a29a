package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.3, cfg.Retrieval.MatchThreshold)
	assert.Equal(t, 0.65, cfg.Retrieval.StrongThreshold)
	assert.Equal(t, 0.4, cfg.Retrieval.DomainThreshold)
	assert.Equal(t, 10, cfg.Chat.MaxHistory)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoad_YAMLAndRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "heartline.yaml")
	yamlDoc := `
server:
  port: 9090
knowledge_base:
  path: kb.csv
retrieval:
  match_threshold: 0.5
  intent_fallback: embedding
generation:
  provider: gemini
  timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "kb.csv"), cfg.KnowledgeBase.Path)
	assert.Equal(t, 0.5, cfg.Retrieval.MatchThreshold)
	assert.Equal(t, "embedding", cfg.Retrieval.IntentFallback)
	assert.Equal(t, "gemini", cfg.Generation.Provider)
	assert.Equal(t, 5*time.Second, cfg.Generation.Timeout)
	// untouched sections keep defaults
	assert.Equal(t, 0.65, cfg.Retrieval.StrongThreshold)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7001")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("HEARTLINE_API_KEY", "secret")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/heartline?sslmode=disable")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.True(t, cfg.AuthEnabled())
	assert.True(t, cfg.Transcripts.Enabled)
	assert.Equal(t, "postgres", cfg.Transcripts.Driver)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"threshold above one", func(c *Config) { c.Retrieval.DomainThreshold = 1.5 }, "domain_threshold"},
		{"no domain keywords", func(c *Config) { c.Retrieval.DomainKeywords = nil }, "domain_keywords"},
		{"unknown fallback", func(c *Config) { c.Retrieval.IntentFallback = "regex" }, "intent fallback"},
		{"zero history", func(c *Config) { c.Chat.MaxHistory = 0 }, "max_history"},
		{"unknown embedder", func(c *Config) { c.Embedding.Provider = "bert" }, "embedding provider"},
		{"unknown generator", func(c *Config) { c.Generation.Provider = "gpt" }, "generation provider"},
		{"zero timeout", func(c *Config) { c.Generation.Timeout = 0 }, "timeout"},
		{"bad cache", func(c *Config) { c.Cache.Driver = "memcached" }, "cache driver"},
		{"bad transcripts", func(c *Config) { c.Transcripts.Driver = "mysql" }, "transcripts driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load("../../configs/heartline.example.yaml")
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig().Retrieval, cfg.Retrieval)
	assert.Equal(t, DefaultConfig().Chat, cfg.Chat)
	assert.Equal(t, "../../data/heart_health_triggers.csv", cfg.KnowledgeBase.Path)
	assert.False(t, cfg.AuthEnabled())
}

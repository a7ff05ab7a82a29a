// Package config provides configuration loading for the Heartline chatbot.
// Supports YAML files, a .env file, and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the chatbot.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	KnowledgeBase KnowledgeBaseConfig `yaml:"knowledge_base"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Chat          ChatConfig          `yaml:"chat"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Generation    GenerationConfig    `yaml:"generation"`
	Cache         CacheConfig         `yaml:"cache"`
	Transcripts   TranscriptsConfig   `yaml:"transcripts"`
	Observability ObservabilityConfig `yaml:"observability"`
	Auth          AuthConfig          `yaml:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// KnowledgeBaseConfig points at the curated CSV source.
type KnowledgeBaseConfig struct {
	Path string `yaml:"path"`
}

// RetrievalConfig holds matcher, router and domain gate settings.
type RetrievalConfig struct {
	MatchThreshold  float64  `yaml:"match_threshold"`
	StrongThreshold float64  `yaml:"strong_threshold"`
	DomainThreshold float64  `yaml:"domain_threshold"`
	DomainKeywords  []string `yaml:"domain_keywords"`
	IntentFallback  string   `yaml:"intent_fallback"` // keyword or embedding
	SpellCutoff     float64  `yaml:"spell_cutoff"`
	Lemmatize       bool     `yaml:"lemmatize"`
}

// ChatConfig holds conversation settings.
type ChatConfig struct {
	MaxHistory int           `yaml:"max_history"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// EmbeddingConfig holds encoder settings.
type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"` // openai, ollama or mock
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
	Cache     bool          `yaml:"cache"`
}

// GenerationConfig holds generative fallback settings.
type GenerationConfig struct {
	Provider string        `yaml:"provider"` // openrouter, gemini, ollama, openai or placeholder
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// CacheConfig holds cache settings shared by sessions and the embedding cache.
type CacheConfig struct {
	Driver     string        `yaml:"driver"`      // memory or redis
	TTL        time.Duration `yaml:"ttl"`         // cached embedding lifetime
	MaxEntries int           `yaml:"max_entries"` // per in-memory cache; 0 uses the client default
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// TranscriptsConfig holds the turn transcript store settings.
type TranscriptsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver"` // sqlite or postgres
	DSN     string `yaml:"dsn"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// AuthConfig holds API access settings. An empty APIKey disables the check.
type AuthConfig struct {
	APIKey         string   `yaml:"api_key"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if cfg.KnowledgeBase.Path != DefaultConfig().KnowledgeBase.Path {
			cfg.KnowledgeBase.Path = ResolveRelativePath(path, cfg.KnowledgeBase.Path)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             5000,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		KnowledgeBase: KnowledgeBaseConfig{
			Path: "data/heart_health_triggers.csv",
		},
		Retrieval: RetrievalConfig{
			MatchThreshold:  0.3,
			StrongThreshold: 0.65,
			DomainThreshold: 0.4,
			DomainKeywords:  []string{"heart", "cardiac", "women", "health", "cardiology"},
			IntentFallback:  "keyword",
			SpellCutoff:     0.8,
		},
		Chat: ChatConfig{
			MaxHistory: 10,
			SessionTTL: 24 * time.Hour,
		},
		Embedding: EmbeddingConfig{
			Provider:  "mock",
			Model:     "text-embedding-3-small",
			BaseURL:   "https://api.openai.com/v1",
			Dimension: 0,
			Timeout:   30 * time.Second,
			Cache:     true,
		},
		Generation: GenerationConfig{
			Provider: "placeholder",
			Model:    "gemini-1.5-flash",
			Timeout:  20 * time.Second,
		},
		Cache: CacheConfig{
			Driver: "memory",
			TTL:    24 * time.Hour,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Transcripts: TranscriptsConfig{
			Enabled: false,
			Driver:  "sqlite",
			DSN:     "file:heartline.db?_journal_mode=WAL",
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "heartline",
		},
		Auth: AuthConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.KnowledgeBase.Path == "" {
		return fmt.Errorf("knowledge_base.path is required")
	}

	for name, v := range map[string]float64{
		"match_threshold":  c.Retrieval.MatchThreshold,
		"strong_threshold": c.Retrieval.StrongThreshold,
		"domain_threshold": c.Retrieval.DomainThreshold,
		"spell_cutoff":     c.Retrieval.SpellCutoff,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("retrieval.%s must be between 0 and 1, got %v", name, v)
		}
	}

	if len(c.Retrieval.DomainKeywords) == 0 {
		return fmt.Errorf("retrieval.domain_keywords must not be empty")
	}

	if c.Retrieval.IntentFallback != "keyword" && c.Retrieval.IntentFallback != "embedding" {
		return fmt.Errorf("invalid intent fallback: %s", c.Retrieval.IntentFallback)
	}

	if c.Chat.MaxHistory < 1 {
		return fmt.Errorf("chat.max_history must be positive")
	}

	if c.Embedding.Dimension < 0 {
		return fmt.Errorf("embedding.dimension must not be negative")
	}

	if c.Cache.TTL < 0 || c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.ttl and cache.max_entries must not be negative")
	}

	switch c.Embedding.Provider {
	case "openai", "ollama", "mock":
	default:
		return fmt.Errorf("invalid embedding provider: %s", c.Embedding.Provider)
	}

	switch c.Generation.Provider {
	case "openrouter", "gemini", "ollama", "openai", "placeholder":
	default:
		return fmt.Errorf("invalid generation provider: %s", c.Generation.Provider)
	}

	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("generation.timeout must be positive")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Transcripts.Driver != "sqlite" && c.Transcripts.Driver != "postgres" {
		return fmt.Errorf("invalid transcripts driver: %s", c.Transcripts.Driver)
	}

	return nil
}

// AuthEnabled reports whether requests must carry the API key.
func (c *Config) AuthEnabled() bool {
	return c.Auth.APIKey != ""
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("KNOWLEDGE_BASE_PATH"); v != "" {
		cfg.KnowledgeBase.Path = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Transcripts.Enabled = true
		if strings.HasPrefix(v, "postgres") {
			cfg.Transcripts.Driver = "postgres"
			cfg.Transcripts.DSN = v
		} else {
			cfg.Transcripts.Driver = "sqlite"
			cfg.Transcripts.DSN = strings.TrimPrefix(v, "sqlite:")
		}
	}

	if v := os.Getenv("HEARTLINE_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	if v := os.Getenv("EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}

	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
		if cfg.Generation.Provider == "openai" && cfg.Generation.APIKey == "" {
			cfg.Generation.APIKey = v
		}
	}

	if v := os.Getenv("GENERATION_PROVIDER"); v != "" {
		cfg.Generation.Provider = v
	}

	if v := os.Getenv("GENERATION_MODEL"); v != "" {
		cfg.Generation.Model = v
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.Generation.Provider == "gemini" {
		cfg.Generation.APIKey = v
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" && cfg.Generation.Provider == "openrouter" {
		cfg.Generation.APIKey = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	return filepath.Join(filepath.Dir(configPath), targetPath)
}

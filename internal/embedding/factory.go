package embedding

import (
	"fmt"
	"time"

	"github.com/heartline-ai/heartline/internal/cache"
	"github.com/heartline-ai/heartline/internal/config"
	"github.com/heartline-ai/heartline/internal/observability"
)

// New builds the encoder selected by cfg.Provider. When cfg.Cache is set and
// a cache client is given, the encoder is wrapped in a CachedEmbedder whose
// entries expire after ttl.
func New(cfg config.EmbeddingConfig, client cache.Client, ttl time.Duration, logger *observability.Logger) (Embedder, error) {
	var (
		e   Embedder
		err error
	)

	switch cfg.Provider {
	case "openai":
		e, err = NewClient(Config{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Timeout:    cfg.Timeout,
			Dimensions: cfg.Dimension,
		})
	case "ollama":
		e, err = NewOllamaEmbedder(cfg.Model, cfg.BaseURL)
	case "mock":
		// bag-of-words axes are process-local, so caching them would be wrong
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s embedder: %w", cfg.Provider, err)
	}

	if cfg.Cache && client != nil {
		logger.Debug().Str("model", e.Model()).Dur("ttl", ttl).Msg("Embedding cache enabled")
		return NewCachedEmbedder(e, client, logger, ttl), nil
	}
	return e, nil
}

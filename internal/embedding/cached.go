package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/heartline-ai/heartline/internal/cache"
	"github.com/heartline-ai/heartline/internal/observability"
)

// CacheKeyPrefix starts every cached embedding key.
const CacheKeyPrefix = "emb"

// CachedEmbedder stores vectors in a cache.Client keyed by model and text,
// so repeated queries and index rebuilds skip the encoder.
type CachedEmbedder struct {
	next   Embedder
	client cache.Client
	logger *observability.Logger
	ttl    time.Duration
}

// NewCachedEmbedder wraps next. A zero ttl keeps entries until evicted.
func NewCachedEmbedder(next Embedder, client cache.Client, logger *observability.Logger, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{next: next, client: client, logger: logger, ttl: ttl}
}

// Key returns the cache key for text under the wrapped model.
func (c *CachedEmbedder) Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return cache.Key(CacheKeyPrefix, c.next.Model(), hex.EncodeToString(sum[:16]))
}

// Embed serves hits from the cache and sends all misses to the wrapped
// encoder in one call.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		key := c.Key(text)
		data, err := c.client.Get(ctx, key)
		if err == nil {
			var vec []float32
			if err := json.Unmarshal(data, &vec); err == nil {
				out[i] = vec
				continue
			}
			c.logger.Warn().Str("key", key).Msg("Discarding undecodable cached embedding")
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Debug().Err(err).Str("key", key).Msg("Embedding cache get error")
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("encoder returned %d vectors for %d texts", len(vecs), len(missTexts))
	}

	for j, i := range missIdx {
		out[i] = vecs[j]
		data, err := json.Marshal(vecs[j])
		if err != nil {
			continue
		}
		if err := c.client.Set(ctx, c.Key(missTexts[j]), data, c.ttl); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache embedding")
		}
	}

	return out, nil
}

// EmbedSingle embeds one text.
func (c *CachedEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, c, text)
}

// Model returns the wrapped model name.
func (c *CachedEmbedder) Model() string {
	return c.next.Model()
}

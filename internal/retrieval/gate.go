package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/heartline-ai/heartline/internal/embedding"
	"github.com/heartline-ai/heartline/internal/observability"
)

// DefaultDomainThreshold is the similarity a query needs against any domain
// keyword to count as on topic.
const DefaultDomainThreshold = 0.4

// DefaultDomainKeywords describe the chatbot's topic.
var DefaultDomainKeywords = []string{"heart", "cardiac", "women", "health", "cardiology"}

// Gate decides whether an unmatched query is still about women's heart health.
type Gate struct {
	embedder  embedding.Embedder
	keywords  []string
	vectors   [][]float32
	threshold float64
	logger    *observability.Logger
}

// NewGate encodes the domain keywords once.
func NewGate(ctx context.Context, embedder embedding.Embedder, keywords []string, threshold float64, logger *observability.Logger) (*Gate, error) {
	if len(keywords) == 0 {
		keywords = DefaultDomainKeywords
	}
	if threshold <= 0 {
		threshold = DefaultDomainThreshold
	}

	vecs, err := embedder.Embed(ctx, keywords)
	if err != nil {
		return nil, fmt.Errorf("embed domain keywords: %w", err)
	}
	if len(vecs) != len(keywords) {
		return nil, fmt.Errorf("embed domain keywords: got %d vectors for %d keywords", len(vecs), len(keywords))
	}

	return &Gate{
		embedder:  embedder,
		keywords:  append([]string(nil), keywords...),
		vectors:   vecs,
		threshold: threshold,
		logger:    logger.WithComponent("domain_gate"),
	}, nil
}

// Score returns the best similarity between query and any domain keyword,
// and that keyword.
func (g *Gate) Score(ctx context.Context, query string) (float64, string, error) {
	qv, err := g.embedder.EmbedSingle(ctx, strings.ToLower(query))
	if err != nil {
		return 0, "", fmt.Errorf("embed query: %w", err)
	}

	best, keyword := 0.0, ""
	for i, v := range g.vectors {
		if s := embedding.Cosine(qv, v); keyword == "" || s > best {
			best, keyword = s, g.keywords[i]
		}
	}
	return best, keyword, nil
}

// IsRelevant reports whether query scores at least the threshold against
// any domain keyword.
func (g *Gate) IsRelevant(ctx context.Context, query string) (bool, error) {
	score, keyword, err := g.Score(ctx, query)
	if err != nil {
		return false, err
	}

	relevant := score >= g.threshold
	g.logger.Debug().
		Str("query", query).
		Str("keyword", keyword).
		Float64("score", score).
		Bool("relevant", relevant).
		Msg("Domain gate")

	return relevant, nil
}

// Threshold returns the configured relevance threshold.
func (g *Gate) Threshold() float64 {
	return g.threshold
}

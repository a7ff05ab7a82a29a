// Package retrieval finds the knowledge base records that answer a query,
// picks which answer facets to surface, and decides whether an unmatched
// query is still on topic.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/heartline-ai/heartline/internal/embedding"
	"github.com/heartline-ai/heartline/internal/knowledge"
	"github.com/heartline-ai/heartline/internal/observability"
)

// MatchMethod says which pass produced a match.
type MatchMethod string

const (
	MatchLexical MatchMethod = "lexical"
	MatchStrong  MatchMethod = "strong"
	MatchAverage MatchMethod = "average"
	MatchNone    MatchMethod = "none"
)

// DefaultStrongThreshold is the component score at which a record counts as a strong match.
const DefaultStrongThreshold = 0.65

// Match is the outcome of one lookup: index positions of the matched
// records in knowledge base order.
type Match struct {
	Records []int
	Method  MatchMethod
	Score   float64
}

// Found reports whether any record matched.
func (m Match) Found() bool {
	return len(m.Records) > 0
}

// MatcherConfig holds matcher settings.
type MatcherConfig struct {
	StrongThreshold float64
}

// Matcher finds records for a query: word overlap with trigger words first,
// then embedding similarity against triggers, synonyms and keywords.
type Matcher struct {
	index         *knowledge.Index
	embedder      embedding.Embedder
	logger        *observability.Logger
	config        MatcherConfig
	triggerTokens []map[string]struct{}
}

// NewMatcher creates a matcher over index. The index must have been built
// with the same embedder.
func NewMatcher(index *knowledge.Index, embedder embedding.Embedder, logger *observability.Logger, cfg MatcherConfig) *Matcher {
	if cfg.StrongThreshold <= 0 {
		cfg.StrongThreshold = DefaultStrongThreshold
	}

	tokens := make([]map[string]struct{}, index.Len())
	for i := range tokens {
		tokens[i] = tokenSet(index.Record(i).Trigger)
	}

	return &Matcher{
		index:         index,
		embedder:      embedder,
		logger:        logger.WithComponent("matcher"),
		config:        cfg,
		triggerTokens: tokens,
	}
}

// Match returns the records answering query. threshold is the minimum
// average score for a match without any strong component.
func (m *Matcher) Match(ctx context.Context, query string, threshold float64) (Match, error) {
	if strings.TrimSpace(query) == "" {
		return Match{Method: MatchNone}, nil
	}

	if hits := m.lexical(query); len(hits) > 0 {
		m.record(MatchLexical)
		m.logger.Debug().Str("query", query).Int("records", len(hits)).Msg("Lexical match")
		return Match{Records: hits, Method: MatchLexical, Score: 1}, nil
	}

	qv, err := m.embedder.EmbedSingle(ctx, strings.ToLower(query))
	if err != nil {
		return Match{}, fmt.Errorf("embed query: %w", err)
	}

	result := m.score(qv, threshold)
	m.record(result.Method)

	m.logger.Debug().
		Str("query", query).
		Str("method", string(result.Method)).
		Float64("score", result.Score).
		Msg("Embedding match")

	return result, nil
}

func (m *Matcher) lexical(query string) []int {
	q := tokenSet(query)
	var hits []int
	for i, trigger := range m.triggerTokens {
		for tok := range trigger {
			if _, ok := q[tok]; ok {
				hits = append(hits, i)
				break
			}
		}
	}
	return hits
}

// score scans every record once. Strong records compete on their best
// component, the rest on the mean of all three components, where a record
// without synonyms or keywords contributes 0 for that component.
func (m *Matcher) score(qv []float32, threshold float64) Match {
	strong := m.config.StrongThreshold

	bestStrong, bestAvg := 0.0, 0.0
	strongIdx, avgIdx := -1, -1

	for i := 0; i < m.index.Len(); i++ {
		e := m.index.Embeddings(i)
		t := embedding.Cosine(qv, e.Trigger)
		s := embedding.MaxCosine(qv, e.Synonyms)
		k := embedding.MaxCosine(qv, e.Keywords)

		if t >= strong || s >= strong || k >= strong {
			if top := max(t, s, k); top > bestStrong {
				bestStrong, strongIdx = top, i
			}
			continue
		}

		if avg := (t + s + k) / 3; avg > bestAvg {
			bestAvg, avgIdx = avg, i
		}
	}

	switch {
	case avgIdx >= 0 && bestAvg >= threshold && bestStrong < bestAvg:
		return Match{Records: []int{avgIdx}, Method: MatchAverage, Score: bestAvg}
	case strongIdx >= 0 && bestStrong > bestAvg:
		return Match{Records: []int{strongIdx}, Method: MatchStrong, Score: bestStrong}
	default:
		return Match{Method: MatchNone, Score: max(bestStrong, bestAvg)}
	}
}

func (m *Matcher) record(method MatchMethod) {
	observability.MatchesTotal.WithLabelValues(string(method)).Inc()
}

// tokenSet lower-cases and whitespace-splits s, trimming punctuation
// around each token.
func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.Fields(strings.ToLower(s)) {
		if tok := strings.Trim(f, ".,;:!?\"'()[]{}"); tok != "" {
			out[tok] = struct{}{}
		}
	}
	return out
}

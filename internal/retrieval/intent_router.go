package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/heartline-ai/heartline/internal/embedding"
	"github.com/heartline-ai/heartline/internal/knowledge"
	"github.com/heartline-ai/heartline/internal/observability"
)

// Fallback strategies for queries with no intent keyword.
const (
	FallbackKeyword   = "keyword"
	FallbackEmbedding = "embedding"
)

// intentKeywords maps each intent to the phrases that signal it, in
// priority order. Matching is a case-insensitive substring search.
var intentKeywords = []struct {
	intent   knowledge.Intent
	keywords []string
}{
	{knowledge.What, []string{"what", "define", "definition", "meaning", "explain", "describe", "tell me about"}},
	{knowledge.Symptoms, []string{"symptom", "sign", "feel like", "indication", "warning"}},
	{knowledge.Why, []string{"why", "cause", "reason", "risk factor", "trigger"}},
	{knowledge.How, []string{"how", "prevent", "treat", "manage", "steps", "reduce", "lower", "avoid", "cure"}},
}

// TextNormalizer cleans up a query before intent detection.
type TextNormalizer interface {
	Normalize(text string) string
}

// Routed is the answer text chosen for one record.
type Routed struct {
	Text    string
	Intents []knowledge.Intent
	// Weak is set when no intent was detected and the first non-empty
	// column was used instead; callers add a disclaimer.
	Weak bool
}

// RouterConfig holds intent router settings.
type RouterConfig struct {
	Fallback string
}

// Router picks which answer columns of a matched record to return.
type Router struct {
	index      *knowledge.Index
	embedder   embedding.Embedder
	normalizer TextNormalizer
	logger     *observability.Logger
	config     RouterConfig
}

// NewRouter creates an intent router.
func NewRouter(index *knowledge.Index, embedder embedding.Embedder, normalizer TextNormalizer, logger *observability.Logger, cfg RouterConfig) *Router {
	if cfg.Fallback == "" {
		cfg.Fallback = FallbackKeyword
	}
	return &Router{
		index:      index,
		embedder:   embedder,
		normalizer: normalizer,
		logger:     logger.WithComponent("intent_router"),
		config:     cfg,
	}
}

type intentHit struct {
	pos    int
	intent knowledge.Intent
}

// Route returns the answer for record. Every detected intent with a
// non-empty column contributes its column, ordered by where its keyword
// first appears in the query, joined with a single space.
func (r *Router) Route(ctx context.Context, query string, record knowledge.Record) (Routed, error) {
	q := query
	if r.normalizer != nil {
		q = r.normalizer.Normalize(q)
	}

	hits := detectIntents(q)

	var found []intentHit
	for _, h := range hits {
		if record.Answer(h.intent) != "" {
			found = append(found, h)
		}
	}

	if len(found) > 0 {
		parts := make([]string, len(found))
		intents := make([]knowledge.Intent, len(found))
		for i, h := range found {
			parts[i] = record.Answer(h.intent)
			intents[i] = h.intent
		}
		return Routed{Text: strings.Join(parts, " "), Intents: intents}, nil
	}

	if r.config.Fallback == FallbackEmbedding {
		return r.routeByEmbedding(ctx, q, record)
	}

	for _, in := range knowledge.Intents() {
		if a := record.Answer(in); a != "" {
			return Routed{Text: a, Intents: []knowledge.Intent{in}, Weak: true}, nil
		}
	}
	return Routed{Weak: true}, nil
}

// routeByEmbedding picks the column whose name is most similar to the query.
func (r *Router) routeByEmbedding(ctx context.Context, query string, record knowledge.Record) (Routed, error) {
	qv, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return Routed{}, fmt.Errorf("embed query for intent fallback: %w", err)
	}

	best := -1
	bestScore := 0.0
	for _, in := range knowledge.Intents() {
		if record.Answer(in) == "" {
			continue
		}
		s := embedding.Cosine(qv, r.index.IntentEmbedding(in))
		if best < 0 || s > bestScore {
			best, bestScore = int(in), s
		}
	}
	if best < 0 {
		return Routed{}, nil
	}

	in := knowledge.Intent(best)
	r.logger.Debug().
		Str("intent", in.String()).
		Float64("score", bestScore).
		Msg("Intent chosen by embedding fallback")

	return Routed{Text: record.Answer(in), Intents: []knowledge.Intent{in}}, nil
}

// detectIntents finds, for each intent, the earliest position of any of its
// keywords in text and returns the hits sorted by position. Intents found
// at the same position keep priority order.
func detectIntents(text string) []intentHit {
	lower := strings.ToLower(text)

	var hits []intentHit
	for _, entry := range intentKeywords {
		pos := -1
		for _, kw := range entry.keywords {
			if i := strings.Index(lower, kw); i >= 0 && (pos < 0 || i < pos) {
				pos = i
			}
		}
		if pos >= 0 {
			hits = append(hits, intentHit{pos: pos, intent: entry.intent})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].pos < hits[b].pos })
	return hits
}

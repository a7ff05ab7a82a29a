package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/heartline-ai/heartline/internal/domain"
	"github.com/heartline-ai/heartline/internal/generate"
	"github.com/heartline-ai/heartline/internal/knowledge"
	"github.com/heartline-ai/heartline/internal/observability"
	"github.com/heartline-ai/heartline/internal/retrieval"
)

// Fixed replies.
const (
	GreetingReply = "Hello! I'm here to help with questions about women's heart health. What would you like to know?"
	RefusalReply  = "I'm sorry, I can only answer questions related to women's heart health. Can you please clarify your question?"
	NoAnswerReply = "I'm sorry, but I couldn't generate a response. Please try rephrasing your question."
	Disclaimer    = "\n For personalized advice or concerns about your health, Please consult our healthcare professional. We can provide you with the best guidance based on your specific needs."

	recordSeparator = " \n\n "
)

var greetings = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {},
	"good morning": {}, "good afternoon": {}, "good evening": {},
}

// Source says which stage produced a reply.
type Source string

const (
	SourceGreeting    Source = "greeting"
	SourceKnowledge   Source = "knowledge"
	SourceCorrected   Source = "corrected"
	SourceGenerated   Source = "generated"
	SourceUnavailable Source = "unavailable"
	SourceRefused     Source = "refused"
)

// Matcher finds knowledge base records for a query.
type Matcher interface {
	Match(ctx context.Context, query string, threshold float64) (retrieval.Match, error)
}

// Router picks the answer text of a matched record.
type Router interface {
	Route(ctx context.Context, query string, record knowledge.Record) (retrieval.Routed, error)
}

// Gate decides whether an unmatched query is on topic.
type Gate interface {
	IsRelevant(ctx context.Context, query string) (bool, error)
}

// Config holds orchestrator settings.
type Config struct {
	MatchThreshold float64
	MaxHistory     int
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Index      *knowledge.Index
	Matcher    Matcher
	Router     Router
	Normalizer retrieval.TextNormalizer
	Gate       Gate
	Generator  generate.Generator
	Logger     *observability.Logger
}

// Reply is the outcome of one turn.
type Reply struct {
	Response string
	Source   Source
	History  History
}

// Orchestrator answers one turn at a time. It holds no per-session state and
// is safe for concurrent use.
type Orchestrator struct {
	deps   Deps
	config Config
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(deps Deps, cfg Config) *Orchestrator {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultMaxHistory
	}
	if deps.Logger == nil {
		deps.Logger = observability.NopLogger()
	}
	deps.Logger = deps.Logger.WithComponent("orchestrator")
	return &Orchestrator{deps: deps, config: cfg}
}

// Respond answers input given the session's history and returns the reply
// with the updated history. history is not modified.
func (o *Orchestrator) Respond(ctx context.Context, input string, history History) (Reply, error) {
	if strings.TrimSpace(input) == "" {
		return Reply{}, domain.InputError("user_input is required")
	}

	start := time.Now()
	response, source, err := o.answer(ctx, input, history)
	if err != nil {
		return Reply{}, err
	}

	observability.TurnsTotal.WithLabelValues(string(source)).Inc()
	observability.TurnDuration.Observe(time.Since(start).Seconds())

	o.deps.Logger.WithContext(ctx).Info().
		Str("source", string(source)).
		Dur("duration", time.Since(start)).
		Msg("Turn answered")

	return Reply{
		Response: response,
		Source:   source,
		History:  history.Append(Turn{UserInput: input, BotResponse: response}, o.config.MaxHistory),
	}, nil
}

func (o *Orchestrator) answer(ctx context.Context, input string, history History) (string, Source, error) {
	if _, ok := greetings[strings.ToLower(strings.TrimSpace(input))]; ok {
		return GreetingReply, SourceGreeting, nil
	}

	text, found, err := o.lookup(ctx, input)
	if err != nil {
		return "", "", err
	}
	if found {
		return text, SourceKnowledge, nil
	}

	corrected := input
	if o.deps.Normalizer != nil {
		corrected = o.deps.Normalizer.Normalize(input)
	}
	if corrected != input {
		text, found, err = o.lookup(ctx, corrected)
		if err != nil {
			return "", "", err
		}
		if found {
			o.deps.Logger.WithContext(ctx).Debug().
				Str("input", input).
				Str("corrected", corrected).
				Msg("Matched after spelling correction")
			return text, SourceCorrected, nil
		}
	}

	relevant, err := o.deps.Gate.IsRelevant(ctx, corrected)
	if err != nil {
		return "", "", domain.UnexpectedError("check domain relevance", err)
	}
	if !relevant {
		return RefusalReply, SourceRefused, nil
	}

	return o.generate(ctx, corrected, history)
}

// lookup matches query and routes every matched record.
func (o *Orchestrator) lookup(ctx context.Context, query string) (string, bool, error) {
	m, err := o.deps.Matcher.Match(ctx, query, o.config.MatchThreshold)
	if err != nil {
		return "", false, domain.UnexpectedError("match query", err)
	}
	if !m.Found() {
		return "", false, nil
	}

	parts := make([]string, 0, len(m.Records))
	weak := false
	for _, i := range m.Records {
		routed, err := o.deps.Router.Route(ctx, query, o.deps.Index.Record(i))
		if err != nil {
			return "", false, domain.UnexpectedError("route intent", err)
		}
		parts = append(parts, routed.Text)
		weak = weak || routed.Weak
	}

	text := strings.Join(parts, recordSeparator)
	if weak {
		text += Disclaimer
	}
	return text, true, nil
}

// generate asks the language model. Failures become user-facing text and
// never fail the turn.
func (o *Orchestrator) generate(ctx context.Context, query string, history History) (string, Source, error) {
	prompt := "User asked: " + query + ". Please provide a helpful response related to women's heart health."
	if c := followUpContext(query, history); c != "" {
		prompt += "\nContext: " + c
	}

	text, err := o.deps.Generator.Generate(ctx, prompt)
	if err != nil {
		upstream := domain.UpstreamError("generate reply", err)
		o.deps.Logger.WithContext(ctx).Error().
			Err(upstream).
			Str("provider", o.deps.Generator.Name()).
			Msg("Generative fallback failed")

		if errors.Is(err, context.DeadlineExceeded) {
			return NoAnswerReply, SourceUnavailable, nil
		}
		return "Error: " + err.Error(), SourceUnavailable, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return NoAnswerReply, SourceUnavailable, nil
	}
	return text, SourceGenerated, nil
}

// Package generate provides the generative language model used when the
// knowledge base has no answer for an on-topic question.
package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/heartline-ai/heartline/internal/config"
	"github.com/heartline-ai/heartline/internal/observability"
)

// Generator turns a prompt into text. Implementations make exactly one
// upstream call per Generate and never retry.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// PlaceholderText is returned by the placeholder generator.
const PlaceholderText = "This is a placeholder response generated for your question."

// Placeholder answers every prompt with PlaceholderText. Used when no model
// is configured.
type Placeholder struct{}

func (Placeholder) Generate(ctx context.Context, prompt string) (string, error) {
	return PlaceholderText, nil
}

func (Placeholder) Name() string { return "placeholder" }

// Timed bounds each call with a timeout and records latency metrics.
type Timed struct {
	next    Generator
	timeout time.Duration
}

// WithTimeout wraps g so every Generate gets its own deadline.
func WithTimeout(g Generator, timeout time.Duration) *Timed {
	return &Timed{next: g, timeout: timeout}
}

// Generate calls the wrapped generator under the timeout. A timeout is
// reported as an error wrapping context.DeadlineExceeded.
func (t *Timed) Generate(ctx context.Context, prompt string) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := t.next.Generate(ctx, prompt)
	observability.GenerationDuration.WithLabelValues(t.next.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		reason := "error"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
			if !errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
		}
		observability.UpstreamErrorsTotal.WithLabelValues(t.next.Name(), reason).Inc()
		return "", err
	}
	return text, nil
}

// Name returns the wrapped generator's name.
func (t *Timed) Name() string {
	return t.next.Name()
}

// New builds the generator selected by cfg.Provider, wrapped with cfg.Timeout.
func New(ctx context.Context, cfg config.GenerationConfig) (Generator, error) {
	var (
		g   Generator
		err error
	)

	switch cfg.Provider {
	case "openrouter":
		g, err = NewOpenRouter(OpenRouterConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL})
	case "gemini":
		g, err = NewGemini(ctx, cfg.APIKey, cfg.Model)
	case "ollama":
		g, err = NewOllama(cfg.Model, cfg.BaseURL)
	case "openai":
		g, err = NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case "placeholder", "":
		g = Placeholder{}
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s generator: %w", cfg.Provider, err)
	}

	return WithTimeout(g, cfg.Timeout), nil
}

package generate

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Langchain generates text through a langchaingo model.
type Langchain struct {
	llm  llms.Model
	name string
}

// NewOllama creates a generator backed by a local Ollama server.
func NewOllama(model, serverURL string) (*Langchain, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama model: %w", err)
	}
	return &Langchain{llm: llm, name: "ollama"}, nil
}

// NewOpenAI creates a generator backed by the OpenAI API.
func NewOpenAI(apiKey, model, baseURL string) (*Langchain, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key required")
	}

	opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}
	return &Langchain{llm: llm, name: "openai"}, nil
}

// Generate sends prompt as a single-turn completion.
func (l *Langchain) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, l.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out, nil
}

// Name returns the provider name.
func (l *Langchain) Name() string { return l.name }

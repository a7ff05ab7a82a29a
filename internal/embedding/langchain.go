package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangchainEmbedder adapts a langchaingo embedder (Ollama or OpenAI).
type LangchainEmbedder struct {
	model     embeddings.Embedder
	modelName string
}

// NewOllamaEmbedder creates an embedder backed by a local Ollama server.
func NewOllamaEmbedder(model, serverURL string) (*LangchainEmbedder, error) {
	opts := []ollama.Option{ollama.WithModel(model)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	emb, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create ollama embedder: %w", err)
	}

	return &LangchainEmbedder{model: emb, modelName: model}, nil
}

// NewOpenAIEmbedder creates an embedder through langchaingo's OpenAI client.
func NewOpenAIEmbedder(apiKey, model, baseURL string) (*LangchainEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key required")
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}

	emb, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}

	return &LangchainEmbedder{model: emb, modelName: model}, nil
}

// Embed embeds texts as documents.
func (e *LangchainEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := e.model.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return vecs, nil
}

// EmbedSingle embeds one text.
func (e *LangchainEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, e, text)
}

// Model returns the configured model name.
func (e *LangchainEmbedder) Model() string {
	return e.modelName
}

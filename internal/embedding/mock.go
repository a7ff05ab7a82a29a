package embedding

import (
	"context"
	"strings"
	"sync"
	"unicode"
)

// MockClient is a bag-of-words encoder for offline development and tests.
// Every distinct lower-cased token owns one axis, so cosine similarity
// between two texts depends only on the words they share.
type MockClient struct {
	mu    sync.Mutex
	axes  map[string]int
	model string
}

// NewMockClient creates an empty bag-of-words encoder.
func NewMockClient() *MockClient {
	return &MockClient{axes: make(map[string]int), model: "mock-bag-of-words"}
}

// Embed returns one count vector per text.
func (c *MockClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		tokens := Tokenize(text)
		idx := make([]int, len(tokens))
		for j, tok := range tokens {
			axis, ok := c.axes[tok]
			if !ok {
				axis = len(c.axes)
				c.axes[tok] = axis
			}
			idx[j] = axis
		}

		vec := make([]float32, len(c.axes))
		for _, axis := range idx {
			vec[axis]++
		}
		out[i] = vec
	}
	return out, nil
}

// EmbedSingle embeds one text.
func (c *MockClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return embedOne(ctx, c, text)
}

// Model returns the mock model name.
func (c *MockClient) Model() string {
	return c.model
}

// Tokenize lower-cases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

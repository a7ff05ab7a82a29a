// Package client provides a Go client for the Heartline chatbot API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// APIKeyHeader carries the shared API key.
const APIKeyHeader = "X-API-KEY"

// Client talks to a running heartline-api. The session cookie issued by
// the server is kept in the client's cookie jar, so one Client is one
// conversation.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Turn is one exchange in the conversation context.
type Turn struct {
	UserInput   string `json:"user_input"`
	BotResponse string `json:"bot_response"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("heartline api: status %d: %s", e.StatusCode, e.Message)
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5000"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout, Jar: jar},
	}, nil
}

// Chat sends one message and returns the bot's reply.
func (c *Client) Chat(ctx context.Context, userInput string) (string, error) {
	var resp struct {
		Response string `json:"response"`
	}
	if err := c.do(ctx, http.MethodPost, "/chatbot", map[string]string{"user_input": userInput}, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// History returns the conversation context, oldest first.
func (c *Client) History(ctx context.Context) ([]Turn, error) {
	var resp struct {
		ContextHistory []Turn `json:"context_history"`
	}
	if err := c.do(ctx, http.MethodGet, "/context_history", nil, &resp); err != nil {
		return nil, err
	}
	return resp.ContextHistory, nil
}

// ClearHistory empties the conversation context.
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/clear_context_history", nil, nil)
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage pulls the message out of the server's error bodies:
// {"error": "..."} and {"unauthorized_access": "..."}.
func errorMessage(data []byte) string {
	var body map[string]string
	if err := json.Unmarshal(data, &body); err == nil {
		for _, k := range []string{"error", "unauthorized_access"} {
			if msg, ok := body[k]; ok {
				return msg
			}
		}
	}
	return strings.TrimSpace(string(data))
}

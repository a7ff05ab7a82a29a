package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartline-ai/heartline/cmd/heartline-api/middleware"
	"github.com/heartline-ai/heartline/internal/app"
	"github.com/heartline-ai/heartline/internal/chat"
	"github.com/heartline-ai/heartline/internal/config"
	"github.com/heartline-ai/heartline/internal/observability"
	"github.com/heartline-ai/heartline/pkg/client"
)

func newTestServer(t *testing.T, apiKey string) *httptest.Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.KnowledgeBase.Path = "../../data/heart_health_triggers.csv"
	cfg.Auth.APIKey = apiKey
	cfg.Transcripts.Enabled = true
	cfg.Transcripts.DSN = ":memory:"

	logger := observability.NopLogger()
	a, err := app.New(context.Background(), cfg, logger, app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	srv := httptest.NewServer(NewRouter(logger, a))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string, cookie *http.Cookie, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func TestRouter_ConversationFlow(t *testing.T) {
	srv := newTestServer(t, "")

	resp := post(t, srv, "/chatbot", `{"user_input":"hi"}`, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie, "first request gets a session cookie")

	var reply map[string]string
	decode(t, resp, &reply)
	assert.Equal(t, chat.GreetingReply, reply["response"])

	resp = post(t, srv, "/chatbot", `{"user_input":"what is football"}`, cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &reply)
	assert.Equal(t, chat.RefusalReply, reply["response"])

	var history struct {
		ContextHistory chat.History `json:"context_history"`
	}
	decode(t, get(t, srv, "/context_history", cookie), &history)
	require.Len(t, history.ContextHistory, 2)
	assert.Equal(t, "hi", history.ContextHistory[0].UserInput)

	var session struct {
		History chat.History `json:"history"`
	}
	decode(t, get(t, srv, "/session", cookie), &session)
	require.Len(t, session.History, 2)
	assert.Equal(t, "what is football", session.History[1].UserInput)

	session.History = nil
	decode(t, get(t, srv, "/session", nil), &session)
	assert.Empty(t, session.History, "a new visitor has no history")

	var transcripts struct {
		Transcripts []map[string]interface{} `json:"transcripts"`
	}
	decode(t, get(t, srv, "/transcripts/"+cookie.Value, nil), &transcripts)
	assert.Len(t, transcripts.Transcripts, 2)

	resp = post(t, srv, "/clear_context_history", ``, cookie, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var msg map[string]string
	decode(t, resp, &msg)
	assert.Equal(t, "Context history cleared.", msg["message"])

	decode(t, get(t, srv, "/context_history", cookie), &history)
	assert.Empty(t, history.ContextHistory)
}

func TestRouter_BadInput(t *testing.T) {
	srv := newTestServer(t, "")

	tests := []struct {
		name string
		body string
	}{
		{"missing field", `{}`},
		{"empty input", `{"user_input":"  "}`},
		{"not json", `user_input=hi`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, "/chatbot", tt.body, nil, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body map[string]string
			decode(t, resp, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRouter_APIKey(t *testing.T) {
	srv := newTestServer(t, "secret")

	resp := post(t, srv, "/chatbot", `{"user_input":"hi"}`, nil, map[string]string{"X-API-KEY": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, map[string]string{"unauthorized_access": "invalid api key"}, body)

	resp = post(t, srv, "/chatbot", `{"user_input":"hi"}`, nil, map[string]string{"X-API-KEY": "secret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = get(t, srv, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health is not behind the key")
	resp.Body.Close()
}

func TestRouter_HealthEndpoints(t *testing.T) {
	srv := newTestServer(t, "")

	resp := get(t, srv, "/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = get(t, srv, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestRouter_GoClient(t *testing.T) {
	srv := newTestServer(t, "secret")
	ctx := context.Background()

	c, err := client.New(client.Config{BaseURL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)

	require.NoError(t, c.Health(ctx))

	reply, err := c.Chat(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, chat.GreetingReply, reply)

	reply, err = c.Chat(ctx, "what is football")
	require.NoError(t, err)
	assert.Equal(t, chat.RefusalReply, reply)

	history, err := c.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hello", history[0].UserInput)

	require.NoError(t, c.ClearHistory(ctx))
	history, err = c.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	bad, err := client.New(client.Config{BaseURL: srv.URL, APIKey: "nope"})
	require.NoError(t, err)
	_, err = bad.Chat(ctx, "hello")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

package commands

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartline-ai/heartline/internal/chat"
	"github.com/heartline-ai/heartline/pkg/client"
)

const testKB = "../../../data/heart_health_triggers.csv"

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--no-color", "--kb", testKB}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestAsk_JSON(t *testing.T) {
	tests := []struct {
		question string
		source   chat.Source
	}{
		{"what is angina", chat.SourceKnowledge},
		{"hello", chat.SourceGreeting},
		{"what is football", chat.SourceRefused},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			out, err := runCLI(t, "", "ask", "--json", tt.question)
			require.NoError(t, err)

			var res askResult
			require.NoError(t, json.Unmarshal([]byte(out), &res))
			assert.Equal(t, tt.question, res.Question)
			assert.Equal(t, string(tt.source), res.Source)
			assert.NotEmpty(t, res.Response)
		})
	}
}

func TestAsk_JoinsArguments(t *testing.T) {
	out, err := runCLI(t, "", "ask", "--json", "what", "is", "angina")
	require.NoError(t, err)

	var res askResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "what is angina", res.Question)
}

func TestAsk_RequiresQuestion(t *testing.T) {
	_, err := runCLI(t, "", "ask")
	assert.Error(t, err)
}

func TestChat_Session(t *testing.T) {
	out, err := runCLI(t, "hello\n\n/history\n/clear\n/history\nexit\n", "chat")
	require.NoError(t, err)

	assert.Contains(t, out, chat.GreetingReply)
	assert.Contains(t, out, "1. You: hello")
	assert.Contains(t, out, "Context history cleared")
	assert.Contains(t, out, "No context yet")
	assert.Contains(t, out, "Goodbye")
}

func TestChat_EndOfInput(t *testing.T) {
	out, err := runCLI(t, "what is football\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, chat.RefusalReply)
}

func TestIndex(t *testing.T) {
	out, err := runCLI(t, "", "index", "--list")
	require.NoError(t, err)

	assert.Contains(t, out, "Records")
	assert.Contains(t, out, "Cholesterol")
	assert.Contains(t, out, "What,Symptoms,Why,How")
	assert.Contains(t, out, "Indexed")
}

func TestIndex_ResetCache(t *testing.T) {
	out, err := runCLI(t, "", "index", "--reset-cache")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed")
}

func TestIndex_MissingKnowledgeBase(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--kb", filepath.Join(t.TempDir(), "missing.csv"), "index"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load knowledge base")
}

func TestEval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.txt")
	content := "# smoke set\nhello\n\nwhat is angina\nwhat is football\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out, err := runCLI(t, "", "eval", "--show", path)
	require.NoError(t, err)

	assert.Contains(t, out, "SUMMARY")
	for _, s := range []chat.Source{chat.SourceGreeting, chat.SourceKnowledge, chat.SourceRefused} {
		assert.Contains(t, out, string(s))
	}
	assert.Contains(t, out, "33.3%")
	assert.NotContains(t, out, "smoke set")
}

func TestEval_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("# nothing\n\n"), 0o600))

	_, err := runCLI(t, "", "eval", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no questions")
}

func TestTranscripts_Disabled(t *testing.T) {
	_, err := runCLI(t, "", "transcripts", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcripts are disabled")
}

func TestReadQuestions(t *testing.T) {
	qs, err := readQuestions(strings.NewReader("  a  \n#b\n\nc\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, qs)
}

func TestSummarize(t *testing.T) {
	rows := summarize([]evalResult{
		{Source: chat.SourceKnowledge},
		{Source: chat.SourceRefused},
		{Source: chat.SourceKnowledge},
		{Source: chat.SourceGreeting},
	})

	assert.Equal(t, [][]string{
		{"knowledge", "2", "50.0%"},
		{"greeting", "1", "25.0%"},
		{"refused", "1", "25.0%"},
	}, rows)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "line one line two", truncate("line one\nline two", 40))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestAsk_Server(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chatbot", r.URL.Path)
		assert.Equal(t, "k1", r.Header.Get(client.APIKeyHeader))
		_, _ = w.Write([]byte(`{"response":"from server"}`))
	}))
	defer srv.Close()
	t.Setenv("HEARTLINE_API_KEY", "k1")

	out, err := runCLI(t, "", "ask", "--json", "--server", srv.URL, "what is angina")
	require.NoError(t, err)

	var res askResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "from server", res.Response)
	assert.Empty(t, res.Source)
}

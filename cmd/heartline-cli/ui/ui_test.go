package ui

import (
	"bytes"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	color.NoColor = true
	var buf bytes.Buffer
	SetOutput(&buf, &buf)
	t.Cleanup(func() { SetOutput(os.Stdout, os.Stderr) })
	return &buf
}

func TestTable(t *testing.T) {
	buf := captureOutput(t)

	Table([]string{"SOURCE", "COUNT"}, [][]string{
		{"knowledge", "2"},
		{"refused", "1"},
	})

	assert.Equal(t, "SOURCE     COUNT\n------     -----\nknowledge  2\nrefused    1\n", buf.String())
}

func TestMessages(t *testing.T) {
	buf := captureOutput(t)

	Success("indexed %d", 3)
	Warning("skipped")
	KeyValue("Records", 3)
	Section("summary")
	Bot("Hi")

	out := buf.String()
	assert.Contains(t, out, "✓ indexed 3")
	assert.Contains(t, out, "⚠ skipped")
	assert.Contains(t, out, "  Records: 3\n")
	assert.Contains(t, out, "━━━ SUMMARY ━━━")
	assert.Contains(t, out, "Heartline: Hi\n")
}

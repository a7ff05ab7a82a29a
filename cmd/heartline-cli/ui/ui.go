// Package ui provides terminal output helpers for the Heartline CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

var (
	out     io.Writer = os.Stdout
	errOut  io.Writer = os.Stderr
	verbose bool
)

// InitUI applies the color and verbosity flags.
func InitUI(noColor, verboseFlag bool) {
	verbose = verboseFlag
	if noColor || !IsTerminal() {
		color.NoColor = true
	}
}

// SetOutput redirects normal and error output.
func SetOutput(stdout, stderr io.Writer) {
	out, errOut = stdout, stderr
}

// Verbose reports whether verbose output was requested.
func Verbose() bool {
	return verbose
}

// Success displays a success message.
func Success(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error displays an error message to stderr.
func Error(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(errOut, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning displays a warning message.
func Warning(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info displays an informational message.
func Info(format string, args ...interface{}) {
	color.New(color.FgCyan).Fprintf(out, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Section displays a section header.
func Section(title string) {
	fmt.Fprintln(out)
	color.New(color.FgMagenta, color.Bold).Fprintf(out, "━━━ %s ━━━\n", strings.ToUpper(title))
	fmt.Fprintln(out)
}

// KeyValue displays a key-value pair.
func KeyValue(key string, value interface{}) {
	color.New(color.FgYellow).Fprintf(out, "  %s: ", key)
	fmt.Fprintf(out, "%v\n", value)
}

// Prompt prints the REPL prompt without a newline.
func Prompt(label string) {
	color.New(color.FgBlue, color.Bold).Fprintf(out, "%s ", label)
}

// Bot prints a chatbot reply.
func Bot(text string) {
	color.New(color.FgGreen, color.Bold).Fprint(out, "Heartline: ")
	fmt.Fprintln(out, text)
	fmt.Fprintln(out)
}

// Table displays data in a formatted table.
func Table(headers []string, rows [][]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(headers, "\t"))

	separator := make([]string, len(headers))
	for i := range separator {
		separator[i] = strings.Repeat("-", len(headers[i]))
	}
	fmt.Fprintln(w, strings.Join(separator, "\t"))

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	_ = w.Flush()
}

// IsTerminal checks if stdout is a terminal.
func IsTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

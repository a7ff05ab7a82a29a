package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heartline-ai/heartline/cmd/heartline-cli/ui"
	"github.com/heartline-ai/heartline/internal/chat"
)

type evalResult struct {
	Question string
	Response string
	Source   chat.Source
}

func newEvalCmd(opts *globalOptions) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "eval <questions-file>",
		Short: "Run a batch of questions and summarize where answers came from",
		Long: `Run every question in a file (one per line; blank lines and lines starting
with # are ignored) through the chatbot without conversation context, then
print how many replies came from each stage.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open questions: %w", err)
			}
			questions, err := readQuestions(f)
			f.Close()
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				return fmt.Errorf("no questions in %s", args[0])
			}

			a, err := opts.buildApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			bar := ui.NewProgressBar(int64(len(questions)), "Evaluating")
			results := make([]evalResult, 0, len(questions))
			for _, q := range questions {
				reply, err := a.Orchestrator.Respond(ctx, q, nil)
				if err != nil {
					return fmt.Errorf("question %q: %w", q, err)
				}
				results = append(results, evalResult{Question: q, Response: reply.Response, Source: reply.Source})
				bar.Add(1)
			}
			bar.Finish()

			if show {
				ui.Section("Replies")
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{r.Question, string(r.Source), truncate(r.Response, 60)})
				}
				ui.Table([]string{"QUESTION", "SOURCE", "RESPONSE"}, rows)
			}

			ui.Section("Summary")
			ui.Table([]string{"SOURCE", "COUNT", "SHARE"}, summarize(results))
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "print every reply")
	return cmd
}

func readQuestions(r io.Reader) ([]string, error) {
	var questions []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return questions, nil
}

// summarize counts replies per source, most frequent first.
func summarize(results []evalResult) [][]string {
	counts := make(map[chat.Source]int)
	for _, r := range results {
		counts[r.Source]++
	}

	sources := make([]chat.Source, 0, len(counts))
	for s := range counts {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool {
		if counts[sources[i]] != counts[sources[j]] {
			return counts[sources[i]] > counts[sources[j]]
		}
		return sources[i] < sources[j]
	})

	rows := make([][]string, 0, len(sources))
	for _, s := range sources {
		share := float64(counts[s]) / float64(len(results)) * 100
		rows = append(rows, []string{string(s), strconv.Itoa(counts[s]), fmt.Sprintf("%.1f%%", share)})
	}
	return rows
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-3]) + "..."
}

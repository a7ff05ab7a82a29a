package commands

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/heartline-ai/heartline/cmd/heartline-cli/ui"
	"github.com/heartline-ai/heartline/internal/knowledge"
)

func newIndexCmd(opts *globalOptions) *cobra.Command {
	var list, reset bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Load and encode the knowledge base",
		Long: `Load the knowledge base CSV, encode every trigger, synonym and keyword
with the configured embedding provider, and report what was indexed.
With --reset-cache, cached embeddings are dropped first so a changed model or
endpoint re-encodes every text.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			opts.resetCache = reset

			a, err := opts.buildApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			ui.Section("Knowledge Base")
			ui.KeyValue("Path", opts.cfg.KnowledgeBase.Path)
			ui.KeyValue("Rows", a.LoadReport.Rows)
			ui.KeyValue("Records", a.Index.Len())
			ui.KeyValue("Vocabulary", len(a.Index.Vocabulary()))
			ui.KeyValue("Model", a.Index.Model())
			ui.KeyValue("Elapsed", time.Since(start).Round(time.Millisecond))

			if len(a.LoadReport.Skipped) > 0 {
				ui.Warning("%d rows skipped", len(a.LoadReport.Skipped))
				rows := make([][]string, 0, len(a.LoadReport.Skipped))
				for _, s := range a.LoadReport.Skipped {
					rows = append(rows, []string{strconv.Itoa(s.Line), s.Reason})
				}
				ui.Table([]string{"LINE", "REASON"}, rows)
			}

			if list {
				ui.Section("Records")
				ui.Table([]string{"TRIGGER", "SYNONYMS", "KEYWORDS", "ANSWERS"}, recordRows(a.Index.Records()))
			}

			ui.Success("Indexed %d records", a.Index.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list every indexed record")
	cmd.Flags().BoolVar(&reset, "reset-cache", false, "drop cached embeddings and re-encode everything")
	return cmd
}

func recordRows(records []knowledge.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		var answered []string
		for _, in := range knowledge.Intents() {
			if r.Answer(in) != "" {
				answered = append(answered, in.String())
			}
		}
		rows = append(rows, []string{
			r.Trigger,
			strconv.Itoa(len(r.Synonyms)),
			strconv.Itoa(len(r.Keywords)),
			strings.Join(answered, ","),
		})
	}
	return rows
}

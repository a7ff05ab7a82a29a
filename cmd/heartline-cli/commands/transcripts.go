package commands

import (
	"github.com/spf13/cobra"

	"github.com/heartline-ai/heartline/cmd/heartline-cli/ui"
)

func newTranscriptsCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "transcripts <session-id>",
		Short: "Show the recorded turns of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := opts.buildApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			turns, err := a.ListTranscripts(ctx, args[0], limit)
			if err != nil {
				return err
			}
			if len(turns) == 0 {
				ui.Info("No transcripts for session %s", args[0])
				return nil
			}

			rows := make([][]string, 0, len(turns))
			for _, t := range turns {
				rows = append(rows, []string{
					t.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					t.Source,
					truncate(t.UserInput, 40),
					truncate(t.Response, 60),
				})
			}
			ui.Table([]string{"TIME", "SOURCE", "QUESTION", "RESPONSE"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum turns to show")
	return cmd
}

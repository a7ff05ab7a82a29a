package commands

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heartline-ai/heartline/cmd/heartline-cli/ui"
	"github.com/heartline-ai/heartline/pkg/client"
)

type askResult struct {
	Question string `json:"question"`
	Response string `json:"response"`
	Source   string `json:"source,omitempty"`
}

func newAskCmd(opts *globalOptions) *cobra.Command {
	var (
		asJSON bool
		server string
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question",
		Example: `  heartline ask "what is angina"
  heartline ask --json "symptoms of a heart attack"
  heartline ask --server http://localhost:5000 "how to lower cholesterol"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			question := strings.Join(args, " ")

			var spin *ui.Spinner
			if !asJSON {
				spin = ui.NewSpinner("Thinking...")
				spin.Start()
			}
			res, err := opts.ask(ctx, server, question)
			if spin != nil {
				spin.Stop()
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			ui.Bot(res.Response)
			if ui.Verbose() && res.Source != "" {
				ui.KeyValue("Source", res.Source)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reply as JSON")
	cmd.Flags().StringVar(&server, "server", "", "ask a running heartline-api instead of the local knowledge base")
	return cmd
}

// ask answers in-process, or through the API when server is set. The API
// does not report the reply source.
func (o *globalOptions) ask(ctx context.Context, server, question string) (askResult, error) {
	res := askResult{Question: question}

	if server != "" {
		c, err := client.New(client.Config{BaseURL: server, APIKey: o.cfg.Auth.APIKey})
		if err != nil {
			return res, err
		}
		res.Response, err = c.Chat(ctx, question)
		return res, err
	}

	a, err := o.buildApp(ctx, false)
	if err != nil {
		return res, err
	}
	defer a.Close()

	reply, err := a.Chat(ctx, uuid.NewString(), question)
	if err != nil {
		return res, err
	}
	res.Response = reply.Response
	res.Source = string(reply.Source)
	return res, nil
}

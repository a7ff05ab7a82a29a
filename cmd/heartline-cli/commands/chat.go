package commands

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heartline-ai/heartline/cmd/heartline-cli/ui"
	"github.com/heartline-ai/heartline/internal/app"
)

func newChatCmd(opts *globalOptions) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation. The session keeps the last turns as
context for follow-up questions.

Commands inside the session:
  /history   show the conversation context
  /clear     clear the conversation context
  /exit      leave (also: exit, quit)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := opts.buildApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			ui.Section("Heartline")
			ui.Info("Ask about women's heart health. Type /exit to leave.")
			if a.TranscriptsEnabled() {
				ui.KeyValue("Session", sessionID)
			}

			return runChat(ctx, a, sessionID, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "resume a session id")
	return cmd
}

func runChat(ctx context.Context, a *app.App, sessionID string, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		ui.Prompt("You:")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "/exit", "exit", "quit":
			ui.Info("Goodbye. Take care of your heart.")
			return nil
		case "/clear":
			if err := a.ClearHistory(ctx, sessionID); err != nil {
				return err
			}
			ui.Success("Context history cleared")
			continue
		case "/history":
			history, err := a.History(ctx, sessionID)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				ui.Info("No context yet")
				continue
			}
			for i, t := range history {
				ui.KeyValue(strconv.Itoa(i+1)+". You", t.UserInput)
				ui.KeyValue("   Heartline", t.BotResponse)
			}
			continue
		}

		spin := ui.NewSpinner("Thinking...")
		spin.Start()
		reply, err := a.Chat(ctx, sessionID, line)
		spin.Stop()
		if err != nil {
			ui.Error("%v", err)
			continue
		}
		ui.Bot(reply.Response)
	}
}

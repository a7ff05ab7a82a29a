// Package commands implements the heartline command line interface.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/heartline-ai/heartline/cmd/heartline-cli/ui"
	"github.com/heartline-ai/heartline/internal/app"
	"github.com/heartline-ai/heartline/internal/config"
	"github.com/heartline-ai/heartline/internal/observability"
)

type globalOptions struct {
	cfgFile  string
	kbPath   string
	verbose  bool
	noColor  bool
	logLevel string

	cfg        *config.Config
	resetCache bool
}

// NewRootCmd builds the heartline command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "heartline",
		Short: "Heartline - women's heart health assistant",
		Long: `Heartline answers questions about women's heart health from a curated
knowledge base, falling back to a generative model for in-domain questions
the knowledge base does not cover.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ui.InitUI(opts.noColor, opts.verbose)
			ui.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())

			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return err
			}
			if opts.kbPath != "" {
				cfg.KnowledgeBase.Path = opts.kbPath
			}
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", os.Getenv("CONFIG_PATH"), "config file path")
	rootCmd.PersistentFlags().StringVar(&opts.kbPath, "kb", "", "knowledge base CSV (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level when verbose (debug, info, warn, error)")

	rootCmd.AddCommand(
		newChatCmd(opts),
		newAskCmd(opts),
		newIndexCmd(opts),
		newEvalCmd(opts),
		newTranscriptsCmd(opts),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// logger returns a console logger on stderr when verbose, otherwise a
// logger that discards everything so it does not interleave with replies.
func (o *globalOptions) logger() *observability.Logger {
	if !o.verbose {
		return observability.NopLogger()
	}
	level := o.logLevel
	if level == "" {
		level = "debug"
	}
	return observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		Output:      os.Stderr,
		ServiceName: o.cfg.Observability.ServiceName,
	})
}

// buildApp assembles the chatbot, drawing an index progress bar when asked.
func (o *globalOptions) buildApp(ctx context.Context, progress bool) (*app.App, error) {
	appOpts := app.Options{ResetEmbeddingCache: o.resetCache}
	var bar *ui.IndexProgress
	if progress {
		bar = ui.NewIndexProgress("Encoding")
		appOpts.IndexProgress = bar.Update
	}

	a, err := app.New(ctx, o.cfg, o.logger(), appOpts)
	if bar != nil {
		bar.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("start chatbot: %w", err)
	}
	return a, nil
}

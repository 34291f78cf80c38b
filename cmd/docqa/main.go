// Command docqa answers questions about a document, with page citations.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/docqa-go/internal/app"
	"github.com/0xcro3dile/docqa-go/internal/config"
	"github.com/0xcro3dile/docqa-go/internal/logger"
)

// errReported marks a failure that has already been shown to the user.
var errReported = errors.New("reported")

type rootFlags struct {
	configPath string
	logMode    string
	apiKey     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "docqa",
		Short:         "Ask questions about pdf, docx, html, txt and rtf documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&flags.logMode, "log-mode", "", "log mode: dev or prod")
	root.PersistentFlags().StringVar(&flags.apiKey, "api-key", "", "provider API key (defaults to OPENAI_API_KEY)")

	root.AddCommand(
		newServeCmd(flags),
		newAskCmd(flags),
		newExtractCmd(flags),
		newChatCmd(flags),
	)
	return root
}

// loadApp reads configuration, applies flag overrides and wires the app.
func loadApp(flags *rootFlags, override func(*config.Config)) (*app.App, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logMode != "" {
		cfg.Log.Mode = flags.logMode
	}
	if override != nil {
		override(&cfg)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.New(cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Log.Warn("shutdown", "error", err)
	}
}

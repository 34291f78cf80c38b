package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/docqa-go/internal/config"
	"github.com/0xcro3dile/docqa-go/internal/domain/ports"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags, func(cfg *config.Config) {
				if addr != "" {
					cfg.Server.Addr = addr
				}
			})
			if err != nil {
				return err
			}
			defer closeApp(a)
			return a.Server().Start(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func newAskCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ask FILE QUESTION",
		Short: "Index FILE and answer one question about it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags, nil)
			if err != nil {
				return err
			}
			defer closeApp(a)

			sess := a.NewSession(flags.apiKey)
			r := a.REPL(sess, cmd.InOrStdin(), cmd.OutOrStdout())
			if err := r.Load(cmd.Context(), args[0]); err != nil {
				return errReported
			}
			if err := r.Ask(cmd.Context(), args[1]); err != nil {
				return errReported
			}
			return nil
		},
	}
}

func newExtractCmd(flags *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Print the text extracted from FILE, page by page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags, nil)
			if err != nil {
				return err
			}
			defer closeApp(a)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := a.Ingest.Extract(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"format":   doc.Format,
					"pages":    doc.PageCount(),
					"segments": doc.Segments,
				})
			}
			for _, seg := range doc.Segments {
				fmt.Fprintf(out, "--- page %d ---\n%s\n", seg.PageNumber, seg.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print segments as JSON")
	return cmd
}

func newChatCmd(flags *rootFlags) *cobra.Command {
	var watchDir string
	cmd := &cobra.Command{
		Use:   "chat [FILE]",
		Short: "Chat about a document in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags, func(cfg *config.Config) {
				if watchDir != "" {
					cfg.Watch.Dir = watchDir
				}
			})
			if err != nil {
				return err
			}
			defer closeApp(a)

			ctx := cmd.Context()
			sess := a.NewSession(flags.apiKey)
			r := a.REPL(sess, cmd.InOrStdin(), cmd.OutOrStdout())
			if len(args) == 1 {
				_ = r.Load(ctx, args[0])
			}

			var events <-chan ports.FileEvent
			if dir := a.Cfg.Watch.Dir; dir != "" {
				ev, stop, err := a.Watch(ctx, dir)
				if err != nil {
					return err
				}
				defer stop()
				events = ev
			}
			return r.Run(ctx, events)
		},
	}
	cmd.Flags().StringVar(&watchDir, "watch", "", "load documents dropped into this directory")
	return cmd
}

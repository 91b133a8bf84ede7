package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"designate/internal/tui"
	"designate/pkg/logging"
	"designate/pkg/probe"
)

func (a *app) newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Drive the dispatcher interactively from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			// The alternate screen owns stdout; logs still reach the file
			// and the capture buffer shown in the status area.
			logging.Console = io.Discard
			cleanupLogs, err := logging.Init(&cfg.Log)
			if err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			defer cleanupLogs()

			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := probe.AnalyzeResults(probe.Run(ctx, rt.probes())); err != nil {
				return fmt.Errorf("startup checks failed: %w", err)
			}
			slog.Info("Interactive session started")

			return tui.Run(ctx, tui.Deps{
				Loop:     rt.loop,
				Ctrl:     rt.ctrl,
				Host:     rt.host,
				Defs:     rt.source,
				Settings: rt.settings,
				Stats:    rt.stats,
			}, time.Duration(cfg.Ticker.Frame))
		},
	}
}

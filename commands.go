package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"research-dash/internal/admin"
	"research-dash/internal/app"
	"research-dash/internal/config"
	"research-dash/internal/progress"
	"research-dash/internal/terminal"
	"research-dash/internal/tui"
	"research-dash/internal/view"
)

func progressOptions(cfg *config.Config) progress.Options {
	return progress.Options{
		Interval: cfg.Progress.Interval,
		Limit:    cfg.Progress.Limit,
		Ceiling:  cfg.Progress.Ceiling,
		MaxStep:  cfg.Progress.MaxStep,
	}
}

// runDashboard wires the controller, admin panel and health monitor to the
// Bubble Tea program and blocks until the user quits.
func runDashboard(ctx context.Context, e *env) error {
	var (
		health *app.HealthMonitor
		adm    *admin.Manager
	)

	err := tui.Run(ctx, func(b *tui.Bridge) tui.Deps {
		ctrl := app.NewController(e.client, e.history, e.exporter, b, e.controllerOptions(), e.logger)
		adm = admin.NewManager(e.client, e.exporter, b, e.cfg.Polling.AdminInterval, e.cfg.UI.LogLines, e.logger)
		health = app.NewHealthMonitor(e.client, b, e.cfg.Polling.HealthInterval, e.logger)
		return tui.Deps{
			Controller:    ctrl,
			Admin:         adm,
			Health:        health,
			ToastDuration: e.cfg.UI.ToastDuration,
			LineCounts:    admin.LineCounts,
		}
	})

	adm.Hide()
	health.Stop()
	return err
}

// checkHealth reports the backend state without failing the command
func checkHealth(ctx context.Context, e *env) view.Connection {
	status, err := e.client.CheckHealth(ctx)
	conn := view.ConnectionFor(status, err)
	e.display.SetConnection(conn)
	if err != nil {
		e.logger.Warn("health check failed", zap.Error(err))
		e.display.PrintWarning(view.ErrorMessage(err, e.cfg.BackendPort()))
	}
	return conn
}

func askCmd(flags *globalFlags) *cobra.Command {
	var (
		sessionID string
		doExport  bool
		withHTML  bool
	)
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Submit a research question and print the answer",
		Example: `  research-dash ask "What are the latest advances in quantum error correction?"
  research-dash ask --export --html "How do mRNA vaccines work?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(flags, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()

			// Backend health check (non-fatal)
			checkHealth(ctx, e)

			opts := e.controllerOptions()
			opts.SessionID = sessionID
			ctrl := app.NewController(e.client, e.history, e.exporter, e.display, opts, e.logger)

			if _, err := ctrl.Submit(ctx, strings.Join(args, " ")); err != nil {
				return err
			}
			if doExport || withHTML {
				if _, err := ctrl.ExportLast(withHTML); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session ID to send instead of a generated one")
	cmd.Flags().BoolVar(&doExport, "export", false, "save the result as JSON in the export directory")
	cmd.Flags().BoolVar(&withHTML, "html", false, "also save the answer as HTML (implies --export)")
	return cmd
}

func healthCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the research backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(flags, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if conn := checkHealth(cmd.Context(), e); conn.State == view.ConnectionError {
				return errors.New("backend unreachable")
			}
			return nil
		},
	}
}

func historyCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear the local research history",
		Args:  cobra.NoArgs,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recent research queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(flags, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			e.display.PrintHistory(view.HistoryItems(e.history.List(), e.cfg.UI.HistoryPreview))
			return nil
		},
	}

	clearHistory := &cobra.Command{
		Use:   "clear",
		Short: "Delete the local research history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(flags, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.history.Clear(); err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
			e.display.PrintSuccess("History cleared")
			return nil
		},
	}

	// Bare "history" lists
	cmd.RunE = list.RunE
	cmd.AddCommand(list, clearHistory)
	return cmd
}

func adminCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Inspect backend analytics and logs",
	}

	// newManager builds an admin manager rendering to the line-mode display
	newManager := func(e *env, lines int) *admin.Manager {
		return admin.NewManager(e.client, e.exporter, e.display, e.cfg.Polling.AdminInterval, lines, e.logger)
	}

	var exportAnalytics bool
	analytics := &cobra.Command{
		Use:   "analytics",
		Short: "Show query and tool usage analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(flags, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			mgr := newManager(e, e.cfg.UI.LogLines)
			if err := mgr.LoadAnalytics(cmd.Context()); err != nil {
				return err
			}
			if exportAnalytics {
				_, err := mgr.ExportAnalytics(cmd.Context())
				return err
			}
			return nil
		},
	}
	analytics.Flags().BoolVar(&exportAnalytics, "export", false, "save the analytics snapshot as JSON")

	var lines int
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Show the most recent backend log lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(admin.LineCounts, lines) {
				return fmt.Errorf("%w: %d (choose one of %v)", admin.ErrInvalidLineCount, lines, admin.LineCounts)
			}
			e, err := newEnv(flags, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			return newManager(e, lines).LoadLogs(cmd.Context())
		},
	}
	logs.Flags().IntVar(&lines, "lines", 100, "number of lines (50, 100, 200 or 500)")

	download := &cobra.Command{
		Use:   "download-logs",
		Short: "Save the backend log file to the export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(flags, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			_, err = newManager(e, e.cfg.UI.LogLines).DownloadLogs(cmd.Context())
			return err
		},
	}

	var yes bool
	clearLogs := &cobra.Command{
		Use:   "clear-logs",
		Short: "Clear the backend log file (a backup is kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(flags, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			prompter := terminal.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			confirm := func() bool {
				return yes || prompter.Confirm("Clear all backend logs? A backup is kept but this cannot be undone.")
			}
			_, err = newManager(e, e.cfg.UI.LogLines).ClearLogs(cmd.Context(), confirm)
			if errors.Is(err, admin.ErrNotConfirmed) {
				e.display.PrintInfo("Cancelled")
			}
			return err
		},
	}
	clearLogs.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Refresh analytics and logs until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(flags, cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			mgr := newManager(e, e.cfg.UI.LogLines)
			mgr.Show(ctx)
			<-ctx.Done()
			mgr.Hide()
			return nil
		},
	}

	cmd.AddCommand(analytics, logs, download, clearLogs, watch)
	return cmd
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"research-dash/internal/api"
	"research-dash/internal/app"
	"research-dash/internal/config"
	"research-dash/internal/export"
	"research-dash/internal/history"
	"research-dash/internal/logging"
	"research-dash/internal/storage"
	"research-dash/internal/terminal"
	"research-dash/internal/ui"
)

func main() {
	// A missing .env is fine; values may come from the config file or the environment.
	_ = godotenv.Load()

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints a command failure through the line-mode display
func reportError(w io.Writer, err error) {
	f, ok := w.(*os.File)
	ui.NewDisplay(w, 80, ok && terminal.IsTerminal(f)).PrintError(err)
}

// globalFlags are shared by every command
type globalFlags struct {
	configPath string
	backend    string
	verbose    bool
}

// env holds the components a command runs against
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    storage.KV
	client   *api.Client
	history  *history.Manager
	exporter *export.Exporter
	display  *ui.Display
}

// newEnv loads configuration and builds the shared components. Line-mode
// output goes to the command's output stream.
func newEnv(flags *globalFlags, cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.backend != "" {
		cfg.Backend.BaseURL = flags.backend
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	logger, err := logging.New(cfg.Logging.File, cfg.Logging.Level, flags.verbose)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.History.Driver, cfg.History.Path, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("open history store: %w", err)
	}

	out := cmd.OutOrStdout()
	interactive := false
	width := 80
	if f, ok := out.(*os.File); ok && terminal.IsTerminal(f) {
		interactive = true
		width, _ = terminal.Size(f)
	}

	logger.Debug("environment ready",
		zap.String("backend", cfg.Backend.BaseURL),
		zap.String("history_driver", cfg.History.Driver),
		zap.String("history_path", cfg.History.Path))

	return &env{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		client:   api.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger),
		history:  history.NewManager(store, cfg.History.MaxEntries, logger),
		exporter: export.New(cfg.Export.Dir, logger),
		display:  ui.NewDisplay(out, width, interactive),
	}, nil
}

func (e *env) Close() {
	e.display.Cleanup()
	if err := e.store.Close(); err != nil {
		e.logger.Warn("failed to close history store", zap.Error(err))
	}
	_ = e.logger.Sync()
}

// controllerOptions maps configuration onto the research controller
func (e *env) controllerOptions() app.Options {
	return app.Options{
		Progress:       progressOptions(e.cfg),
		SettleDelay:    e.cfg.Progress.SettleDelay,
		HistoryPreview: e.cfg.UI.HistoryPreview,
		BackendPort:    e.cfg.BackendPort(),
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "research-dash",
		Short: "Terminal dashboard for the research agent backend",
		Long: `research-dash submits research questions to the research agent backend,
shows its progress and answers, keeps a local query history and exposes
the backend's analytics and logs.

Run without a subcommand for the interactive dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(flags, cmd)
			if err != nil {
				return err
			}
			defer e.Close()
			return runDashboard(cmd.Context(), e)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "research backend URL")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		askCmd(flags),
		healthCmd(flags),
		historyCmd(flags),
		adminCmd(flags),
	)
	return root
}

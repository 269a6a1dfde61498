// Package cli wires configuration, storage and the services into the
// punchclock command tree.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/punchclock/internal/apperr"
	"github.com/sadopc/punchclock/internal/clock"
	"github.com/sadopc/punchclock/internal/config"
	"github.com/sadopc/punchclock/internal/report"
	"github.com/sadopc/punchclock/internal/store"
	"github.com/sadopc/punchclock/internal/tracker"
)

var (
	cfgFile  string
	dbPath   string
	userFlag int64
	logLevel string
)

// env is built once per invocation by the root PersistentPreRunE.
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	clock   clock.Clock
	store   *store.Store
	tracker *tracker.Service
	reports *report.Service
}

var app *env

var rootCmd = &cobra.Command{
	Use:   "punchclock",
	Short: "punchclock – work sessions, breaks and reports",
	Long: `punchclock tracks work sessions with breaks, builds daily, weekly and
monthly reports, and can serve everything over a JSON API.
Data is stored in a single SQLite file (~/.punchclock/punchclock.db by default).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called from main.
func Execute() {
	err := rootCmd.Execute()
	teardown()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", errorText(err))
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ~/.punchclock/config.toml)")
	pf.StringVar(&dbPath, "db", "", "database path, overrides the config file")
	pf.Int64Var(&userFlag, "user", 1, "user id to act as")
	pf.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(breakCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(endCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(shareCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	s, err := store.New(cfg.DBPath, store.WithDefaultTimezone(cfg.DefaultTimezone))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	clk := clock.System{}
	app = &env{
		cfg:     cfg,
		log:     logger,
		clock:   clk,
		store:   s,
		tracker: tracker.NewService(s, clk, logger),
		reports: report.NewService(s, clk, logger),
	}
	logger.Debug("database opened", "path", cfg.DBPath, "command", cmd.Name())
	return nil
}

func teardown() {
	if app == nil {
		return
	}
	if err := app.store.Close(); err != nil {
		app.log.Warn("close database", "err", err)
	}
	app = nil
}

// newLogger writes text logs to stderr so stdout stays clean for exports.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// errorText prefers the user-facing message of classified errors.
func errorText(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

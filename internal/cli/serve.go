package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/sadopc/punchclock/internal/httpapi"
	"github.com/sadopc/punchclock/internal/tui"
)

var (
	serveAddr string
	tokenTTL  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and print the schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Opening the store already migrated it.
		version, dirty, err := app.store.SchemaVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d (dirty: %t) at %s\n", version, dirty, app.cfg.DBPath)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API bearer token for --user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := app.cfg.RequireSecret(); err != nil {
			return err
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = time.Duration(app.cfg.TokenTTLHours) * time.Hour
		}
		tok, err := httpapi.IssueToken(app.cfg.JWTSecret, userFlag, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return tui.Run(ctx, app.tracker, app.clock, userFlag)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default token_ttl_hours from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := app.cfg
	if err := cfg.RequireSecret(); err != nil {
		return err
	}
	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(app.tracker, app.reports, httpapi.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         app.log,
		Health:         app.store,
		Clock:          app.clock,
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		app.log.Info("listening", "addr", addr, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

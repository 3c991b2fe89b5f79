// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fedeportal Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/fedeportal/fedeportal/internal/auth"
	authpg "github.com/fedeportal/fedeportal/internal/auth/postgres"
	"github.com/fedeportal/fedeportal/internal/config"
	"github.com/fedeportal/fedeportal/internal/logging"
	"github.com/fedeportal/fedeportal/internal/observability"
	"github.com/fedeportal/fedeportal/internal/store"
	"github.com/fedeportal/fedeportal/internal/web"
	"github.com/fedeportal/fedeportal/pkg/errutil"
)

// Shutdown and housekeeping intervals.
const (
	shutdownTimeout      = 10 * time.Second
	sessionPurgeInterval = time.Hour
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the portal web server",
		Long: `Runs schema migrations and starts the portal web server together
with the observability endpoints. Stops gracefully on SIGINT/SIGTERM.`,
		RunE: runServe,
	}

	cmd.Flags().String("listen-addr", "", "web server listen address")
	cmd.Flags().String("database-url", "", "PostgreSQL connection string")
	cmd.Flags().String("observability-addr", "", "metrics/health listen address")
	cmd.Flags().String("log-format", "", "log format (json or text)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("fedeportal", version, cfg.LogFormat)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := store.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close() //nolint:errcheck // migration error takes precedence
		return err
	}
	if err := migrator.Close(); err != nil {
		return err
	}

	accounts := authpg.NewAccountRepository(pool)
	sessions := authpg.NewSessionRepository(pool)
	hasher := auth.NewArgon2idHasher()

	authService, err := auth.NewAuthService(accounts, sessions, hasher)
	if err != nil {
		return err
	}
	registrationService, err := auth.NewRegistrationService(accounts, hasher)
	if err != nil {
		return err
	}

	obsServer := observability.NewServer(cfg.ObservabilityAddr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})
	obsErrCh, err := obsServer.Start()
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "start observability server").Wrap(err)
	}

	webServer, err := web.NewServer(web.Options{
		Addr:         cfg.ListenAddr,
		Auth:         authService,
		Registration: registrationService,
		CookieName:   cfg.CookieName,
		CookieSecure: cfg.CookieSecure,
		Metrics:      obsServer.Metrics(),
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	webErrCh, err := webServer.Start()
	if err != nil {
		return oops.Code("SERVE_FAILED").With("operation", "start web server").Wrap(err)
	}

	// Periodic session hygiene; failures are logged and retried next tick.
	go purgeSessionsLoop(ctx, authService, logger)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-webErrCh:
		if err != nil {
			errutil.LogError(logger, "web server failed", err)
		}
	case err := <-obsErrCh:
		if err != nil {
			errutil.LogError(logger, "observability server failed", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := webServer.Stop(shutdownCtx); err != nil {
		errutil.LogError(logger, "web server shutdown failed", err)
	}
	if err := obsServer.Stop(shutdownCtx); err != nil {
		errutil.LogError(logger, "observability server shutdown failed", err)
	}

	return nil
}

// purgeSessionsLoop deletes expired sessions once per interval until ctx ends.
func purgeSessionsLoop(ctx context.Context, authService *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := authService.PurgeExpiredSessions(ctx); err != nil {
				errutil.LogError(logger, "session purge failed", err)
			}
		}
	}
}

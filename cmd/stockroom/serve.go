package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"stockroom/internal/app"
	"stockroom/internal/version"
)

const shutdownTimeout = 30 * time.Second

// lifecycle is the part of app.App that run drives.
type lifecycle interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			slog.Info("starting stockroom",
				"version", version.Version,
				"commit", version.Commit,
				"build_date", version.Date,
			)

			application, err := app.New(cmd.Context(), app.Config{AppConfig: cfg})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, application, ":"+cfg.Server.Port, shutdownTimeout)
		},
	}
}

// run serves until ctx is cancelled or the server stops on its own, then
// shuts the application down. It returns only after Shutdown has finished,
// because Start returns as soon as the listener closes while requests are
// still draining and storage is still open.
func run(ctx context.Context, l lifecycle, addr string, timeout time.Duration) error {
	startErr := make(chan error, 1)
	go func() { startErr <- l.Start(addr) }()

	var serveErr error
	stopped := false
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case serveErr = <-startErr:
		stopped = true
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	shutdownErr := l.Shutdown(shutdownCtx)

	if !stopped {
		serveErr = <-startErr
	}
	return errors.Join(serveErr, shutdownErr)
}

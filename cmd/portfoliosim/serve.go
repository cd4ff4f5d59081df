package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/efreitasn/portfoliosim/internal/engine"
	"github.com/efreitasn/portfoliosim/internal/handler"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the market and portfolio over HTTP. Prices advance every
TICK_INTERVAL when it is set, or on POST /market/step otherwise. The
portfolio is saved on shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	a, err := setup(os.Stdout, 0)
	if err != nil {
		return err
	}
	logger := a.logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.session.Load(ctx)

	ticker := engine.NewTicker(a.cfg.TickInterval, a.session)
	if ticker.Enabled() {
		logger.Info("price ticker enabled", slog.Duration("interval", a.cfg.TickInterval))
		ticker.Start(ctx)
	}

	router := handler.NewRouter(a.session, a.metrics.Handler(), logger)

	addr := fmt.Sprintf(":%d", a.cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	// Save failures are already logged by the session.
	_ = a.session.Save(shutdownCtx)

	logger.Info("server stopped")
	return nil
}

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

	"acrossfc/bootstrap"
	"acrossfc/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "acrossfc-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := bootstrap.BuildApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()

	slog.Info("starting acrossfc server",
		"environment", cfg.Environment,
		"profile", cfg.Profile,
		"tier", cfg.FC.Tier,
		"address", cfg.Server.Address,
		"storage_adapter", cfg.Storage.Adapter)

	srv := app.Server

	go app.RunSyncLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	slog.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// loadConfig reads ACROSSFC_CONFIG_FILE when set, otherwise the environment.
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("ACROSSFC_CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	if profile := os.Getenv("ACROSSFC_PROFILE"); profile != "" {
		return config.LoadProfile(profile)
	}
	return config.Load()
}

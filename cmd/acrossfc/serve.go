package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"acrossfc/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and scheduled FFLogs syncs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		return withApp(ctx, func(app *bootstrap.App) error {
			go app.RunSyncLoop(ctx)

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("server listening", "address", app.Server.Addr, "tier", app.Catalog.Tier)
				if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
			defer cancel()
			return app.Server.Shutdown(shutdownCtx)
		})
	},
}

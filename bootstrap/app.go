// Package bootstrap assembles the FC points components from configuration.
package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"acrossfc/analytics"
	"acrossfc/api/httpapi"
	"acrossfc/config"
	"acrossfc/core"
	"acrossfc/discord"
	"acrossfc/engine"
	"acrossfc/fflogs"
	"acrossfc/gamify"
	"acrossfc/integrations/webhook"
	"acrossfc/realtime"
)

var _ engine.DataProvider = (*fflogs.Client)(nil)

// App aggregates the assembled components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Catalog *core.TierCatalog
	Store   Store
	FFLogs  *fflogs.Client
	Discord *discord.Client
	Hub     *realtime.Hub
	Metrics *analytics.Metrics
	Stats   *analytics.CategoryTotals
	Webhook *webhook.Sink
	Service *engine.PointsService
	Syncer  *engine.Syncer
	Handler http.Handler
	Server  *http.Server
}

func provideLogger(cfg *config.Config) (*slog.Logger, func()) {
	logger, closer := SetupLogging(cfg.Logging)
	return logger, func() { _ = closer.Close() }
}

func provideCatalog(cfg *config.Config) (*core.TierCatalog, error) {
	return core.CatalogFor(core.Tier(cfg.FC.Tier))
}

func provideStore(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	return OpenStore(ctx, cfg.Storage)
}

func provideFFLogs(cfg *config.Config, logger *slog.Logger) *fflogs.Client {
	return fflogs.New(cfg.FFLogsClientConfig(), logger)
}

func provideDiscord(cfg *config.Config, logger *slog.Logger) (*discord.Client, error) {
	return discord.New(cfg.DiscordClientConfig(), logger)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideMetrics(cfg *config.Config) *analytics.Metrics {
	return analytics.NewMetrics(cfg.Metrics.Namespace)
}

func provideStats() *analytics.CategoryTotals {
	return analytics.NewCategoryTotals()
}

func provideWebhook(cfg *config.Config, logger *slog.Logger) (*webhook.Sink, error) {
	session, err := discord.NewSession("", cfg.Discord.BaseURL, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return webhook.New(cfg.Discord.WebhookURLs,
		webhook.WithSession(session),
		webhook.WithUsername(cfg.FC.Name),
		webhook.WithLogger(logger),
	)
}

func provideService(ctx context.Context, cfg *config.Config, logger *slog.Logger, ff *fflogs.Client, store Store,
	hub *realtime.Hub, metrics *analytics.Metrics, stats *analytics.CategoryTotals, sink *webhook.Sink) (*engine.PointsService, func(), error) {
	hooks := []gamify.Hook{metrics, stats}
	if cfg.Discord.AwardNotices {
		hooks = append(hooks, sink)
	}
	svc, err := gamify.New(ff,
		gamify.WithTier(core.Tier(cfg.FC.Tier)),
		gamify.WithStorage(store),
		gamify.WithRealtime(hub),
		gamify.WithHooks(hooks...),
		gamify.WithObserver(metrics),
		gamify.WithLogger(logger),
		gamify.WithDispatchMode(engine.DispatchAsync),
	)
	if err != nil {
		return nil, nil, err
	}
	if err := svc.SeedLeaderboard(ctx); err != nil {
		svc.Close()
		return nil, nil, err
	}
	return svc, svc.Close, nil
}

func provideSyncer(cfg *config.Config, logger *slog.Logger, ff *fflogs.Client, store Store, catalog *core.TierCatalog) *engine.Syncer {
	return engine.NewSyncer(ff, store, catalog, logger, cfg.FC.SyncConcurrency)
}

func provideHandler(cfg *config.Config, svc *engine.PointsService, store Store, catalog *core.TierCatalog,
	hub *realtime.Hub, metrics *analytics.Metrics, stats *analytics.CategoryTotals) http.Handler {
	deps := httpapi.Deps{Service: svc, Clears: store, Catalog: catalog, Hub: hub, Stats: stats}
	if cfg.Metrics.Enabled {
		deps.Metrics = metrics.Handler()
	}
	return httpapi.NewMux(deps, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// SyncOnce refreshes the roster and clears and records the run.
func (a *App) SyncOnce(ctx context.Context) (engine.SyncResult, error) {
	res, err := a.Syncer.Sync(ctx)
	a.Metrics.SyncObserved(res.ClearsAdded, err)
	return res, err
}

// RunSyncLoop syncs every FC.SyncInterval until ctx is done. A zero
// interval disables the loop.
func (a *App) RunSyncLoop(ctx context.Context) {
	interval := a.Config.FC.SyncInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.SyncOnce(ctx); err != nil {
				a.Logger.Error("scheduled fflogs sync failed", "error", err)
			}
		}
	}
}

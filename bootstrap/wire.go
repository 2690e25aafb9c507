//go:build wireinject
// +build wireinject

package bootstrap

import (
	"context"

	"github.com/google/wire"

	"acrossfc/config"
)

// BuildApp wires the components using Google Wire.
func BuildApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		provideLogger,
		provideCatalog,
		provideStore,
		provideFFLogs,
		provideDiscord,
		provideHub,
		provideMetrics,
		provideStats,
		provideWebhook,
		provideService,
		provideSyncer,
		provideHandler,
		provideServer,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

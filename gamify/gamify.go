// Package gamify assembles a PointsService from its parts.
package gamify

import (
	"context"
	"log/slog"

	mem "acrossfc/adapters/memory"
	"acrossfc/core"
	"acrossfc/engine"
	"acrossfc/realtime"
)

// Hook receives every awarded points event.
type Hook interface {
	OnEvent(ctx context.Context, ev core.PointsEvent)
}

// Option configures the service builder.
type Option func(*config)

type config struct {
	tier     core.Tier
	storage  engine.Storage
	mode     engine.DispatchMode
	hub      *realtime.Hub
	hooks    []Hook
	observer engine.Observer
	logger   *slog.Logger
	evalOpts []engine.EvaluatorOption
}

// WithTier selects the submissions tier.
func WithTier(t core.Tier) Option { return func(c *config) { c.tier = t } }

// WithStorage sets the persistence adapter.
func WithStorage(s engine.Storage) Option { return func(c *config) { c.storage = s } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all awarded events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithHooks subscribes hooks to all awarded events.
func WithHooks(hooks ...Hook) Option {
	return func(c *config) { c.hooks = append(c.hooks, hooks...) }
}

// WithObserver sets the evaluation outcome observer.
func WithObserver(o engine.Observer) Option { return func(c *config) { c.observer = o } }

func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithEvaluatorOptions passes options through to the evaluator.
func WithEvaluatorOptions(opts ...engine.EvaluatorOption) Option {
	return func(c *config) { c.evalOpts = append(c.evalOpts, opts...) }
}

// New builds a PointsService evaluating fights from provider. If not provided, defaults are used:
//   - tier: 6_4
//   - storage: in-memory
//   - dispatch: async
func New(provider engine.DataProvider, opts ...Option) (*engine.PointsService, error) {
	cfg := &config{tier: "6_4", mode: engine.DispatchAsync, logger: slog.Default()}
	for _, o := range opts {
		o(cfg)
	}
	catalog, err := core.CatalogFor(cfg.tier)
	if err != nil {
		return nil, err
	}
	if cfg.storage == nil {
		cfg.storage = mem.New()
	}

	evalOpts := append([]engine.EvaluatorOption{engine.WithLogger(cfg.logger)}, cfg.evalOpts...)
	evaluator := engine.NewPointsEvaluator(provider, cfg.storage, catalog, evalOpts...)

	svcOpts := []engine.ServiceOption{engine.WithServiceLogger(cfg.logger)}
	if cfg.observer != nil {
		svcOpts = append(svcOpts, engine.WithObserver(cfg.observer))
	}
	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewPointsService(evaluator, cfg.storage, bus, svcOpts...)

	if cfg.hub != nil {
		bus.Subscribe(engine.AllCategories, cfg.hub.Broadcast)
	}
	for _, h := range cfg.hooks {
		bus.Subscribe(engine.AllCategories, h.OnEvent)
	}
	return svc, nil
}

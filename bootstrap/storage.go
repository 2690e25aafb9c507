package bootstrap

import (
	"context"
	"fmt"

	"acrossfc/adapters/jsonfile"
	mem "acrossfc/adapters/memory"
	redisAdapter "acrossfc/adapters/redis"
	sqlxAdapter "acrossfc/adapters/sqlx"
	"acrossfc/config"
	"acrossfc/engine"
)

// Store is a backend holding both points and the roster/clears data.
type Store interface {
	engine.Storage
	engine.ClearStore
}

var (
	_ Store = (*mem.Store)(nil)
	_ Store = (*jsonfile.Store)(nil)
	_ Store = (*redisAdapter.Store)(nil)
	_ Store = (*sqlxAdapter.Store)(nil)
)

// OpenStore creates the storage adapter selected by configuration. The
// cleanup function closes network backends.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (Store, func(), error) {
	noop := func() {}
	switch cfg.Adapter {
	case "memory":
		return mem.New(), noop, nil
	case "file":
		s, err := jsonfile.New(cfg.File.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file storage: %w", err)
		}
		return s, noop, nil
	case "redis":
		s, err := redisAdapter.New(cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case "sql":
		s, err := sqlxAdapter.New(cfg.SQL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sql storage: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage adapter: %s", cfg.Adapter)
	}
}

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"acrossfc/core"
)

// SyncResult summarizes a roster and clears refresh.
type SyncResult struct {
	Members     int `json:"members"`
	ClearsSeen  int `json:"clears_seen"`
	ClearsAdded int `json:"clears_added"`
	Encounters  int `json:"encounters"`
}

// Syncer refreshes the stored FC roster and member clears from FFLogs.
type Syncer struct {
	provider    DataProvider
	store       ClearStore
	catalog     *core.TierCatalog
	logger      *slog.Logger
	concurrency int
}

func NewSyncer(provider DataProvider, store ClearStore, catalog *core.TierCatalog, logger *slog.Logger, concurrency int) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Syncer{provider: provider, store: store, catalog: catalog, logger: logger, concurrency: concurrency}
}

// Sync replaces the stored roster and adds any new clears of the active
// tracked encounters.
func (s *Syncer) Sync(ctx context.Context) (SyncResult, error) {
	roster, err := s.provider.GetFCRoster(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to get fc roster: %w", err)
	}
	if err := s.store.SaveRoster(ctx, roster); err != nil {
		return SyncResult{}, fmt.Errorf("failed to save roster: %w", err)
	}

	encounters := s.catalog.ActiveTrackedEncounters()
	var (
		mu  sync.Mutex
		all []core.Clear
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, m := range roster {
		m := m
		g.Go(func() error {
			s.logger.Info("getting clear data", "member", m.Name)
			clears, err := s.provider.GetClearsForMember(gctx, m, encounters)
			if err != nil {
				return fmt.Errorf("failed to get clears for %s: %w", m.Name, err)
			}
			mu.Lock()
			all = append(all, clears...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SyncResult{}, err
	}

	added, err := s.store.SaveClears(ctx, all)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to save clears: %w", err)
	}
	res := SyncResult{
		Members:     len(roster),
		ClearsSeen:  len(all),
		ClearsAdded: added,
		Encounters:  len(encounters),
	}
	s.logger.Info("fflogs sync complete",
		"members", res.Members,
		"clears_seen", res.ClearsSeen,
		"clears_added", res.ClearsAdded)
	return res, nil
}

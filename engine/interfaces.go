package engine

import (
	"context"

	"acrossfc/core"
)

// Storage persists points awards with key-value semantics per member and tier.
type Storage interface {
	// AddPointsEvent records an award and returns the member's new total.
	// It returns core.ErrOneTimeAwarded when the event's one-time category
	// is already recorded for the member in the tier.
	AddPointsEvent(ctx context.Context, tier core.Tier, ev core.PointsEvent) (newTotal int64, err error)
	// GetMemberPoints returns core.ErrMemberNotFound when the member has no record.
	GetMemberPoints(ctx context.Context, member core.MemberID, tier core.Tier) (core.MemberPoints, error)
	ListMemberPoints(ctx context.Context, tier core.Tier) ([]core.MemberPoints, error)
}

// ClearStore persists the FC roster and member clears used for reports.
type ClearStore interface {
	SaveRoster(ctx context.Context, members []core.Member) error
	Roster(ctx context.Context) ([]core.Member, error)
	// SaveClears stores clears not already present and returns how many were new.
	SaveClears(ctx context.Context, clears []core.Clear) (added int, err error)
	Clears(ctx context.Context) ([]core.Clear, error)
}

// DataProvider fetches fights, the roster, and clear history from FFLogs.
type DataProvider interface {
	GetFightData(ctx context.Context, fflogsURL string) (core.FightData, error)
	GetFCRoster(ctx context.Context) ([]core.Member, error)
	GetClearsForMember(ctx context.Context, member core.Member, encounters []core.Encounter) ([]core.Clear, error)
}

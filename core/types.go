package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrOneTimeAwarded is returned by storage when a one-time category was
	// already recorded for the member in the tier.
	ErrOneTimeAwarded = errors.New("one-time points already awarded")
	// ErrUnknownTier is returned for a submissions tier without a catalog.
	ErrUnknownTier = errors.New("domain constants not configured for tier")
	// ErrInvalidFFLogsURL is returned when a report URL cannot be parsed.
	ErrInvalidFFLogsURL = errors.New("invalid fflogs url")
	// ErrMemberNotFound is returned when a member has no points record.
	ErrMemberNotFound = errors.New("member not found")
)

// MemberID is the FFLogs character id of an FC member.
type MemberID int64

func (id MemberID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseMemberID parses a decimal member id.
func ParseMemberID(s string) (MemberID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.New("invalid member id")
	}
	if v <= 0 {
		return 0, errors.New("member id must be positive")
	}
	return MemberID(v), nil
}

// Member is a roster entry of the FC's FFLogs guild.
type Member struct {
	ID   MemberID `json:"id" db:"id"`
	Name string   `json:"name" db:"name"`
	Rank int      `json:"rank" db:"fc_rank"`
}

// Tier identifies a points submission period, e.g. "6_4".
type Tier string

// MemberPoints is the persisted points state of one member in one tier.
type MemberPoints struct {
	MemberID MemberID                    `json:"member_id"`
	Tier     Tier                        `json:"tier"`
	Total    int64                       `json:"total"`
	OneTime  map[PointsCategory]struct{} `json:"one_time"`
	Updated  time.Time                   `json:"updated"`
}

// NewMemberPoints returns an empty record.
func NewMemberPoints(member MemberID, tier Tier) MemberPoints {
	return MemberPoints{
		MemberID: member,
		Tier:     tier,
		OneTime:  map[PointsCategory]struct{}{},
	}
}

// HasOneTime reports whether the one-time category was already awarded.
func (p MemberPoints) HasOneTime(c PointsCategory) bool {
	_, ok := p.OneTime[c]
	return ok
}

// Clone returns a deep copy.
func (p MemberPoints) Clone() MemberPoints {
	cp := p
	cp.OneTime = make(map[PointsCategory]struct{}, len(p.OneTime))
	for k := range p.OneTime {
		cp.OneTime[k] = struct{}{}
	}
	return cp
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

package core

import (
	"fmt"
	"time"
)

// Clear is one recorded kill of a tracked encounter by a member.
type Clear struct {
	MemberID      MemberID  `json:"member_id"`
	Encounter     Encounter `json:"encounter"`
	StartTime     time.Time `json:"start_time"`
	HistoricalPct float64   `json:"historical_pct"`
	ReportCode    string    `json:"report_code"`
	ReportFightID int       `json:"report_fight_id"`
	Job           Job       `json:"job"`
	LockedIn      bool      `json:"locked_in"`
}

// Key identifies a clear for deduplication.
func (c Clear) Key() string {
	return fmt.Sprintf("%d:%s:%d", c.MemberID, c.ReportCode, c.ReportFightID)
}

// FightData describes one fight of an FFLogs report. Tracked is false when
// the fight's encounter is not in the catalog.
type FightData struct {
	ReportID    string    `json:"report_id"`
	FightID     int       `json:"fight_id"`
	Encounter   Encounter `json:"encounter"`
	Tracked     bool      `json:"tracked"`
	StartTime   time.Time `json:"start_time"`
	PlayerNames []string  `json:"player_names"`
}

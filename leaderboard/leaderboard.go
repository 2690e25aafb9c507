package leaderboard

import "acrossfc/core"

// Entry is a member's points total in the current tier. Rank is shared by
// members with equal points (1, 1, 3).
type Entry struct {
	Member core.MemberID `json:"member_id"`
	Score  int64         `json:"score"`
	Rank   int           `json:"rank"`
}

// Board keeps members ordered by points, highest first.
type Board interface {
	Update(member core.MemberID, score int64)
	Remove(member core.MemberID)
	TopN(n int) []Entry
	Get(member core.MemberID) (Entry, bool)
	Rank(member core.MemberID) (int, bool)
	Len() int
}

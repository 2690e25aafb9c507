package core

// PointsEvent is an immutable points award to one member.
type PointsEvent struct {
	UUID        string         `json:"uuid" db:"uuid"`
	MemberID    MemberID       `json:"member_id" db:"member_id"`
	Points      int64          `json:"points" db:"points"`
	Category    PointsCategory `json:"category" db:"category"`
	Description string         `json:"description" db:"description"`
	TS          int64          `json:"ts" db:"ts"`
}

// NewPointsEvent builds an award worth the category's points.
func NewPointsEvent(id string, member MemberID, category PointsCategory, description string, ts int64) PointsEvent {
	return PointsEvent{
		UUID:        id,
		MemberID:    member,
		Points:      category.Points(),
		Category:    category,
		Description: description,
		TS:          ts,
	}
}

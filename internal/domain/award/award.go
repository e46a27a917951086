package award

import "time"

// Award is something a team can nominate its members for.
type Award struct {
	TeamID          string
	AwardID         string
	Name            string
	Description     string
	CreatedByUserID int64
	CreatedAt       time.Time
}

package nomination

import "time"

// Nomination proposes a team member for an award in one reward cycle.
type Nomination struct {
	TeamID          string
	NominationID    string
	CycleID         string
	AwardID         string
	AwardName       string
	NomineeID       int64
	NomineeName     string
	NominatedByID   int64
	NominatedByName string
	Reason          string
	NominatedOn     time.Time

	AwardGranted     bool
	AwardPublishedOn *time.Time

	// Endorsements counts endorsements of the nominee for the same award and cycle.
	// Filled in by listing queries only.
	Endorsements int
}

// Endorsement supports a nominee for an award. Endorsements belong to the
// nominee and award, not to a single nomination, so every nomination of the
// same person for the same award shares them.
type Endorsement struct {
	TeamID       string
	CycleID      string
	AwardID      string
	NomineeID    int64
	EndorsedByID int64
	EndorsedOn   time.Time
}


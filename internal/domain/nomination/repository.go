package nomination

import (
	"context"
	"time"
)

// Repository defines the operations for persisting nominations and endorsements.
type Repository interface {
	// Create stores a new nomination. A member can nominate the same person
	// for the same award only once per cycle.
	Create(ctx context.Context, n *Nomination) error
	GetByID(ctx context.Context, teamID, nominationID string) (*Nomination, error)
	// ListByCycle returns the cycle's nominations with their endorsement counts.
	ListByCycle(ctx context.Context, teamID, cycleID string) ([]*Nomination, error)
	Endorse(ctx context.Context, e *Endorsement) error
	// MarkGranted flags the given nominations as award winners.
	MarkGranted(ctx context.Context, teamID string, nominationIDs []string, publishedOn time.Time) error
}

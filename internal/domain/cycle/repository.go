// internal/domain/cycle/repository.go
package cycle

import "context"

// Repository defines the storage operations the cycle engine and its drivers rely on.
type Repository interface {
	// GetCurrentCycle returns the most recently written cycle of a team.
	GetCurrentCycle(ctx context.Context, teamID string) (*Record, error)
	// GetPublishedCycle returns the team's cycle whose results were published last.
	GetPublishedCycle(ctx context.Context, teamID string) (*Record, error)
	GetAllCurrentCycles(ctx context.Context) ([]*Record, error)
	// GetAllActiveCycles returns current cycles whose stored state is Active.
	GetAllActiveCycles(ctx context.Context) ([]*Record, error)
	// Upsert overwrites the record stored under (TeamID, CycleID).
	Upsert(ctx context.Context, r *Record) (*Record, error)
}

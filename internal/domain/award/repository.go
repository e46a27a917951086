package award

import "context"

// Repository defines the operations for persisting and listing awards.
type Repository interface {
	Create(ctx context.Context, a *Award) error
	GetByName(ctx context.Context, teamID, name string) (*Award, error)
	ListByTeam(ctx context.Context, teamID string) ([]*Award, error)
}

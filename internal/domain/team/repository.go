package team

import (
	"context"
)

// Repository defines the operations for persisting and retrieving Team entities.
type Repository interface {
	Upsert(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, teamID string) (*Team, error)
	GetByChatID(ctx context.Context, chatID int64) (*Team, error)
}

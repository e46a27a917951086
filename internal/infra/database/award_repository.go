package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reward_recognition_bot/internal/domain/award"

	"github.com/google/uuid"
)

// Custom errors
var (
	ErrDuplicateAward = errors.New("award with this name already exists for the team")
	ErrAwardNotFound  = errors.New("award not found")
)

type AwardRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewAwardRepository(db *sql.DB) *AwardRepository {
	return &AwardRepository{db: db, now: time.Now}
}

// Create stores a new award. AwardID and CreatedAt are filled in when empty.
func (r *AwardRepository) Create(ctx context.Context, a *award.Award) error {
	query := `INSERT INTO awards (team_id, award_id, name, description, created_by_user_id, created_at)
               VALUES ($1, $2, $3, $4, $5, $6)`

	if a.AwardID == "" {
		a.AwardID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query, a.TeamID, a.AwardID, a.Name, a.Description, a.CreatedByUserID, a.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateAward
		}
		return fmt.Errorf("error creating award: %w", err)
	}
	return nil
}

// GetByName finds a team's award by name, ignoring case.
func (r *AwardRepository) GetByName(ctx context.Context, teamID, name string) (*award.Award, error) {
	query := `SELECT team_id, award_id, name, description, created_by_user_id, created_at
               FROM awards WHERE team_id = $1 AND LOWER(name) = LOWER($2)`

	a := &award.Award{}
	err := r.db.QueryRowContext(ctx, query, teamID, name).
		Scan(&a.TeamID, &a.AwardID, &a.Name, &a.Description, &a.CreatedByUserID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAwardNotFound
		}
		return nil, fmt.Errorf("error getting award %q: %w", name, err)
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

func (r *AwardRepository) ListByTeam(ctx context.Context, teamID string) ([]*award.Award, error) {
	query := `SELECT team_id, award_id, name, description, created_by_user_id, created_at
               FROM awards WHERE team_id = $1 ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("error listing awards: %w", err)
	}
	defer rows.Close()

	awards := make([]*award.Award, 0)
	for rows.Next() {
		a := &award.Award{}
		if err := rows.Scan(&a.TeamID, &a.AwardID, &a.Name, &a.Description, &a.CreatedByUserID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning award: %w", err)
		}
		a.CreatedAt = a.CreatedAt.UTC()
		awards = append(awards, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating awards: %w", err)
	}
	return awards, nil
}

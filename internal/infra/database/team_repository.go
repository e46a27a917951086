package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reward_recognition_bot/internal/domain/team"
)

// Custom errors
var ErrTeamNotFound = errors.New("team not found")

type TeamRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db, now: time.Now}
}

// Upsert registers the team or updates its title and champion. created_at is kept from the first insert.
func (r *TeamRepository) Upsert(ctx context.Context, t *team.Team) error {
	query := `INSERT INTO teams (team_id, chat_id, title, champion_telegram_id, created_at, updated_at)
               VALUES ($1, $2, $3, $4, $5, $6)
               ON CONFLICT (team_id) DO UPDATE SET
                   chat_id = excluded.chat_id,
                   title = excluded.title,
                   champion_telegram_id = excluded.champion_telegram_id,
                   updated_at = excluded.updated_at`

	now := r.now().UTC()
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err := r.db.ExecContext(ctx, query, t.TeamID, t.ChatID, t.Title, t.ChampionTelegramID, createdAt.UTC(), now)
	if err != nil {
		return fmt.Errorf("error upserting team: %w", err)
	}

	stored, err := r.GetByID(ctx, t.TeamID)
	if err != nil {
		return err
	}
	t.CreatedAt = stored.CreatedAt
	t.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (*team.Team, error) {
	query := `SELECT team_id, chat_id, title, champion_telegram_id, created_at, updated_at
               FROM teams WHERE team_id = $1`
	t, err := scanTeam(r.db.QueryRowContext(ctx, query, teamID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("error getting team by ID: %w", err)
	}
	return t, nil
}

func (r *TeamRepository) GetByChatID(ctx context.Context, chatID int64) (*team.Team, error) {
	query := `SELECT team_id, chat_id, title, champion_telegram_id, created_at, updated_at
               FROM teams WHERE chat_id = $1`
	t, err := scanTeam(r.db.QueryRowContext(ctx, query, chatID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("error getting team by chat ID: %w", err)
	}
	return t, nil
}

func scanTeam(row rowScanner) (*team.Team, error) {
	t := &team.Team{}
	if err := row.Scan(&t.TeamID, &t.ChatID, &t.Title, &t.ChampionTelegramID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

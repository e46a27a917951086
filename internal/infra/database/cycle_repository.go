package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reward_recognition_bot/internal/domain/cycle"
)

// Custom errors
var ErrCycleNotFound = errors.New("reward cycle not found")

const cycleColumns = `team_id, cycle_id, start_date, end_date, recurrence, occurrences_remaining, range_end_date,
    state, result_published, result_published_on, created_by_user_id, created_on, updated_at`

// currentCycleFilter keeps, per team, the rows written last.
const currentCycleFilter = `rc.updated_at = (SELECT MAX(latest.updated_at) FROM reward_cycles latest WHERE latest.team_id = rc.team_id)`

// CycleRepository stores cycle records in the reward_cycles table.
// Placeholders are numbered in order of appearance so the same SQL runs on PostgreSQL and SQLite.
type CycleRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewCycleRepository(db *sql.DB) *CycleRepository {
	return &CycleRepository{db: db, now: time.Now}
}

// cycleRow maps a record onto the reward_cycles columns: team_id is the
// partition key, cycle_id the row key, the rest are plain columns.
func cycleRow(r *cycle.Record, updatedAt time.Time) (partitionKey, rowKey string, columns []any) {
	return r.TeamID, r.CycleID, []any{
		r.StartDate.UTC(),
		r.EndDate.UTC(),
		string(r.Recurrence),
		r.OccurrencesRemaining,
		nullTime(r.RangeEndDate),
		string(r.State),
		string(r.ResultPublished),
		nullTime(r.ResultPublishedOn),
		r.CreatedByUserID,
		r.CreatedOn.UTC(),
		updatedAt.UTC(),
	}
}

// Upsert inserts the record or overwrites the row with the same (team_id, cycle_id).
func (r *CycleRepository) Upsert(ctx context.Context, rec *cycle.Record) (*cycle.Record, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: nil record", cycle.ErrInvalidRecord)
	}
	query := `INSERT INTO reward_cycles (` + cycleColumns + `)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
               ON CONFLICT (team_id, cycle_id) DO UPDATE SET
                   start_date = excluded.start_date,
                   end_date = excluded.end_date,
                   recurrence = excluded.recurrence,
                   occurrences_remaining = excluded.occurrences_remaining,
                   range_end_date = excluded.range_end_date,
                   state = excluded.state,
                   result_published = excluded.result_published,
                   result_published_on = excluded.result_published_on,
                   created_by_user_id = excluded.created_by_user_id,
                   created_on = excluded.created_on,
                   updated_at = excluded.updated_at`

	updatedAt := r.now().UTC()
	teamID, cycleID, columns := cycleRow(rec, updatedAt)
	args := append([]any{teamID, cycleID}, columns...)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("error upserting reward cycle %s for team %s: %w", cycleID, teamID, err)
	}

	stored := *rec
	stored.UpdatedAt = updatedAt
	return &stored, nil
}

func (r *CycleRepository) GetCurrentCycle(ctx context.Context, teamID string) (*cycle.Record, error) {
	query := `SELECT ` + cycleColumns + `
               FROM reward_cycles
               WHERE team_id = $1
               ORDER BY updated_at DESC, created_on DESC
               LIMIT 1`
	rec, err := scanCycle(r.db.QueryRowContext(ctx, query, teamID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCycleNotFound
		}
		return nil, fmt.Errorf("error getting current reward cycle: %w", err)
	}
	return rec, nil
}

func (r *CycleRepository) GetPublishedCycle(ctx context.Context, teamID string) (*cycle.Record, error) {
	query := `SELECT ` + cycleColumns + `
               FROM reward_cycles
               WHERE team_id = $1 AND result_published = $2
               ORDER BY result_published_on DESC
               LIMIT 1`
	rec, err := scanCycle(r.db.QueryRowContext(ctx, query, teamID, string(cycle.PublishPublished)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCycleNotFound
		}
		return nil, fmt.Errorf("error getting published reward cycle: %w", err)
	}
	return rec, nil
}

func (r *CycleRepository) GetAllCurrentCycles(ctx context.Context) ([]*cycle.Record, error) {
	query := `SELECT ` + cycleColumns + `
               FROM reward_cycles rc
               WHERE ` + currentCycleFilter + `
               ORDER BY rc.team_id, rc.created_on DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying current reward cycles: %w", err)
	}
	defer rows.Close()
	return scanCurrentCycles(rows)
}

// GetAllActiveCycles only looks at current rows, so a superseded instance that
// was left Active never triggers reminders.
func (r *CycleRepository) GetAllActiveCycles(ctx context.Context) ([]*cycle.Record, error) {
	query := `SELECT ` + cycleColumns + `
               FROM reward_cycles rc
               WHERE ` + currentCycleFilter + ` AND rc.state = $1
               ORDER BY rc.team_id, rc.created_on DESC`
	rows, err := r.db.QueryContext(ctx, query, string(cycle.StateActive))
	if err != nil {
		return nil, fmt.Errorf("error querying active reward cycles: %w", err)
	}
	defer rows.Close()
	return scanCurrentCycles(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCycle(row rowScanner) (*cycle.Record, error) {
	var (
		rec         cycle.Record
		recurrence  string
		state       string
		published   string
		rangeEnd    sql.NullTime
		publishedOn sql.NullTime
	)
	err := row.Scan(
		&rec.TeamID, &rec.CycleID, &rec.StartDate, &rec.EndDate, &recurrence, &rec.OccurrencesRemaining, &rangeEnd,
		&state, &published, &publishedOn, &rec.CreatedByUserID, &rec.CreatedOn, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Recurrence = cycle.RecurrenceKind(recurrence)
	rec.State = cycle.State(state)
	rec.ResultPublished = cycle.PublishState(published)
	rec.RangeEndDate = timePtr(rangeEnd)
	rec.ResultPublishedOn = timePtr(publishedOn)
	rec.StartDate = rec.StartDate.UTC()
	rec.EndDate = rec.EndDate.UTC()
	rec.CreatedOn = rec.CreatedOn.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return &rec, nil
}

// scanCurrentCycles expects rows ordered by team and keeps the first row of each team.
func scanCurrentCycles(rows *sql.Rows) ([]*cycle.Record, error) {
	records := make([]*cycle.Record, 0)
	seen := make(map[string]bool)
	for rows.Next() {
		rec, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning reward cycle row: %w", err)
		}
		if seen[rec.TeamID] {
			continue
		}
		seen[rec.TeamID] = true
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reward cycle rows: %w", err)
	}
	return records, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

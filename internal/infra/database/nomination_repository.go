package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"reward_recognition_bot/internal/domain/nomination"

	"github.com/google/uuid"
)

// Custom errors
var (
	ErrNominationNotFound   = errors.New("nomination not found")
	ErrDuplicateNomination  = errors.New("member already nominated this person for this award in the current cycle")
	ErrDuplicateEndorsement = errors.New("member already endorsed this person for this award in the current cycle")
)

const nominationColumns = `n.team_id, n.nomination_id, n.cycle_id, n.award_id, n.award_name,
       n.nominee_id, n.nominee_name, n.nominated_by_id, n.nominated_by_name, n.reason,
       n.nominated_on, n.award_granted, n.award_published_on,
       (SELECT COUNT(*) FROM endorsements e
         WHERE e.team_id = n.team_id AND e.cycle_id = n.cycle_id
           AND e.award_id = n.award_id AND e.nominee_id = n.nominee_id)`

type NominationRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewNominationRepository(db *sql.DB) *NominationRepository {
	return &NominationRepository{db: db, now: time.Now}
}

// Create stores a new nomination. NominationID and NominatedOn are filled in when empty.
func (r *NominationRepository) Create(ctx context.Context, n *nomination.Nomination) error {
	query := `INSERT INTO nominations (team_id, nomination_id, cycle_id, award_id, award_name,
                                      nominee_id, nominee_name, nominated_by_id, nominated_by_name, reason,
                                      nominated_on, award_granted)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if n.NominationID == "" {
		n.NominationID = uuid.NewString()
	}
	if n.NominatedOn.IsZero() {
		n.NominatedOn = r.now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		n.TeamID, n.NominationID, n.CycleID, n.AwardID, n.AwardName,
		n.NomineeID, n.NomineeName, n.NominatedByID, n.NominatedByName, n.Reason,
		n.NominatedOn.UTC(), false,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateNomination
		}
		return fmt.Errorf("error creating nomination: %w", err)
	}
	return nil
}

func (r *NominationRepository) GetByID(ctx context.Context, teamID, nominationID string) (*nomination.Nomination, error) {
	query := `SELECT ` + nominationColumns + ` FROM nominations n WHERE n.team_id = $1 AND n.nomination_id = $2`

	n, err := scanNomination(r.db.QueryRowContext(ctx, query, teamID, nominationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNominationNotFound
		}
		return nil, fmt.Errorf("error getting nomination %s: %w", nominationID, err)
	}
	return n, nil
}

func (r *NominationRepository) ListByCycle(ctx context.Context, teamID, cycleID string) ([]*nomination.Nomination, error) {
	query := `SELECT ` + nominationColumns + `
               FROM nominations n
               WHERE n.team_id = $1 AND n.cycle_id = $2
               ORDER BY n.award_name, n.nominated_on, n.nomination_id`

	rows, err := r.db.QueryContext(ctx, query, teamID, cycleID)
	if err != nil {
		return nil, fmt.Errorf("error listing nominations: %w", err)
	}
	defer rows.Close()

	nominations := make([]*nomination.Nomination, 0)
	for rows.Next() {
		n, err := scanNomination(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning nomination: %w", err)
		}
		nominations = append(nominations, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nominations: %w", err)
	}
	return nominations, nil
}

// Endorse stores an endorsement. EndorsedOn is filled in when zero.
func (r *NominationRepository) Endorse(ctx context.Context, e *nomination.Endorsement) error {
	query := `INSERT INTO endorsements (team_id, cycle_id, award_id, nominee_id, endorsed_by_id, endorsed_on)
               VALUES ($1, $2, $3, $4, $5, $6)`

	if e.EndorsedOn.IsZero() {
		e.EndorsedOn = r.now().UTC()
	}
	_, err := r.db.ExecContext(ctx, query, e.TeamID, e.CycleID, e.AwardID, e.NomineeID, e.EndorsedByID, e.EndorsedOn.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEndorsement
		}
		return fmt.Errorf("error creating endorsement: %w", err)
	}
	return nil
}

// MarkGranted flags the nominations as granted in a single transaction.
func (r *NominationRepository) MarkGranted(ctx context.Context, teamID string, nominationIDs []string, publishedOn time.Time) error {
	if len(nominationIDs) == 0 {
		return nil
	}
	query := `UPDATE nominations SET award_granted = $1, award_published_on = $2
               WHERE team_id = $3 AND nomination_id = $4`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range nominationIDs {
		res, err := tx.ExecContext(ctx, query, true, publishedOn.UTC(), teamID, id)
		if err != nil {
			return fmt.Errorf("error granting nomination %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrNominationNotFound, id)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing granted nominations: %w", err)
	}
	return nil
}

func scanNomination(row rowScanner) (*nomination.Nomination, error) {
	n := &nomination.Nomination{}
	var publishedOn sql.NullTime
	err := row.Scan(
		&n.TeamID, &n.NominationID, &n.CycleID, &n.AwardID, &n.AwardName,
		&n.NomineeID, &n.NomineeName, &n.NominatedByID, &n.NominatedByName, &n.Reason,
		&n.NominatedOn, &n.AwardGranted, &publishedOn, &n.Endorsements,
	)
	if err != nil {
		return nil, err
	}
	n.NominatedOn = n.NominatedOn.UTC()
	n.AwardPublishedOn = timePtr(publishedOn)
	return n, nil
}

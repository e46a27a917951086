// internal/domain/cycle/cycle.go
package cycle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRecord marks a cycle record that cannot be evaluated or stored.
var ErrInvalidRecord = errors.New("invalid cycle record")

// RecurrenceKind is the policy that decides whether a cycle restarts after it ends.
type RecurrenceKind string

const (
	RecurrenceSingleOccurrence           RecurrenceKind = "SINGLE_OCCURRENCE"
	RecurrenceRepeatIndefinitely         RecurrenceKind = "REPEAT_INDEFINITELY"
	RecurrenceRepeatUntilEndDate         RecurrenceKind = "REPEAT_UNTIL_END_DATE"
	RecurrenceRepeatUntilOccurrenceCount RecurrenceKind = "REPEAT_UNTIL_OCCURRENCE_COUNT"
)

// Valid reports whether k is one of the known recurrence kinds.
func (k RecurrenceKind) Valid() bool {
	switch k {
	case RecurrenceSingleOccurrence, RecurrenceRepeatIndefinitely, RecurrenceRepeatUntilEndDate, RecurrenceRepeatUntilOccurrenceCount:
		return true
	default:
		return false
	}
}

// ParseRecurrenceKind accepts the stored names as well as the short forms used in bot commands.
func ParseRecurrenceKind(s string) (RecurrenceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "once", "single_occurrence":
		return RecurrenceSingleOccurrence, nil
	case "repeat", "indefinite", "repeat_indefinitely":
		return RecurrenceRepeatIndefinitely, nil
	case "until", "until_date", "repeat_until_end_date":
		return RecurrenceRepeatUntilEndDate, nil
	case "count", "times", "repeat_until_occurrence_count":
		return RecurrenceRepeatUntilOccurrenceCount, nil
	default:
		return "", fmt.Errorf("unknown recurrence kind %q", s)
	}
}

// State is derived on every evaluation and never set directly by callers.
type State string

const (
	StateActive   State = "ACTIVE"
	StateInactive State = "INACTIVE"
)

// PublishState tracks whether a champion has announced the winners of a cycle.
type PublishState string

const (
	PublishUnpublished PublishState = "UNPUBLISHED"
	PublishPublished   PublishState = "PUBLISHED"
)

// Record is the current nomination cycle of one team.
// Corresponds to a row of the 'reward_cycles' table keyed by (team_id, cycle_id).
type Record struct {
	TeamID               string
	CycleID              string
	StartDate            time.Time
	EndDate              time.Time
	Recurrence           RecurrenceKind
	OccurrencesRemaining int        // Only meaningful for RecurrenceRepeatUntilOccurrenceCount
	RangeEndDate         *time.Time // Only meaningful for RecurrenceRepeatUntilEndDate
	State                State
	ResultPublished      PublishState
	ResultPublishedOn    *time.Time
	CreatedByUserID      int64
	CreatedOn            time.Time
	UpdatedAt            time.Time
}

// IsPublished reports whether results were published for this instance.
func (r Record) IsPublished() bool {
	return r.ResultPublished == PublishPublished
}

// DurationDays is the length of the nomination window in whole calendar days.
func (r Record) DurationDays() int {
	return daysBetween(dateOf(r.StartDate), dateOf(r.EndDate))
}

// Validate checks the fields the recurrence engine and the store rely on.
func (r Record) Validate() error {
	switch {
	case strings.TrimSpace(r.TeamID) == "":
		return fmt.Errorf("%w: team id is empty", ErrInvalidRecord)
	case strings.TrimSpace(r.CycleID) == "":
		return fmt.Errorf("%w: cycle id is empty", ErrInvalidRecord)
	case r.StartDate.IsZero() || r.EndDate.IsZero():
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidRecord)
	case dateOf(r.EndDate).Before(dateOf(r.StartDate)):
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidRecord, r.EndDate.Format(time.DateOnly), r.StartDate.Format(time.DateOnly))
	case !r.Recurrence.Valid():
		return fmt.Errorf("%w: unknown recurrence kind %q", ErrInvalidRecord, r.Recurrence)
	case r.Recurrence == RecurrenceRepeatUntilOccurrenceCount && r.OccurrencesRemaining < 0:
		return fmt.Errorf("%w: negative occurrence count %d", ErrInvalidRecord, r.OccurrencesRemaining)
	case r.ResultPublished != PublishPublished && r.ResultPublished != PublishUnpublished:
		return fmt.Errorf("%w: unknown publish state %q", ErrInvalidRecord, r.ResultPublished)
	}
	return nil
}

// dateOf strips the time of day, in UTC.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween expects both arguments to be dates produced by dateOf.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

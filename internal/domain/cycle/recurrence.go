// internal/domain/cycle/recurrence.go
package cycle

import (
	"time"

	"github.com/google/uuid"
)

// Outcome describes what an evaluation did to a record.
type Outcome string

const (
	OutcomeUnchanged    Outcome = "unchanged"
	OutcomeTransitioned Outcome = "transitioned"
	OutcomeMinted       Outcome = "minted"
)

// Engine decides the next state of a cycle record. It performs no I/O.
// Boundaries are compared on the date component only, so a cycle stays
// Active for the whole of its end date.
type Engine struct {
	// NewID generates the id of a minted successor.
	NewID func() string
}

// NewEngine returns an Engine that mints random UUIDs.
func NewEngine() Engine {
	return Engine{NewID: uuid.NewString}
}

// Evaluate is a shorthand for NewEngine().Evaluate.
func Evaluate(current Record, now time.Time) (Record, Outcome) {
	return NewEngine().Evaluate(current, now)
}

// Evaluate returns the record as it should look at now.
func (e Engine) Evaluate(current Record, now time.Time) (Record, Outcome) {
	next := current
	today := dateOf(now)
	end := dateOf(current.EndDate)

	switch current.Recurrence {
	case RecurrenceRepeatIndefinitely:
		if today.After(end) {
			return e.mint(next, now), OutcomeMinted
		}
		next.State = windowState(next, today)

	case RecurrenceRepeatUntilEndDate:
		switch {
		case inWindow(next, today) && !next.IsPublished():
			next.State = StateActive
		case today.After(end) && hasRunway(next, today):
			return e.mint(next, now), OutcomeMinted
		default:
			next.State = StateInactive
		}

	case RecurrenceRepeatUntilOccurrenceCount:
		// Minting needs a positive counter, staying Active accepts zero.
		switch {
		case next.OccurrencesRemaining > 0 && today.After(end):
			next = e.mint(next, now)
			next.OccurrencesRemaining--
			return next, OutcomeMinted
		case next.OccurrencesRemaining >= 0 && inWindow(next, today) && !next.IsPublished():
			next.State = StateActive
		default:
			next.State = StateInactive
		}

	default:
		next.State = windowState(next, today)
	}

	if next.State != current.State {
		return next, OutcomeTransitioned
	}
	return next, OutcomeUnchanged
}

// mint turns r into a fresh instance with the same duration starting at now.
func (e Engine) mint(r Record, now time.Time) Record {
	newID := e.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	duration := r.DurationDays()
	now = now.UTC()

	r.CycleID = newID()
	r.CreatedOn = now
	r.StartDate = now
	r.EndDate = now.AddDate(0, 0, duration)
	r.ResultPublished = PublishUnpublished
	r.ResultPublishedOn = nil
	r.State = StateActive
	return r
}

func windowState(r Record, today time.Time) State {
	if inWindow(r, today) && !r.IsPublished() {
		return StateActive
	}
	return StateInactive
}

func inWindow(r Record, today time.Time) bool {
	return !today.Before(dateOf(r.StartDate)) && !today.After(dateOf(r.EndDate))
}

// hasRunway reports whether another full cycle fits before the range end date.
func hasRunway(r Record, today time.Time) bool {
	if r.RangeEndDate == nil {
		return false
	}
	rangeEnd := dateOf(*r.RangeEndDate)
	if today.After(rangeEnd) {
		return false
	}
	return daysBetween(today, rangeEnd) > r.DurationDays()
}

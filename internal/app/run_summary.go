package app

import "time"

// Outcomes recorded in a TeamResult besides the ones reported by the recurrence engine.
const (
	OutcomeFailed   = "failed"
	OutcomeNotified = "notified"
	OutcomeSkipped  = "skipped"
)

// TeamResult is the result of processing one team during a batch run.
type TeamResult struct {
	TeamID  string
	CycleID string
	Outcome string
	Err     error
}

// RunSummary collects the per-team results of one scheduler tick.
type RunSummary struct {
	Job        string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []TeamResult
}

// Count returns the number of results with the given outcome.
func (s RunSummary) Count(outcome string) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}

// Failed returns the number of teams that could not be processed.
func (s RunSummary) Failed() int {
	return s.Count(OutcomeFailed)
}

// Failures returns the results that carry an error.
func (s RunSummary) Failures() []TeamResult {
	var failures []TeamResult
	for _, r := range s.Results {
		if r.Err != nil {
			failures = append(failures, r)
		}
	}
	return failures
}

// Duration is how long the tick took.
func (s RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

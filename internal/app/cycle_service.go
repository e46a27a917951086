// internal/app/cycle_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"reward_recognition_bot/internal/domain/cycle"

	"github.com/sirupsen/logrus"
)

// JobCycleSweep names the cycle sweep in logs and run summaries.
const JobCycleSweep = "cycle_sweep"

// CycleService re-evaluates every team's current cycle and stores the result.
type CycleService struct {
	cycleRepo cycle.Repository
	engine    cycle.Engine
	log       *logrus.Entry
	now       func() time.Time
}

func NewCycleService(cr cycle.Repository, engine cycle.Engine, log *logrus.Entry) *CycleService {
	return &CycleService{
		cycleRepo: cr,
		engine:    engine,
		log:       log,
		now:       time.Now,
	}
}

// RunOnce performs one sweep over all current cycles. A failing team is recorded
// in the summary and the sweep moves on; only a failure to load the cycles ends
// the sweep early. If ctx is cancelled, the remaining teams are abandoned.
func (s *CycleService) RunOnce(ctx context.Context) (RunSummary, error) {
	now := s.now().UTC()
	summary := RunSummary{Job: JobCycleSweep, StartedAt: now}

	records, err := s.cycleRepo.GetAllCurrentCycles(ctx)
	if err != nil {
		summary.FinishedAt = s.now().UTC()
		s.log.WithError(err).Error("Failed to load current cycles, sweep aborted")
		return summary, fmt.Errorf("failed to load current cycles: %w", err)
	}
	s.log.WithField("teams", len(records)).Debug("Starting cycle sweep")

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			summary.FinishedAt = s.now().UTC()
			s.log.WithError(err).Warn("Cycle sweep cancelled")
			return summary, err
		}

		res := s.sweepTeam(ctx, rec, now)
		summary.Results = append(summary.Results, res)

		entry := s.log.WithFields(logrus.Fields{
			"team_id":  res.TeamID,
			"cycle_id": res.CycleID,
			"outcome":  res.Outcome,
		})
		if res.Err != nil {
			entry.WithError(res.Err).Error("Cycle sweep failed for team")
		} else {
			entry.Info("Cycle evaluated")
		}
	}

	summary.FinishedAt = s.now().UTC()
	s.log.WithFields(logrus.Fields{
		"teams":  len(summary.Results),
		"failed": summary.Failed(),
		"minted": summary.Count(string(cycle.OutcomeMinted)),
	}).Info("Cycle sweep finished")
	return summary, nil
}

func (s *CycleService) sweepTeam(ctx context.Context, rec *cycle.Record, now time.Time) (res TeamResult) {
	if rec == nil {
		return TeamResult{Outcome: OutcomeFailed, Err: fmt.Errorf("%w: nil record", cycle.ErrInvalidRecord)}
	}
	res = TeamResult{TeamID: rec.TeamID, CycleID: rec.CycleID}

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("panic while evaluating cycle: %v", r)
		}
	}()

	if err := rec.Validate(); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}

	next, outcome := s.engine.Evaluate(*rec, now)
	// Stored even when unchanged.
	stored, err := s.cycleRepo.Upsert(ctx, &next)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("failed to store cycle: %w", err)
		return res
	}

	res.CycleID = stored.CycleID
	res.Outcome = string(outcome)
	return res
}

package app

import (
	"context"
	"fmt"
	"time"

	"reward_recognition_bot/internal/domain/cycle"

	"github.com/sirupsen/logrus"
)

// JobNominationReminder names the reminder run in logs and run summaries.
const JobNominationReminder = "nomination_reminder"

// Notifier delivers a nomination reminder for a team's cycle.
type Notifier interface {
	Notify(ctx context.Context, teamID string, snapshot cycle.Record) error
}

// ReminderService reminds teams to nominate when their active cycle ended a fixed number of days ago.
type ReminderService struct {
	cycleRepo    cycle.Repository
	notifier     Notifier
	lookbackDays int
	log          *logrus.Entry
	now          func() time.Time
}

func NewReminderService(cr cycle.Repository, n Notifier, lookbackDays int, log *logrus.Entry) *ReminderService {
	return &ReminderService{
		cycleRepo:    cr,
		notifier:     n,
		lookbackDays: lookbackDays,
		log:          log,
		now:          time.Now,
	}
}

// IsDue reports whether rec ends exactly lookbackDays before now, comparing dates only.
// Callers pass Active cycles only. The sweep closes or replaces a cycle once its end
// date passes, so a reminder goes out only for a cycle the sweep has not processed
// yet. This is intended.
func IsDue(rec cycle.Record, now time.Time, lookbackDays int) bool {
	target := truncateDate(now).AddDate(0, 0, -lookbackDays)
	return truncateDate(rec.EndDate).Equal(target)
}

// RunOnce notifies every team whose active cycle is due. Notification failures
// are logged and recorded, never retried here.
func (s *ReminderService) RunOnce(ctx context.Context) (RunSummary, error) {
	now := s.now().UTC()
	summary := RunSummary{Job: JobNominationReminder, StartedAt: now}

	records, err := s.cycleRepo.GetAllActiveCycles(ctx)
	if err != nil {
		summary.FinishedAt = s.now().UTC()
		s.log.WithError(err).Error("Failed to load active cycles, reminders aborted")
		return summary, fmt.Errorf("failed to load active cycles: %w", err)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			summary.FinishedAt = s.now().UTC()
			s.log.WithError(err).Warn("Reminder run cancelled")
			return summary, err
		}

		res := s.remindTeam(ctx, rec, now)
		summary.Results = append(summary.Results, res)

		entry := s.log.WithFields(logrus.Fields{
			"team_id":  res.TeamID,
			"cycle_id": res.CycleID,
			"outcome":  res.Outcome,
		})
		switch {
		case res.Err != nil:
			entry.WithError(res.Err).Error("Nomination reminder failed for team")
		case res.Outcome == OutcomeSkipped:
			entry.Debug("Cycle not due for a reminder")
		default:
			entry.Info("Nomination reminder sent")
		}
	}

	summary.FinishedAt = s.now().UTC()
	s.log.WithFields(logrus.Fields{
		"notified": summary.Count(OutcomeNotified),
		"failed":   summary.Failed(),
	}).Info("Reminder run finished")
	return summary, nil
}

func (s *ReminderService) remindTeam(ctx context.Context, rec *cycle.Record, now time.Time) (res TeamResult) {
	if rec == nil {
		return TeamResult{Outcome: OutcomeFailed, Err: fmt.Errorf("%w: nil record", cycle.ErrInvalidRecord)}
	}
	res = TeamResult{TeamID: rec.TeamID, CycleID: rec.CycleID}

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomeFailed
			res.Err = fmt.Errorf("panic while sending reminder: %v", r)
		}
	}()

	if !IsDue(*rec, now, s.lookbackDays) {
		res.Outcome = OutcomeSkipped
		return res
	}
	if err := s.notifier.Notify(ctx, rec.TeamID, *rec); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}
	res.Outcome = OutcomeNotified
	return res
}

func truncateDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"reward_recognition_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a batch run driven by the scheduler.
type Job interface {
	RunOnce(ctx context.Context) (app.RunSummary, error)
}

type entry struct {
	name string
	spec string
	job  Job
}

// CycleScheduler runs the cycle sweep and the nomination reminders on their own cron specs.
// A job that is still running when its next tick fires skips that tick.
type CycleScheduler struct {
	cronEngine *cron.Cron
	jobTimeout time.Duration
	logger     *logrus.Entry
	entries    []entry
	// onFinish, if set, receives every completed run.
	onFinish func(app.RunSummary, error)
}

func NewCycleScheduler(logger *logrus.Entry, jobTimeout time.Duration) *CycleScheduler {
	cronLogger := cron.PrintfLogger(logger.WithField("subsystem", "cron"))
	return &CycleScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		jobTimeout: jobTimeout,
		logger:     logger,
	}
}

// Register adds a job under name. It must be called before Start.
func (s *CycleScheduler) Register(name, spec string, job Job) {
	s.entries = append(s.entries, entry{name: name, spec: spec, job: job})
}

func (s *CycleScheduler) Start() error {
	s.logger.Info("Starting cycle scheduler...")

	for _, e := range s.entries {
		e := e
		if _, err := s.cronEngine.AddFunc(e.spec, func() { s.runJob(e) }); err != nil {
			return fmt.Errorf("could not add %s cron job with spec %q: %w", e.name, e.spec, err)
		}
		s.logger.WithFields(logrus.Fields{"job": e.name, "spec": e.spec}).Info("Cron job registered")
	}

	s.cronEngine.Start()
	s.logger.WithField("jobs", len(s.entries)).Info("Cycle scheduler started.")
	return nil
}

// Stop stops scheduling new runs and waits for running ones to finish, or for ctx to expire.
func (s *CycleScheduler) Stop(ctx context.Context) {
	s.logger.Info("Stopping cycle scheduler...")
	done := s.cronEngine.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Cycle scheduler gracefully stopped.")
	case <-ctx.Done():
		s.logger.WithError(ctx.Err()).Warn("Cycle scheduler stop timed out with a job still running")
	}
}

func (s *CycleScheduler) runJob(e entry) {
	log := s.logger.WithField("job", e.name)
	log.Debug("Cron job triggered")

	ctx := context.Background()
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	summary, err := e.job.RunOnce(ctx)
	if err != nil {
		log.WithError(err).Error("Job run ended early")
	} else {
		log.WithFields(logrus.Fields{
			"teams":    len(summary.Results),
			"failed":   summary.Failed(),
			"duration": summary.Duration().String(),
		}).Info("Job run completed")
	}
	if s.onFinish != nil {
		s.onFinish(summary, err)
	}
}

package rollover

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/habitual/internal/logger"
)

// Scheduler runs a Job once at start and then on a cron schedule in UTC.
// A tick that fires while the previous run is still going is skipped, and a
// failed run is only logged; the next tick retries.
type Scheduler struct {
	job      *Job
	schedule string
	cron     *cron.Cron

	mu   sync.Mutex
	last LastRun
}

// LastRun is the outcome of the most recent scheduled rollover.
type LastRun struct {
	Result   Result
	Finished time.Time
	Err      error
}

func NewScheduler(job *Job, schedule string) *Scheduler {
	l := logger.CronLogger{}
	return &Scheduler{
		job:      job,
		schedule: schedule,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
	}
}

// Start registers the job, performs the startup run and starts ticking.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid rollover schedule %q: %w", s.schedule, err)
	}

	s.runOnce(ctx)
	s.cron.Start()
	logger.Info("Rollover scheduler started", "schedule", s.schedule)
	return nil
}

// Stop stops ticking and returns a context that is done once any in-flight
// run has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Run starts the scheduler and blocks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	<-s.Stop().Done()
	logger.Info("Rollover scheduler stopped")
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res, err := s.job.Run(ctx)
	if err != nil {
		logger.Error("Rollover failed", "error", err)
	}

	s.mu.Lock()
	s.last = LastRun{Result: res, Finished: s.job.clock.Now(), Err: err}
	s.mu.Unlock()
}

// Last returns the most recent run; ok is false before the first one.
func (s *Scheduler) Last() (run LastRun, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, !s.last.Finished.IsZero()
}

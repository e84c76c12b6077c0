package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// JobRunner runs a named job.
type JobRunner interface {
	Run(ctx context.Context, name string) error
}

// Scheduler fires the notifier jobs on their cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	runner JobRunner
	logger *slog.Logger
	ctx    context.Context // set by Start; firings are cancelled with it
}

// NewScheduler registers each job name against its cron expression.
func NewScheduler(runner JobRunner, schedules map[string]string, logger *slog.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("notify: scheduler: runner is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithParser(cronParser)),
		runner: runner,
		logger: logger,
		ctx:    context.Background(),
	}
	for name, expr := range schedules {
		sched, err := cronParser.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("notify: scheduler: %s: invalid cron %q: %w", name, expr, err)
		}
		s.cron.Schedule(sched, cron.FuncJob(s.jobFunc(name)))
	}
	return s, nil
}

// jobFunc binds a job name to a cron callback. Firings run under the
// context passed to Start, so shutdown cancels a slow run.
func (s *Scheduler) jobFunc(name string) func() {
	return func() {
		if err := s.runner.Run(s.ctx, name); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Debug("scheduled job finished", "job", name)
	}
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Start runs the schedule until ctx is cancelled, then waits for running
// jobs to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("notifier schedule started", "jobs", s.Entries())
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

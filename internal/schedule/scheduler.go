// Package schedule runs recurring jobs on a cron clock. Serve mode uses
// it to re-sync documents on the configured interval.
package schedule

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/avelichko/docsbot/pkg/logging"
)

// Job is a named unit of recurring work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	logger *logging.Logger
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logging.NewLogger("schedule"),
	}
}

// AddJob registers job under a cron spec such as "@every 15m".
func (s *Scheduler) AddJob(job Job, spec string) error {
	if _, err := s.cron.AddFunc(spec, s.wrap(job, spec)); err != nil {
		return err
	}
	s.logger.Info("job scheduled", "job", job.Name(), "spec", spec)
	return nil
}

func (s *Scheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx = ctx
	s.cron.Start()
}

// Stop waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// wrap skips a tick when the previous run of the same job is still in
// flight, so slow syncs never stack.
func (s *Scheduler) wrap(job Job, spec string) func() {
	var running atomic.Bool
	return func() {
		if !running.CompareAndSwap(false, true) {
			s.logger.Warn("job skipped: previous run still in flight", "job", job.Name(), "spec", spec)
			return
		}
		defer running.Store(false)

		ctx := s.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		log := s.logger.With("job", job.Name())
		start := time.Now()
		log.Info("job started")
		if err := job.Run(ctx); err != nil {
			log.Error("job finished with error", "error", err, "duration", time.Since(start))
			return
		}
		log.Info("job finished", "duration", time.Since(start))
	}
}

// Package scheduler fires pipeline runs on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Scheduler wraps robfig/cron. A tick that arrives while the previous task
// is still running is skipped.
type Scheduler struct {
	cron *cron.Cron
	spec string
	log  *zap.Logger
}

func New(spec string, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	cl := cronLogger{log.Sugar().Named("cron")}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		spec: spec,
		log:  log,
	}
}

// Start registers task and starts the cron loop. With runNow the task also
// runs once immediately.
func (s *Scheduler) Start(ctx context.Context, name string, runNow bool, task Task) error {
	job := cron.FuncJob(func() { s.run(ctx, name, task) })
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cronLogger{s.log.Sugar()})).Then(job)

	if _, err := s.cron.AddJob(s.spec, wrapped); err != nil {
		return fmt.Errorf("cron spec %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", zap.String("spec", s.spec), zap.Time("next", s.Next()))

	if runNow {
		go wrapped.Run()
	}
	return nil
}

// Next is the time of the next tick, zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop stops the loop and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, name string, task Task) {
	if ctx.Err() != nil {
		return
	}
	began := time.Now()
	if err := task(ctx); err != nil {
		s.log.Error("task failed", zap.String("task", name), zap.Error(err), zap.Duration("took", time.Since(began)))
		return
	}
	s.log.Info("task done", zap.String("task", name), zap.Duration("took", time.Since(began)))
}

// ValidateSpec reports whether spec parses as a standard 5-field cron spec
// or descriptor such as "@every 6h".
func ValidateSpec(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

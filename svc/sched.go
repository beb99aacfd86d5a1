// Package svc provides the services that drive the calibration cycles.
package svc

import (
	"context"
	"sync"
	"time"

	"github.com/kostiamol/offsetms/calib"
	"github.com/kostiamol/offsetms/log"
	"github.com/kostiamol/offsetms/metric"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// ErrStopped is returned when the schedule is changed after Stop.
var ErrStopped = errors.New("scheduler is stopped")

type (
	// Cycler is a contract for the cycle runner.
	Cycler interface {
		RunCycle(ctx context.Context, rooms []calib.Room) []calib.Outcome
	}

	// SchedulerCfg is used to initialize an instance of Scheduler.
	SchedulerCfg struct {
		Log      log.Logger
		Ctrl     Ctrl
		Metric   *metric.Metric
		Runner   Cycler
		Rooms    []calib.Room
		Schedule string
	}

	// Scheduler triggers calibration cycles on a cron schedule and on demand.
	Scheduler struct {
		log      log.Logger
		ctrl     Ctrl
		metric   *metric.Metric
		runner   Cycler
		rooms    []calib.Room
		schedule string

		mu      sync.Mutex // guards cron, stopped and schedule
		cron    *cron.Cron
		stopped bool

		ctxMu  sync.Mutex
		ctx    context.Context
		cancel context.CancelFunc

		cycle sync.Mutex
	}

	cronLogger struct {
		log log.Logger
	}
)

// NewScheduler creates and initializes a new instance of Scheduler.
func NewScheduler(c *SchedulerCfg) *Scheduler {
	return &Scheduler{
		log:      c.Log.With("component", "scheduler"),
		ctrl:     c.Ctrl,
		metric:   c.Metric,
		runner:   c.Runner,
		rooms:    c.Rooms,
		schedule: c.Schedule,
	}
}

// Start installs the configured schedule and runs the first cycle right away. Scheduled cycles use ctx
// until Stop is called or the Ctrl is terminated.
func (s *Scheduler) Start(ctx context.Context) error {
	s.log.With("event", log.EventComponentStarted).Infof("schedule: %s, rooms: %d", s.schedule, len(s.rooms))

	s.ctxMu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.ctxMu.Unlock()

	if err := s.Reschedule(s.schedule); err != nil {
		if errors.Cause(err) == ErrStopped {
			s.Stop()
			s.log.Infof("stopped before the first cycle")
			return nil
		}
		return err
	}

	go s.listenToTermination()

	ctx = s.context()
	if ctx.Err() != nil {
		return nil
	}
	s.RunNow(ctx)
	return nil
}

// Reschedule replaces the current schedule with spec. The old cron is stopped, and its running job is
// waited for, before the new one is started. An invalid spec leaves the current schedule in place.
func (s *Scheduler) Reschedule(spec string) error {
	l := cronLogger{log: s.log}
	c := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.SkipIfStillRunning(l)),
	)
	if _, err := c.AddFunc(spec, s.runScheduled); err != nil {
		return errors.Wrapf(err, "schedule %q", spec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	c.Start()

	s.cron = c
	s.schedule = spec
	s.log.With("event", log.EventRescheduled).Infof("schedule: %s", spec)
	return nil
}

// RunNow runs a cycle and returns its outcomes. It waits for a cycle that is already running.
func (s *Scheduler) RunNow(ctx context.Context) []calib.Outcome {
	s.cycle.Lock()
	defer s.cycle.Unlock()
	return s.run(ctx)
}

// Stop cancels the scheduled cycles' context, removes the schedule and waits for a running cycle to finish.
// Later calls to Start or Reschedule install nothing.
func (s *Scheduler) Stop() {
	s.ctxMu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.ctxMu.Unlock()

	s.mu.Lock()
	s.stopped = true
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
	}
	s.mu.Unlock()

	s.cycle.Lock()
	s.cycle.Unlock() // nolint
}

// Rooms returns the configured rooms.
func (s *Scheduler) Rooms() []calib.Room {
	return s.rooms
}

// Schedule returns the active cron spec.
func (s *Scheduler) Schedule() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule
}

func (s *Scheduler) context() context.Context {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Scheduler) runScheduled() {
	if !s.cycle.TryLock() {
		s.log.With("event", log.EventCycleSkipped).Infof("previous cycle is still running")
		return
	}
	defer s.cycle.Unlock()

	ctx := s.context()
	if ctx.Err() != nil {
		return
	}
	s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) (outcomes []calib.Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.log.With("event", log.EventPanic).Errorf("func run: %s", r)
			s.metric.ErrorCounter(log.EventPanic)
		}
	}()

	outcomes = s.runner.RunCycle(ctx, s.rooms)
	s.metric.Timing(start, "scheduler")
	return outcomes
}

func (s *Scheduler) listenToTermination() {
	<-s.ctrl.StopChan
	s.Stop()
	s.log.With("event", log.EventComponentShutdown).Info()
	_ = s.log.Flush()
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.With(keysAndValues...).Debugf("cron: %s", msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.With(keysAndValues...).Errorf("cron: %s: %s", msg, err)
}

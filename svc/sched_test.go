package svc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kostiamol/offsetms/calib"
	"github.com/kostiamol/offsetms/log"
	"github.com/kostiamol/offsetms/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCycler struct {
	mu      sync.Mutex
	calls   int
	running int
	overlap bool
	block   chan struct{}
	started chan struct{}
	ctxs    []context.Context
}

func newFakeCycler() *fakeCycler {
	return &fakeCycler{started: make(chan struct{}, 16)}
}

func (f *fakeCycler) RunCycle(ctx context.Context, rooms []calib.Room) []calib.Outcome {
	f.mu.Lock()
	f.calls++
	f.running++
	if f.running > 1 {
		f.overlap = true
	}
	f.ctxs = append(f.ctxs, ctx)
	block := f.block
	f.mu.Unlock()

	f.started <- struct{}{}
	if block != nil {
		<-block
	}

	f.mu.Lock()
	f.running--
	f.mu.Unlock()

	var outcomes []calib.Outcome
	for _, r := range rooms {
		for _, t := range r.Thermostats {
			outcomes = append(outcomes, calib.Outcome{Room: r.Name, Thermostat: t, Status: calib.StatusSuccess})
		}
	}
	return outcomes
}

func (f *fakeCycler) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var testRooms = []calib.Room{
	{Name: "Bathroom", Sensor: "hm-rpc.1.S1.1.TEMPERATURE", MinSetTemp: 15, Thermostats: []string{"hm-rpc.1.T1.1"}},
	{Name: "Office", Sensor: "hm-rpc.1.S2.1.TEMPERATURE", MinSetTemp: 15, Thermostats: []string{"hm-rpc.1.T2.1", "hm-rpc.1.T3.1"}},
}

func newTestScheduler(c Cycler, schedule string) *Scheduler {
	return NewScheduler(&SchedulerCfg{
		Log:      log.Nop(),
		Ctrl:     NewCtrl(),
		Metric:   metric.New("test"),
		Runner:   c,
		Rooms:    testRooms,
		Schedule: schedule,
	})
}

func TestStartRunsImmediately(t *testing.T) {
	f := newFakeCycler()
	s := newTestScheduler(f, "0 */3 * * *")
	defer s.Stop()

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 1, f.Calls())
	assert.Equal(t, "0 */3 * * *", s.Schedule())
}

func TestStartInvalidSchedule(t *testing.T) {
	f := newFakeCycler()
	s := newTestScheduler(f, "every now and then")
	defer s.Stop()

	assert.Error(t, s.Start(context.Background()))
	assert.Equal(t, 0, f.Calls())
}

func TestRunNowReturnsOutcomes(t *testing.T) {
	s := newTestScheduler(newFakeCycler(), "@every 1h")

	out := s.RunNow(context.Background())
	require.Len(t, out, 3)
	assert.Equal(t, "Bathroom", out[0].Room)
	assert.Equal(t, "hm-rpc.1.T3.1", out[2].Thermostat)
	assert.Equal(t, testRooms, s.Rooms())
}

func TestRunNowDoesNotOverlap(t *testing.T) {
	f := newFakeCycler()
	f.block = make(chan struct{})
	s := newTestScheduler(f, "@every 1h")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RunNow(context.Background())
		}()
	}

	<-f.started
	select {
	case <-f.started:
		t.Fatal("second cycle started while the first one is running")
	case <-time.After(50 * time.Millisecond):
	}

	close(f.block)
	wg.Wait()
	assert.Equal(t, 2, f.Calls())
	assert.False(t, f.overlap)
}

func TestScheduledTriggerSkipsWhileRunning(t *testing.T) {
	f := newFakeCycler()
	f.block = make(chan struct{})
	s := newTestScheduler(f, "@every 1h")

	done := make(chan struct{})
	go func() {
		s.RunNow(context.Background())
		close(done)
	}()
	<-f.started

	s.runScheduled()
	assert.Equal(t, 1, f.Calls())

	close(f.block)
	<-done
}

func TestScheduledCycleRuns(t *testing.T) {
	f := newFakeCycler()
	s := newTestScheduler(f, "@every 1h")
	defer s.Stop()

	require.NoError(t, s.Start(context.Background()))
	<-f.started

	require.NoError(t, s.Reschedule("@every 1s"))
	assert.Equal(t, "@every 1s", s.Schedule())

	select {
	case <-f.started:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled cycle did not run")
	}
}

func TestRescheduleKeepsOldOnError(t *testing.T) {
	s := newTestScheduler(newFakeCycler(), "@every 1h")
	defer s.Stop()

	require.NoError(t, s.Reschedule("@every 1h"))
	c := s.cron
	assert.Error(t, s.Reschedule("61 * * * *"))
	assert.Equal(t, c, s.cron)
	assert.Equal(t, "@every 1h", s.Schedule())
}

func TestStopWaitsForRunningCycle(t *testing.T) {
	f := newFakeCycler()
	f.block = make(chan struct{})
	s := newTestScheduler(f, "@every 1h")

	go s.RunNow(context.Background())
	<-f.started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a cycle is running")
	case <-time.After(50 * time.Millisecond):
	}

	close(f.block)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestStartAfterStopInstallsNothing(t *testing.T) {
	f := newFakeCycler()
	s := newTestScheduler(f, "@every 1s")

	s.Stop()
	require.NoError(t, s.Start(context.Background()))

	assert.Nil(t, s.cron)
	assert.Equal(t, 0, f.Calls())
	assert.Error(t, s.context().Err())
	assert.Equal(t, ErrStopped, s.Reschedule("@every 1s"))
}

func TestStopCancelsScheduledContext(t *testing.T) {
	f := newFakeCycler()
	s := newTestScheduler(f, "@every 1h")

	require.NoError(t, s.Start(context.Background()))
	<-f.started
	s.Stop()

	require.Len(t, f.ctxs, 1)
	assert.Error(t, f.ctxs[0].Err())
	assert.Nil(t, s.cron)
}

func TestTerminateStopsScheduler(t *testing.T) {
	f := newFakeCycler()
	s := newTestScheduler(f, "@every 1h")

	require.NoError(t, s.Start(context.Background()))
	<-f.started
	s.ctrl.Terminate()

	assert.True(t, s.ctrl.Stopped())
	deadline := time.Now().Add(time.Second)
	for s.context().Err() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Error(t, s.context().Err())
}

func TestPanicInCycleIsContained(t *testing.T) {
	s := newTestScheduler(panicCycler{}, "@every 1h")
	assert.NotPanics(t, func() {
		assert.Empty(t, s.RunNow(context.Background()))
	})
}

type panicCycler struct{}

func (panicCycler) RunCycle(context.Context, []calib.Room) []calib.Outcome {
	panic("boom")
}

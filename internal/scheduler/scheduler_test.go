package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeengine/internal/domain"
	"github.com/hamed0406/uptimeengine/internal/maintenance"
)

func monitor(id string, interval time.Duration) *domain.Monitor {
	return &domain.Monitor{ID: domain.MonitorID(id), Type: domain.TypeHTTP, Interval: interval, IsActive: true}
}

// countingRunner records calls per monitor and the peak concurrency per monitor.
type countingRunner struct {
	mu      sync.Mutex
	calls   map[domain.MonitorID]int
	running map[domain.MonitorID]int
	peak    map[domain.MonitorID]int
	fn      func(ctx context.Context, m *domain.Monitor) error
}

func newCountingRunner(fn func(ctx context.Context, m *domain.Monitor) error) *countingRunner {
	return &countingRunner{
		calls:   map[domain.MonitorID]int{},
		running: map[domain.MonitorID]int{},
		peak:    map[domain.MonitorID]int{},
		fn:      fn,
	}
}

func (r *countingRunner) Run(ctx context.Context, m *domain.Monitor) error {
	r.mu.Lock()
	r.calls[m.ID]++
	r.running[m.ID]++
	if r.running[m.ID] > r.peak[m.ID] {
		r.peak[m.ID] = r.running[m.ID]
	}
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running[m.ID]--
		r.mu.Unlock()
	}()
	if r.fn != nil {
		return r.fn(ctx, m)
	}
	return nil
}

func (r *countingRunner) count(id domain.MonitorID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[id]
}

func newTestScheduler(t *testing.T, r Runner, opts Options) *Scheduler {
	t.Helper()
	opts.Logger = zap.NewNop()
	if opts.Grace == 0 {
		opts.Grace = time.Second
	}
	s := New(r, opts)
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s
}

func TestScheduler_OverlappingTicksAreSkipped(t *testing.T) {
	release := make(chan struct{})
	r := newCountingRunner(func(ctx context.Context, m *domain.Monitor) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})
	s := newTestScheduler(t, r, Options{Timeout: 5 * time.Second})
	require.NoError(t, s.AddJob(monitor("slow", 10*time.Millisecond)))
	s.Start()

	require.Eventually(t, func() bool {
		j, _ := s.GetJob("slow")
		return j.SkipCount >= 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, r.count("slow"), "skipped ticks are not queued")
	close(release)

	require.Eventually(t, func() bool { return r.count("slow") >= 2 }, 2*time.Second, 5*time.Millisecond)
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, 1, r.peak["slow"], "a job never runs concurrently with itself")
}

func TestScheduler_PanicIsIsolated(t *testing.T) {
	r := newCountingRunner(func(ctx context.Context, m *domain.Monitor) error {
		if m.ID == "bad" {
			panic("probe exploded")
		}
		return nil
	})
	s := newTestScheduler(t, r, Options{})
	require.NoError(t, s.AddJob(monitor("bad", 20*time.Millisecond)))
	require.NoError(t, s.AddJob(monitor("good", 20*time.Millisecond)))
	s.Start()

	require.Eventually(t, func() bool {
		bad, _ := s.GetJob("bad")
		return r.count("good") >= 3 && bad.FailCount >= 3
	}, 2*time.Second, 5*time.Millisecond)

	bad, err := s.GetJob("bad")
	require.NoError(t, err)
	assert.Contains(t, bad.LastError, "probe exploded")
	assert.False(t, bad.LastFailedAt.IsZero())
	good, _ := s.GetJob("good")
	assert.Zero(t, good.FailCount)

	m := s.GetMetrics()
	assert.Equal(t, 2, m.TotalJobs)
	assert.Equal(t, 1, m.FailingJobs)
	assert.Equal(t, 1, m.JobsWithFailures)
	assert.GreaterOrEqual(t, m.TotalFailures, int64(3))
}

func TestScheduler_ErrorsCountAsFailures(t *testing.T) {
	r := newCountingRunner(func(context.Context, *domain.Monitor) error { return errors.New("no handler") })
	s := newTestScheduler(t, r, Options{})
	require.NoError(t, s.AddJob(monitor("m1", 20*time.Millisecond)))
	s.Start()

	require.Eventually(t, func() bool {
		j, _ := s.GetJob("m1")
		return j.FailCount >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_MaintenanceWindowSkipsTick(t *testing.T) {
	maint := maintenance.NewMemory()
	now := time.Now()
	_, err := maint.Add(context.Background(), domain.MaintenanceWindow{
		MonitorID: "m1", Active: true, Start: now.Add(-time.Hour), End: now.Add(time.Hour),
	})
	require.NoError(t, err)

	r := newCountingRunner(nil)
	s := newTestScheduler(t, r, Options{Maintenance: maint})
	require.NoError(t, s.AddJob(monitor("m1", 10*time.Millisecond)))
	require.NoError(t, s.AddJob(monitor("m2", 10*time.Millisecond)))
	s.Start()

	require.Eventually(t, func() bool { return r.count("m2") >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, r.count("m1"))
	j, _ := s.GetJob("m1")
	assert.Zero(t, j.FailCount)
	assert.Zero(t, j.RunCount)
}

func TestScheduler_PauseResumeUpdateKeepCounters(t *testing.T) {
	r := newCountingRunner(nil)
	s := newTestScheduler(t, r, Options{})
	require.NoError(t, s.AddJob(monitor("m1", 10*time.Millisecond)))
	s.Start()
	require.Eventually(t, func() bool { return r.count("m1") >= 2 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, s.PauseJob("m1"))
	require.Eventually(t, func() bool {
		j, _ := s.GetJob("m1")
		return !j.InProgress
	}, time.Second, 5*time.Millisecond)
	paused, _ := s.GetJob("m1")
	assert.False(t, paused.Active)
	time.Sleep(50 * time.Millisecond)
	after, _ := s.GetJob("m1")
	assert.Equal(t, paused.RunCount, after.RunCount, "paused job must not run")

	require.NoError(t, s.ResumeJob("m1"))
	require.Eventually(t, func() bool {
		j, _ := s.GetJob("m1")
		return j.RunCount > paused.RunCount
	}, 2*time.Second, 5*time.Millisecond)

	updated := monitor("m1", time.Hour)
	updated.Name = "renamed"
	require.NoError(t, s.UpdateJob(updated))
	j, _ := s.GetJob("m1")
	assert.Equal(t, "renamed", j.Name)
	assert.Equal(t, time.Hour, j.Interval)
	assert.GreaterOrEqual(t, j.RunCount, paused.RunCount, "counters survive an update")
}

func TestScheduler_JobErrors(t *testing.T) {
	s := newTestScheduler(t, newCountingRunner(nil), Options{})
	require.NoError(t, s.AddJob(monitor("m1", time.Minute)))

	assert.ErrorIs(t, s.AddJob(monitor("m1", time.Minute)), ErrJobExists)
	assert.ErrorIs(t, s.PauseJob("nope"), ErrJobNotFound)
	assert.ErrorIs(t, s.ResumeJob("nope"), ErrJobNotFound)
	assert.ErrorIs(t, s.DeleteJob("nope"), ErrJobNotFound)
	assert.ErrorIs(t, s.UpdateJob(monitor("nope", time.Minute)), ErrJobNotFound)
	assert.ErrorIs(t, s.AddJob(monitor("m2", 0)), domain.ErrInvalidMonitor)

	require.NoError(t, s.DeleteJob("m1"))
	assert.Empty(t, s.GetJobs())
}

func TestScheduler_InactiveMonitorIsTrackedNotRun(t *testing.T) {
	r := newCountingRunner(nil)
	s := newTestScheduler(t, r, Options{})
	m := monitor("m1", 10*time.Millisecond)
	m.IsActive = false
	require.NoError(t, s.AddJob(m))
	s.Start()
	time.Sleep(50 * time.Millisecond)

	assert.Zero(t, r.count("m1"))
	jobs := s.GetJobs()
	require.Len(t, jobs, 1)
	assert.False(t, jobs[0].Active)
}

func TestScheduler_HealthFlagsStuckJobs(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	r := newCountingRunner(func(ctx context.Context, m *domain.Monitor) error {
		<-release
		return nil
	})
	s := newTestScheduler(t, r, Options{StuckAfter: 20 * time.Millisecond, Timeout: time.Minute})
	require.NoError(t, s.AddJob(monitor("m1", time.Hour)))
	s.Start()

	require.Eventually(t, func() bool { return !s.Health().Healthy }, 2*time.Second, 5*time.Millisecond)
	h := s.Health()
	require.Len(t, h.Stuck, 1)
	assert.Equal(t, domain.MonitorID("m1"), h.Stuck[0].MonitorID)
}

func TestScheduler_StopAbandonsAfterGrace(t *testing.T) {
	var cancelled atomic.Bool
	r := newCountingRunner(func(ctx context.Context, m *domain.Monitor) error {
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})
	s := New(r, Options{Grace: 30 * time.Millisecond, Timeout: time.Minute, Logger: zap.NewNop()})
	require.NoError(t, s.AddJob(monitor("m1", time.Hour)))
	s.Start()
	require.Eventually(t, func() bool { return r.count("m1") == 1 }, time.Second, 5*time.Millisecond)

	start := time.Now()
	err := s.Stop(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	require.Eventually(t, cancelled.Load, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, s.AddJob(monitor("m2", time.Minute)), ErrStopped)
}

func TestScheduler_StopWaitsForRunningTick(t *testing.T) {
	var finished atomic.Bool
	r := newCountingRunner(func(ctx context.Context, m *domain.Monitor) error {
		time.Sleep(30 * time.Millisecond)
		finished.Store(true)
		return nil
	})
	s := New(r, Options{Grace: time.Second, Logger: zap.NewNop()})
	require.NoError(t, s.AddJob(monitor("m1", time.Hour)))
	s.Start()
	require.Eventually(t, func() bool { return r.count("m1") == 1 }, time.Second, time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, finished.Load())
}

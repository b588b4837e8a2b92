package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeengine/internal/domain"
	"github.com/hamed0406/uptimeengine/internal/maintenance"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobExists   = errors.New("job already scheduled")
	ErrStopped     = errors.New("scheduler stopped")
)

// Runner executes one monitoring pass for a monitor.
type Runner interface {
	Run(ctx context.Context, m *domain.Monitor) error
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc func(ctx context.Context, m *domain.Monitor) error

func (f RunnerFunc) Run(ctx context.Context, m *domain.Monitor) error { return f(ctx, m) }

type Options struct {
	// Timeout bounds one tick. Zero means one interval.
	Timeout time.Duration
	// Grace is how long Stop waits for running ticks before abandoning them.
	Grace time.Duration
	// StuckAfter flags a job in Health once a tick runs longer than this.
	StuckAfter  time.Duration
	Maintenance maintenance.Service
	Logger      *zap.Logger
}

// Scheduler runs every monitor on its own interval. Ticks of one monitor
// never overlap; an overdue tick is skipped, not queued.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	maint  maintenance.Service
	log    *zap.Logger
	opts   Options
	now    func() time.Time

	base   context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	jobs     map[domain.MonitorID]*job
	started  bool
	stopping bool
	inflight sync.WaitGroup
}

func New(runner Runner, opts Options) *Scheduler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Grace <= 0 {
		opts.Grace = 10 * time.Second
	}
	if opts.StuckAfter <= 0 {
		opts.StuckAfter = 5 * time.Minute
	}
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger{opts.Logger})),
		runner: runner,
		maint:  opts.Maintenance,
		log:    opts.Logger,
		opts:   opts,
		now:    time.Now,
		base:   base,
		cancel: cancel,
		jobs:   make(map[domain.MonitorID]*job),
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopping {
		return
	}
	s.started = true
	s.cron.Start()
	for id, j := range s.jobs {
		if j.active {
			s.kick(id)
		}
	}
	s.log.Info("scheduler_started", zap.Int("jobs", len(s.jobs)))
}

// AddJob registers a monitor. Inactive monitors are tracked but not run.
func (s *Scheduler) AddJob(m *domain.Monitor) error {
	if err := validInterval(m); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return ErrStopped
	}
	if _, ok := s.jobs[m.ID]; ok {
		return fmt.Errorf("%w: %s", ErrJobExists, m.ID)
	}
	j := &job{monitor: m.Clone()}
	s.jobs[m.ID] = j
	if m.IsActive {
		s.activate(m.ID, j)
	}
	s.log.Info("job_added", zap.String("monitor_id", string(m.ID)),
		zap.Duration("interval", m.Interval), zap.Bool("active", m.IsActive))
	return nil
}

// UpdateJob swaps in new monitor data and interval. Counters carry over.
func (s *Scheduler) UpdateJob(m *domain.Monitor) error {
	if err := validInterval(m); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[m.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, m.ID)
	}
	j.mu.Lock()
	intervalChanged := j.monitor.Interval != m.Interval
	j.monitor = m.Clone()
	wasActive := j.active
	j.mu.Unlock()

	switch {
	case wasActive && !m.IsActive:
		s.deactivate(j)
	case !wasActive && m.IsActive:
		s.activate(m.ID, j)
	case wasActive && intervalChanged:
		s.deactivate(j)
		s.activate(m.ID, j)
	}
	return nil
}

func (s *Scheduler) PauseJob(id domain.MonitorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	s.deactivate(j)
	j.mu.Lock()
	j.monitor.IsActive = false
	j.mu.Unlock()
	s.log.Info("job_paused", zap.String("monitor_id", string(id)))
	return nil
}

func (s *Scheduler) ResumeJob(id domain.MonitorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	j.mu.Lock()
	j.monitor.IsActive = true
	j.mu.Unlock()
	s.activate(id, j)
	s.log.Info("job_resumed", zap.String("monitor_id", string(id)))
	return nil
}

func (s *Scheduler) DeleteJob(id domain.MonitorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	s.deactivate(j)
	delete(s.jobs, id)
	s.log.Info("job_deleted", zap.String("monitor_id", string(id)))
	return nil
}

// activate schedules the cron entry; callers hold s.mu.
func (s *Scheduler) activate(id domain.MonitorID, j *job) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.active || s.stopping {
		return
	}
	j.entry = s.cron.Schedule(every(j.monitor.Interval), cron.FuncJob(func() { s.tick(id) }))
	j.active = true
	if s.started {
		s.kick(id)
	}
}

// deactivate removes the cron entry; a tick already running finishes.
func (s *Scheduler) deactivate(j *job) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.active {
		return
	}
	s.cron.Remove(j.entry)
	j.active = false
}

// kick runs a first tick right away instead of waiting a full interval.
func (s *Scheduler) kick(id domain.MonitorID) {
	go s.tick(id)
}

func (s *Scheduler) tick(id domain.MonitorID) {
	s.mu.RLock()
	j, ok := s.jobs[id]
	if !ok || s.stopping {
		s.mu.RUnlock()
		return
	}
	if !j.inProgress.CompareAndSwap(false, true) {
		s.mu.RUnlock()
		j.skipped()
		s.log.Debug("job_tick_skipped", zap.String("monitor_id", string(id)))
		return
	}
	s.inflight.Add(1)
	s.mu.RUnlock()
	defer s.inflight.Done()
	defer j.inProgress.Store(false)

	j.mu.Lock()
	active := j.active
	j.mu.Unlock()
	if !active {
		return
	}

	j.started(s.now())
	m := j.target()
	if s.inMaintenance(id) {
		s.log.Debug("job_tick_maintenance", zap.String("monitor_id", string(id)))
		return
	}

	timeout := s.opts.Timeout
	if timeout <= 0 {
		timeout = m.Interval
	}
	ctx, cancel := context.WithTimeout(s.base, timeout)
	defer cancel()

	err := s.run(ctx, m)
	j.finished(s.now(), err)
	if err != nil {
		s.log.Error("job_failed", zap.String("monitor_id", string(id)), zap.Error(err))
	}
}

func (s *Scheduler) inMaintenance(id domain.MonitorID) bool {
	if s.maint == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(s.base, 5*time.Second)
	defer cancel()
	in, err := s.maint.IsInMaintenanceWindow(ctx, id)
	if err != nil {
		// an unreachable maintenance store must not silence monitoring
		s.log.Warn("maintenance_lookup_error", zap.String("monitor_id", string(id)), zap.Error(err))
		return false
	}
	return in
}

// run is the job boundary: nothing a runner does, panics included, escapes it.
func (s *Scheduler) run(ctx context.Context, m *domain.Monitor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			s.log.Error("job_panic", zap.String("monitor_id", string(m.ID)),
				zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
		}
	}()
	return s.runner.Run(ctx, m)
}

// Stop halts new ticks, waits up to the grace period for running ones and
// then cancels whatever is left.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	s.mu.Unlock()
	s.cron.Stop()
	defer s.cancel()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	grace := time.NewTimer(s.opts.Grace)
	defer grace.Stop()
	select {
	case <-done:
		s.log.Info("scheduler_stopped")
		return nil
	case <-grace.C:
	case <-ctx.Done():
	}
	s.cancel()
	s.log.Warn("scheduler_abandoned_ticks", zap.Duration("grace", s.opts.Grace))
	return errors.New("scheduler: running ticks abandoned after grace period")
}

func (s *Scheduler) GetJobs() []domain.Job {
	s.mu.RLock()
	out := make([]domain.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.snapshot())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, k int) bool { return out[i].MonitorID < out[k].MonitorID })
	return out
}

func (s *Scheduler) GetJob(id domain.MonitorID) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return j.snapshot(), nil
}

func validInterval(m *domain.Monitor) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if m.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", domain.ErrInvalidMonitor)
	}
	return nil
}

package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeengine/internal/domain"
	"github.com/hamed0406/uptimeengine/internal/notify"
	"github.com/hamed0406/uptimeengine/internal/repo"
	"github.com/hamed0406/uptimeengine/internal/scheduler"
)

type Scheduler interface {
	AddJob(m *domain.Monitor) error
	UpdateJob(m *domain.Monitor) error
	PauseJob(id domain.MonitorID) error
	ResumeJob(id domain.MonitorID) error
	DeleteJob(id domain.MonitorID) error
}

// Manager keeps the store and the scheduler in step for monitor lifecycle
// changes.
type Manager struct {
	store    repo.MonitorStore
	alerts   repo.AlertStateStore
	sched    Scheduler
	settings domain.SettingsProvider
	log      *zap.Logger
}

func NewManager(store repo.MonitorStore, alerts repo.AlertStateStore, sched Scheduler, settings domain.SettingsProvider, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, alerts: alerts, sched: sched, settings: settings, log: log}
}

// Bootstrap schedules every active monitor in the store. A monitor that
// cannot be scheduled is logged and skipped.
func (mg *Manager) Bootstrap(ctx context.Context) (int, error) {
	all, err := mg.store.GetAllMonitors(ctx)
	if err != nil {
		return 0, fmt.Errorf("load monitors: %w", err)
	}
	n := 0
	var errs error
	for _, m := range all {
		if !m.IsActive {
			continue
		}
		if err := mg.sched.AddJob(m); err != nil {
			mg.log.Warn("bootstrap_job_error", zap.String("monitor_id", string(m.ID)), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", m.ID, err))
			continue
		}
		n++
	}
	mg.log.Info("bootstrap_done", zap.Int("scheduled", n), zap.Int("total", len(all)))
	return n, errs
}

func (mg *Manager) Add(ctx context.Context, m *domain.Monitor) error {
	m.ApplyDefaults()
	if err := m.Validate(); err != nil {
		return err
	}
	m.AlertCounters = domain.DeriveMetricThresholds(m)
	if m.Backoff == (domain.Backoff{}) {
		if err := mg.seedBackoff(ctx, &m.Backoff); err != nil {
			return err
		}
	}
	m.Status = domain.StatusUnknown
	m.StatusWindow = nil
	if err := mg.store.Add(ctx, m); err != nil {
		return fmt.Errorf("store monitor: %w", err)
	}
	return mg.sched.AddJob(m)
}

// Update replaces the operator-owned fields. Status history survives unless
// the update pauses the monitor; the alert counters and backoff cycle start
// over.
func (mg *Manager) Update(ctx context.Context, m *domain.Monitor) error {
	m.ApplyDefaults()
	if err := m.Validate(); err != nil {
		return err
	}
	cur, err := mg.store.GetMonitorByID(ctx, m.ID)
	if err != nil {
		return err
	}
	if cur.IsActive && !m.IsActive {
		m.Status = domain.StatusUnknown
		m.StatusWindow = nil
	} else {
		m.Status = cur.Status
		m.StatusWindow = cur.StatusWindow
		if len(m.StatusWindow) > m.StatusWindowSize {
			m.StatusWindow = m.StatusWindow[len(m.StatusWindow)-m.StatusWindowSize:]
		}
	}
	m.AlertCounters = domain.DeriveMetricThresholds(m)
	if m.Backoff == (domain.Backoff{}) {
		if err := mg.seedBackoff(ctx, &m.Backoff); err != nil {
			return err
		}
	}
	notify.Reset(&m.Backoff)
	if err := mg.store.Update(ctx, m); err != nil {
		return fmt.Errorf("store monitor: %w", err)
	}

	// paused monitors are not scheduled after a restart
	err = mg.sched.UpdateJob(m)
	if errors.Is(err, scheduler.ErrJobNotFound) {
		if !m.IsActive {
			return nil
		}
		return mg.sched.AddJob(m)
	}
	return err
}

// Pause stops probing and forgets the current status; it is unknown until a
// full window has been collected again after resuming. The store rejects
// status writes from a tick still in flight.
func (mg *Manager) Pause(ctx context.Context, id domain.MonitorID) error {
	if err := mg.store.SetActive(ctx, id, false); err != nil {
		return err
	}
	err := mg.sched.PauseJob(id)
	if errors.Is(err, scheduler.ErrJobNotFound) {
		return nil
	}
	return err
}

func (mg *Manager) Resume(ctx context.Context, id domain.MonitorID) error {
	if err := mg.store.SetActive(ctx, id, true); err != nil {
		return err
	}
	m, err := mg.store.GetMonitorByID(ctx, id)
	if err != nil {
		return err
	}
	notify.Reset(&m.Backoff)
	if err := mg.alerts.SaveBackoff(ctx, id, m.Backoff); err != nil {
		return fmt.Errorf("reset backoff: %w", err)
	}
	err = mg.sched.ResumeJob(id)
	if errors.Is(err, scheduler.ErrJobNotFound) {
		return mg.sched.AddJob(m)
	}
	return err
}

func (mg *Manager) Delete(ctx context.Context, id domain.MonitorID) error {
	if err := mg.sched.DeleteJob(id); err != nil && !errors.Is(err, scheduler.ErrJobNotFound) {
		return err
	}
	return mg.store.Delete(ctx, id)
}

func (mg *Manager) seedBackoff(ctx context.Context, b *domain.Backoff) error {
	if mg.settings == nil {
		return nil
	}
	s, err := mg.settings.Settings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	b.Enabled = s.Backoff.Enabled
	b.InitialDelay = s.Backoff.InitialDelay
	b.MaxDelay = s.Backoff.MaxDelay
	b.Multiplier = s.Backoff.Multiplier
	return nil
}

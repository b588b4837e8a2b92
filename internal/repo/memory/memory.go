package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// Store keeps everything in process memory. Monitors are copied on the way in
// and out so callers never share state with the store.
type Store struct {
	mu        sync.RWMutex
	monitors  map[domain.MonitorID]*domain.Monitor
	stats     map[domain.MonitorID]domain.MonitorStats
	checks    []domain.Check
	pagespeed []domain.PageSpeedCheck
	hardware  []domain.HardwareCheck
}

func New() *Store {
	return &Store{
		monitors: make(map[domain.MonitorID]*domain.Monitor),
		stats:    make(map[domain.MonitorID]domain.MonitorStats),
		checks:   make([]domain.Check, 0, 128),
	}
}

// ---- MonitorStore ----

func (m *Store) Add(ctx context.Context, mon *domain.Monitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mon.ID == "" {
		mon.ID = domain.MonitorID(time.Now().UTC().Format("20060102T150405.000000000"))
	}
	if mon.CreatedAt.IsZero() {
		mon.CreatedAt = time.Now().UTC()
	}
	m.monitors[mon.ID] = mon.Clone()
	return nil
}

func (m *Store) Update(ctx context.Context, mon *domain.Monitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.monitors[mon.ID]; !ok {
		return domain.ErrMonitorNotFound
	}
	m.monitors[mon.ID] = mon.Clone()
	return nil
}

func (m *Store) Delete(ctx context.Context, id domain.MonitorID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.monitors, id)
	delete(m.stats, id)
	return nil
}

func (m *Store) GetAllMonitors(ctx context.Context) ([]*domain.Monitor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Monitor, 0, len(m.monitors))
	for _, mon := range m.monitors {
		out = append(out, mon.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Store) GetMonitorByID(ctx context.Context, id domain.MonitorID) (*domain.Monitor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mon, ok := m.monitors[id]
	if !ok {
		return nil, domain.ErrMonitorNotFound
	}
	return mon.Clone(), nil
}

func (m *Store) UpdateStatus(ctx context.Context, id domain.MonitorID, status domain.Status, window []bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mon, ok := m.monitors[id]
	if !ok {
		return domain.ErrMonitorNotFound
	}
	if !mon.IsActive {
		return domain.ErrMonitorInactive
	}
	mon.Status = status
	mon.StatusWindow = append([]bool(nil), window...)
	return nil
}

func (m *Store) SetActive(ctx context.Context, id domain.MonitorID, active bool) error {
	return m.mutate(id, func(mon *domain.Monitor) {
		if mon.IsActive && !active {
			mon.Status = domain.StatusUnknown
			mon.StatusWindow = nil
		}
		mon.IsActive = active
	})
}

// ---- AlertStateStore ----

func (m *Store) SaveBackoff(ctx context.Context, id domain.MonitorID, b domain.Backoff) error {
	return m.mutate(id, func(mon *domain.Monitor) { mon.Backoff = b })
}

func (m *Store) SaveAlertCounters(ctx context.Context, id domain.MonitorID, c domain.AlertCounters) error {
	return m.mutate(id, func(mon *domain.Monitor) { mon.AlertCounters = c })
}

func (m *Store) mutate(id domain.MonitorID, fn func(*domain.Monitor)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mon, ok := m.monitors[id]
	if !ok {
		return domain.ErrMonitorNotFound
	}
	fn(mon)
	return nil
}

// ---- CheckStore ----

func (m *Store) InsertChecks(ctx context.Context, checks []domain.Check) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks = append(m.checks, checks...)
	return nil
}

func (m *Store) InsertPageSpeedChecks(ctx context.Context, checks []domain.PageSpeedCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pagespeed = append(m.pagespeed, checks...)
	return nil
}

func (m *Store) InsertHardwareChecks(ctx context.Context, checks []domain.HardwareCheck) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hardware = append(m.hardware, checks...)
	return nil
}

// Checks returns a copy of every plain check written so far.
func (m *Store) Checks() []domain.Check {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Check(nil), m.checks...)
}

func (m *Store) PageSpeedChecks() []domain.PageSpeedCheck {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.PageSpeedCheck(nil), m.pagespeed...)
}

func (m *Store) HardwareChecks() []domain.HardwareCheck {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.HardwareCheck(nil), m.hardware...)
}

// ---- StatsStore ----

func (m *Store) GetStats(ctx context.Context, id domain.MonitorID) (domain.MonitorStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stats[id]
	if !ok {
		return domain.MonitorStats{MonitorID: id}, nil
	}
	return s, nil
}

func (m *Store) UpsertStats(ctx context.Context, s domain.MonitorStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[s.MonitorID] = s
	return nil
}

package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// Service answers whether a monitor is inside a maintenance window right now.
type Service interface {
	IsInMaintenanceWindow(ctx context.Context, id domain.MonitorID) (bool, error)
}

// Store manages maintenance windows and answers window lookups.
type Store interface {
	Service
	Add(ctx context.Context, w domain.MaintenanceWindow) (domain.MaintenanceWindow, error)
	Remove(ctx context.Context, id domain.MonitorID, windowID string) error
	List(ctx context.Context, id domain.MonitorID) ([]domain.MaintenanceWindow, error)
}

func covered(windows []domain.MaintenanceWindow, now time.Time) bool {
	for _, w := range windows {
		if w.Covers(now) {
			return true
		}
	}
	return false
}

func withID(w domain.MaintenanceWindow) domain.MaintenanceWindow {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return w
}

// Memory keeps windows in process memory.
type Memory struct {
	mu      sync.RWMutex
	windows map[domain.MonitorID]map[string]domain.MaintenanceWindow
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{windows: make(map[domain.MonitorID]map[string]domain.MaintenanceWindow), now: time.Now}
}

func (m *Memory) Add(_ context.Context, w domain.MaintenanceWindow) (domain.MaintenanceWindow, error) {
	w = withID(w)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.windows[w.MonitorID] == nil {
		m.windows[w.MonitorID] = make(map[string]domain.MaintenanceWindow)
	}
	m.windows[w.MonitorID][w.ID] = w
	return w, nil
}

func (m *Memory) Remove(_ context.Context, id domain.MonitorID, windowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows[id], windowID)
	return nil
}

func (m *Memory) List(_ context.Context, id domain.MonitorID) ([]domain.MaintenanceWindow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.MaintenanceWindow, 0, len(m.windows[id]))
	for _, w := range m.windows[id] {
		out = append(out, w)
	}
	return out, nil
}

func (m *Memory) IsInMaintenanceWindow(ctx context.Context, id domain.MonitorID) (bool, error) {
	ws, _ := m.List(ctx, id)
	return covered(ws, m.now()), nil
}

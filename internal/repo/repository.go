package repo

import (
	"context"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// Ports (interfaces): memory and postgres adapters implement them.
type MonitorStore interface {
	Add(ctx context.Context, m *domain.Monitor) error
	Update(ctx context.Context, m *domain.Monitor) error
	Delete(ctx context.Context, id domain.MonitorID) error
	GetAllMonitors(ctx context.Context) ([]*domain.Monitor, error)
	// GetMonitorByID returns domain.ErrMonitorNotFound when absent.
	GetMonitorByID(ctx context.Context, id domain.MonitorID) (*domain.Monitor, error)
	// UpdateStatus atomically replaces status and status window. It returns
	// domain.ErrMonitorInactive, writing nothing, when the monitor is paused.
	UpdateStatus(ctx context.Context, id domain.MonitorID, status domain.Status, window []bool) error
	// SetActive(false) on an active monitor also resets status to unknown and
	// empties the window.
	SetActive(ctx context.Context, id domain.MonitorID, active bool) error
}

// CheckStore receives bulk inserts from the write buffer only.
type CheckStore interface {
	InsertChecks(ctx context.Context, checks []domain.Check) error
	InsertPageSpeedChecks(ctx context.Context, checks []domain.PageSpeedCheck) error
	InsertHardwareChecks(ctx context.Context, checks []domain.HardwareCheck) error
}

type StatsStore interface {
	// GetStats returns a zero-valued row for monitors without stats yet.
	GetStats(ctx context.Context, id domain.MonitorID) (domain.MonitorStats, error)
	UpsertStats(ctx context.Context, s domain.MonitorStats) error
}

package repo

import (
	"context"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// AlertStateStore persists the notification throttle state kept on a monitor:
// the time-based backoff and the hardware per-metric breach counters.
type AlertStateStore interface {
	SaveBackoff(ctx context.Context, id domain.MonitorID, b domain.Backoff) error
	SaveAlertCounters(ctx context.Context, id domain.MonitorID, c domain.AlertCounters) error
}

package postgres

import (
	"context"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

func (s *Store) SaveBackoff(ctx context.Context, id domain.MonitorID, b domain.Backoff) error {
	return s.execOne(ctx, "save backoff",
		`UPDATE monitors SET backoff=$2 WHERE id=$1`, string(id), b)
}

func (s *Store) SaveAlertCounters(ctx context.Context, id domain.MonitorID, c domain.AlertCounters) error {
	return s.execOne(ctx, "save alert counters",
		`UPDATE monitors SET alert_counters=$2 WHERE id=$1`, string(id), c)
}

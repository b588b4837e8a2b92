package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

var checkColumns = []string{
	"id", "monitor_id", "type", "status", "status_code", "response_time_ms", "message", "timings", "created_at",
}

func checkRow(c domain.Check) []any {
	return []any{
		c.ID, string(c.MonitorID), string(c.Type), c.Status, c.StatusCode,
		c.ResponseTime, c.Message, c.Timings, c.CreatedAt,
	}
}

// ---- CheckStore ----
// Each call is a single COPY so a flush costs one round trip per category.

func (s *Store) InsertChecks(ctx context.Context, checks []domain.Check) error {
	if len(checks) == 0 {
		return nil
	}
	_, err := s.pool.CopyFrom(ctx, pgx.Identifier{"checks"}, checkColumns,
		pgx.CopyFromSlice(len(checks), func(i int) ([]any, error) {
			return checkRow(checks[i]), nil
		}))
	if err != nil {
		return fmt.Errorf("copy checks: %w", err)
	}
	return nil
}

func (s *Store) InsertPageSpeedChecks(ctx context.Context, checks []domain.PageSpeedCheck) error {
	if len(checks) == 0 {
		return nil
	}
	cols := append(append([]string(nil), checkColumns...),
		"accessibility", "best_practices", "seo", "performance", "audits")
	_, err := s.pool.CopyFrom(ctx, pgx.Identifier{"pagespeed_checks"}, cols,
		pgx.CopyFromSlice(len(checks), func(i int) ([]any, error) {
			c := checks[i]
			return append(checkRow(c.Check), c.Accessibility, c.BestPractices, c.SEO, c.Performance, c.Audits), nil
		}))
	if err != nil {
		return fmt.Errorf("copy pagespeed checks: %w", err)
	}
	return nil
}

func (s *Store) InsertHardwareChecks(ctx context.Context, checks []domain.HardwareCheck) error {
	if len(checks) == 0 {
		return nil
	}
	cols := append(append([]string(nil), checkColumns...), "cpu", "memory", "disk", "host", "errors")
	_, err := s.pool.CopyFrom(ctx, pgx.Identifier{"hardware_checks"}, cols,
		pgx.CopyFromSlice(len(checks), func(i int) ([]any, error) {
			c := checks[i]
			return append(checkRow(c.Check), c.CPU, c.Memory, c.Disk, c.Host, c.Errors), nil
		}))
	if err != nil {
		return fmt.Errorf("copy hardware checks: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

func (s *Store) GetStats(ctx context.Context, id domain.MonitorID) (domain.MonitorStats, error) {
	st := domain.MonitorStats{MonitorID: id}
	var lastCheck, lastFailure *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT avg_response_time_ms, total_checks, total_up_checks, total_down_checks,
		        uptime_percentage, last_check_at, last_response_time_ms, time_of_last_failure
		   FROM monitor_stats
		  WHERE monitor_id=$1`, string(id)).
		Scan(&st.AvgResponseTime, &st.TotalChecks, &st.TotalUpChecks, &st.TotalDownChecks,
			&st.UptimePercentage, &lastCheck, &st.LastResponseTime, &lastFailure)
	if errors.Is(err, pgx.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("get stats: %w", err)
	}
	if lastCheck != nil {
		st.LastCheckTimestamp = *lastCheck
	}
	if lastFailure != nil {
		st.TimeOfLastFailure = *lastFailure
	}
	return st, nil
}

func (s *Store) UpsertStats(ctx context.Context, st domain.MonitorStats) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO monitor_stats
		  (monitor_id, avg_response_time_ms, total_checks, total_up_checks, total_down_checks,
		   uptime_percentage, last_check_at, last_response_time_ms, time_of_last_failure)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (monitor_id) DO UPDATE SET
		  avg_response_time_ms=EXCLUDED.avg_response_time_ms,
		  total_checks=EXCLUDED.total_checks,
		  total_up_checks=EXCLUDED.total_up_checks,
		  total_down_checks=EXCLUDED.total_down_checks,
		  uptime_percentage=EXCLUDED.uptime_percentage,
		  last_check_at=EXCLUDED.last_check_at,
		  last_response_time_ms=EXCLUDED.last_response_time_ms,
		  time_of_last_failure=EXCLUDED.time_of_last_failure`,
		string(st.MonitorID), st.AvgResponseTime, st.TotalChecks, st.TotalUpChecks, st.TotalDownChecks,
		st.UptimePercentage, nullTime(st.LastCheckTimestamp), st.LastResponseTime, nullTime(st.TimeOfLastFailure),
	)
	if err != nil {
		return fmt.Errorf("upsert stats: %w", err)
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

package domain

import "time"

// MonitorStats is the single aggregate row kept per monitor.
type MonitorStats struct {
	MonitorID          MonitorID `json:"monitor_id"`
	AvgResponseTime    float64   `json:"avg_response_time_ms"`
	TotalChecks        int64     `json:"total_checks"`
	TotalUpChecks      int64     `json:"total_up_checks"`
	TotalDownChecks    int64     `json:"total_down_checks"`
	UptimePercentage   float64   `json:"uptime_percentage"`
	LastCheckTimestamp time.Time `json:"last_check_timestamp"`
	LastResponseTime   float64   `json:"last_response_time_ms"`
	TimeOfLastFailure  time.Time `json:"time_of_last_failure"`
}

// Record folds one probe outcome into the running aggregates. The counter is
// incremented before the mean is recomputed.
func (s *MonitorStats) Record(up bool, responseTime float64, at time.Time) {
	s.TotalChecks++
	s.AvgResponseTime += (responseTime - s.AvgResponseTime) / float64(s.TotalChecks)
	if up {
		s.TotalUpChecks++
		s.TimeOfLastFailure = time.Time{}
	} else {
		s.TotalDownChecks++
		s.TimeOfLastFailure = at
	}
	s.UptimePercentage = float64(s.TotalUpChecks) / float64(s.TotalChecks) * 100
	s.LastCheckTimestamp = at
	s.LastResponseTime = responseTime
}

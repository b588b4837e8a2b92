package domain

// DefaultAlertThreshold is used when a hardware monitor does not set one.
const DefaultAlertThreshold = 5

// DeriveMetricThresholds seeds every per-metric alert counter from the
// monitor's single AlertThreshold. It is called whenever a monitor is created
// or updated.
func DeriveMetricThresholds(m *Monitor) AlertCounters {
	n := m.AlertThreshold
	if n <= 0 {
		n = DefaultAlertThreshold
	}
	return AlertCounters{CPU: n, Memory: n, Disk: n, Temperature: n}
}

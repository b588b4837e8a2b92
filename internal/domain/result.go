package domain

import "time"

// Normalized probe codes. HTTP-based handlers report the response status code
// otherwise.
const (
	CodeOK                = 200
	CodeContainerNotFound = 404
	// CodeNoResponse means the transport failed and no response was received.
	CodeNoResponse = 5000
	// CodeMatchFailed means a response arrived but its body failed the
	// expected-value or JSON path check.
	CodeMatchFailed       = 5001
	CodeContainerStopped  = 5002
	CodeUnexpectedPayload = 5003
)

// Timings is the protocol timing breakdown in milliseconds.
type Timings struct {
	DNS   float64 `json:"dns_ms,omitempty"`
	TCP   float64 `json:"tcp_ms,omitempty"`
	TLS   float64 `json:"tls_ms,omitempty"`
	TTFB  float64 `json:"ttfb_ms,omitempty"`
	Total float64 `json:"total_ms,omitempty"`
}

// ProbeResult is the normalized outcome of one probe. It is never persisted
// as is; the status engine derives a Check from it.
type ProbeResult struct {
	MonitorID    MonitorID   `json:"monitor_id"`
	Type         MonitorType `json:"type"`
	Status       bool        `json:"status"`
	Code         int         `json:"code"`
	Message      string      `json:"message"`
	ResponseTime float64     `json:"response_time_ms"`
	Payload      any         `json:"payload,omitempty"`
	Timings      Timings     `json:"timings"`
	CheckedAt    time.Time   `json:"checked_at"`
}

type Check struct {
	ID           string      `json:"id"`
	MonitorID    MonitorID   `json:"monitor_id"`
	Type         MonitorType `json:"type"`
	Status       bool        `json:"status"`
	StatusCode   int         `json:"status_code"`
	ResponseTime float64     `json:"response_time_ms"`
	Message      string      `json:"message"`
	Timings      Timings     `json:"timings"`
	CreatedAt    time.Time   `json:"created_at"`
}

type PageSpeedCheck struct {
	Check
	Accessibility float64         `json:"accessibility"`
	BestPractices float64         `json:"best_practices"`
	SEO           float64         `json:"seo"`
	Performance   float64         `json:"performance"`
	Audits        PageSpeedAudits `json:"audits"`
}

// PageSpeedAudits keeps the numeric value of the core web vitals audits.
type PageSpeedAudits struct {
	CLS float64 `json:"cls"`
	SI  float64 `json:"si"`
	FCP float64 `json:"fcp"`
	LCP float64 `json:"lcp"`
	TBT float64 `json:"tbt"`
}

// PageSpeedReport is the decoded payload of a pagespeed probe.
type PageSpeedReport struct {
	Accessibility float64
	BestPractices float64
	SEO           float64
	Performance   float64
	Audits        PageSpeedAudits
}

type HardwareCheck struct {
	Check
	HardwareMetrics
}

// HardwareMetrics is what a hardware agent reports. Usage values are fractions.
type HardwareMetrics struct {
	CPU    CPUMetrics    `json:"cpu"`
	Memory MemoryMetrics `json:"memory"`
	Disk   []DiskMetrics `json:"disk"`
	Host   HostMetrics   `json:"host"`
	Errors []AgentError  `json:"errors,omitempty"`
}

type CPUMetrics struct {
	PhysicalCore int     `json:"physical_core"`
	LogicalCore  int     `json:"logical_core"`
	Frequency    float64 `json:"frequency"`
	Temperature  float64 `json:"temperature"`
	UsagePercent float64 `json:"usage_percent"`
}

type MemoryMetrics struct {
	TotalBytes     uint64  `json:"total_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsagePercent   float64 `json:"usage_percent"`
}

type DiskMetrics struct {
	Device       string  `json:"device"`
	TotalBytes   uint64  `json:"total_bytes"`
	FreeBytes    uint64  `json:"free_bytes"`
	UsagePercent float64 `json:"usage_percent"`
}

type HostMetrics struct {
	OS            string `json:"os"`
	Platform      string `json:"platform"`
	KernelVersion string `json:"kernel_version"`
}

type AgentError struct {
	Metric  string `json:"metric"`
	Message string `json:"err"`
}

// MaxDiskUsage returns the highest usage fraction across all disks.
func (h HardwareMetrics) MaxDiskUsage() float64 {
	var max float64
	for _, d := range h.Disk {
		if d.UsagePercent > max {
			max = d.UsagePercent
		}
	}
	return max
}

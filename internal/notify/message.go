package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// Severity mirrors the PagerDuty severities.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Message is channel neutral; each sender renders it into its own payload.
type Message struct {
	MonitorID   domain.MonitorID `json:"monitor_id"`
	MonitorName string           `json:"monitor_name"`
	Target      string           `json:"target"`
	Status      domain.Status    `json:"status"`
	Severity    Severity         `json:"severity"`
	// Resolved marks a recovery; PagerDuty resolves the open incident.
	Resolved  bool      `json:"resolved"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// HTML renders Text as a minimal HTML e-mail body.
func (m Message) HTML() string {
	lines := strings.Split(m.Text, "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return fmt.Sprintf("<h2>%s</h2><p>%s</p>", html.EscapeString(m.Title), strings.Join(lines, "<br>"))
}

func statusMessage(m *domain.Monitor, res domain.ProbeResult, at time.Time) Message {
	msg := Message{
		MonitorID:   m.ID,
		MonitorName: displayName(m),
		Target:      target(m),
		Status:      m.Status,
		Timestamp:   at,
	}
	if m.Status == domain.StatusUp {
		msg.Title = fmt.Sprintf("🟢 %s is back up", msg.MonitorName)
		msg.Severity = SeverityInfo
		msg.Resolved = true
	} else {
		msg.Title = fmt.Sprintf("🔴 %s is down", msg.MonitorName)
		msg.Severity = SeverityCritical
	}
	msg.Text = fmt.Sprintf("Target: %s\nCode: %s\nResponse: %.0f ms\nReason: %s\nChecked: %s",
		msg.Target, codeText(res.Code), res.ResponseTime, orNA(res.Message), at.Format(time.RFC3339))
	return msg
}

func hardwareMessage(m *domain.Monitor, hw domain.HardwareMetrics, breached []string, at time.Time) Message {
	msg := Message{
		MonitorID:   m.ID,
		MonitorName: displayName(m),
		Target:      target(m),
		Status:      m.Status,
		Severity:    SeverityWarning,
		Title:       fmt.Sprintf("⚠️ %s hardware threshold exceeded", displayName(m)),
		Timestamp:   at,
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Target: %s\n", msg.Target)
	for _, metric := range breached {
		switch metric {
		case metricCPU:
			fmt.Fprintf(&b, "CPU usage %.0f%% > %.0f%%\n", hw.CPU.UsagePercent*100, m.Thresholds.CPU*100)
		case metricMemory:
			fmt.Fprintf(&b, "Memory usage %.0f%% > %.0f%%\n", hw.Memory.UsagePercent*100, m.Thresholds.Memory*100)
		case metricDisk:
			fmt.Fprintf(&b, "Disk usage %.0f%% > %.0f%%\n", hw.MaxDiskUsage()*100, m.Thresholds.Disk*100)
		case metricTemperature:
			fmt.Fprintf(&b, "CPU temperature %.1f°C > %.1f°C\n", hw.CPU.Temperature, m.Thresholds.Temperature)
		}
	}
	fmt.Fprintf(&b, "Checked: %s", at.Format(time.RFC3339))
	msg.Text = b.String()
	return msg
}

func displayName(m *domain.Monitor) string {
	if m.Name != "" {
		return m.Name
	}
	return string(m.ID)
}

func target(m *domain.Monitor) string {
	switch {
	case m.Type == domain.TypeDocker && m.ContainerRef != "":
		return "container " + m.ContainerRef
	case m.URL != "":
		return m.URL
	case m.Port > 0:
		return fmt.Sprintf("%s:%d", m.Host, m.Port)
	}
	return m.Host
}

func codeText(code int) string {
	switch code {
	case 0:
		return "n/a"
	case domain.CodeNoResponse:
		return "no response"
	case domain.CodeMatchFailed:
		return "content mismatch"
	case domain.CodeContainerStopped:
		return "container stopped"
	case domain.CodeUnexpectedPayload:
		return "unexpected payload"
	}
	return fmt.Sprintf("%d", code)
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

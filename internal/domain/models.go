package domain

import (
	"fmt"
	"time"
)

type MonitorID string

type MonitorType string

const (
	TypeHTTP      MonitorType = "http"
	TypePing      MonitorType = "ping"
	TypePort      MonitorType = "port"
	TypeDocker    MonitorType = "docker"
	TypeGame      MonitorType = "game"
	TypePageSpeed MonitorType = "pagespeed"
	TypeHardware  MonitorType = "hardware"
)

// Valid reports whether t is one of the known monitor types.
func (t MonitorType) Valid() bool {
	switch t {
	case TypeHTTP, TypePing, TypePort, TypeDocker, TypeGame, TypePageSpeed, TypeHardware:
		return true
	}
	return false
}

// Status is the tri-state monitor status. The zero value is StatusUnknown.
type Status string

const (
	StatusUnknown Status = ""
	StatusUp      Status = "up"
	StatusDown    Status = "down"
)

func (s Status) String() string {
	if s == StatusUnknown {
		return "unknown"
	}
	return string(s)
}

const (
	DefaultStatusWindowSize      = 5
	DefaultStatusWindowThreshold = 0.6
)

type MatchMethod string

const (
	MatchEqual   MatchMethod = "equal"
	MatchInclude MatchMethod = "include"
	MatchRegex   MatchMethod = "regex"
)

// Monitor is a configured target under continuous observation. The status
// window, status and alert state are mutated by the engine; everything else
// comes from the operator.
type Monitor struct {
	ID       MonitorID     `json:"id"`
	Name     string        `json:"name"`
	Type     MonitorType   `json:"type"`
	IsActive bool          `json:"is_active"`
	Interval time.Duration `json:"interval"`

	// target descriptor
	URL          string `json:"url,omitempty"`
	Host         string `json:"host,omitempty"`
	Port         int    `json:"port,omitempty"`
	ContainerRef string `json:"container_ref,omitempty"`
	GameType     string `json:"game_type,omitempty"`

	// http options
	Secret        string      `json:"-"`
	IgnoreTLS     bool        `json:"ignore_tls,omitempty"`
	ExpectedValue string      `json:"expected_value,omitempty"`
	MatchMethod   MatchMethod `json:"match_method,omitempty"`
	JSONPath      string      `json:"json_path,omitempty"`

	StatusWindowSize      int     `json:"status_window_size"`
	StatusWindowThreshold float64 `json:"status_window_threshold"`
	StatusWindow          []bool  `json:"status_window"`
	Status                Status  `json:"status"`

	// hardware only
	Thresholds     Thresholds    `json:"thresholds"`
	AlertThreshold int           `json:"alert_threshold"`
	AlertCounters  AlertCounters `json:"alert_counters"`

	Notifications []Notification `json:"notifications,omitempty"`
	Backoff       Backoff        `json:"backoff"`

	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy so callers can mutate it without racing the store.
func (m *Monitor) Clone() *Monitor {
	if m == nil {
		return nil
	}
	cp := *m
	if m.StatusWindow != nil {
		cp.StatusWindow = append([]bool(nil), m.StatusWindow...)
	}
	if m.Notifications != nil {
		cp.Notifications = append([]Notification(nil), m.Notifications...)
	}
	return &cp
}

// Validate returns ErrInvalidMonitor when the monitor cannot be probed at all
// or its window threshold is not a failure fraction.
func (m *Monitor) Validate() error {
	if m == nil || m.ID == "" || !m.Type.Valid() {
		return ErrInvalidMonitor
	}
	if !(m.StatusWindowThreshold >= 0 && m.StatusWindowThreshold <= 1) {
		return fmt.Errorf("%w: status window threshold %v outside [0,1]", ErrInvalidMonitor, m.StatusWindowThreshold)
	}
	return nil
}

// ApplyDefaults fills an unset window size and threshold.
func (m *Monitor) ApplyDefaults() {
	if m.StatusWindowSize < 1 {
		m.StatusWindowSize = DefaultStatusWindowSize
	}
	if m.StatusWindowThreshold == 0 {
		m.StatusWindowThreshold = DefaultStatusWindowThreshold
	}
}

// WindowSize is the effective status window length, never below one.
func (m *Monitor) WindowSize() int {
	if m.StatusWindowSize < 1 {
		return DefaultStatusWindowSize
	}
	return m.StatusWindowSize
}

// Thresholds are hardware alert limits. CPU, memory and disk are usage
// fractions (0.8 == 80%); temperature is in degrees Celsius. Zero disables.
type Thresholds struct {
	CPU         float64 `json:"usage_cpu,omitempty"`
	Memory      float64 `json:"usage_memory,omitempty"`
	Disk        float64 `json:"usage_disk,omitempty"`
	Temperature float64 `json:"usage_temperature,omitempty"`
}

// AlertCounters count down consecutive breaches per metric; an alert fires
// when a counter reaches zero.
type AlertCounters struct {
	CPU         int `json:"cpu"`
	Memory      int `json:"memory"`
	Disk        int `json:"disk"`
	Temperature int `json:"temperature"`
}

// Backoff is the per-monitor notification throttle state.
type Backoff struct {
	Enabled              bool          `json:"enabled"`
	InitialDelay         time.Duration `json:"initial_delay"`
	MaxDelay             time.Duration `json:"max_delay"`
	Multiplier           float64       `json:"multiplier"`
	CurrentDelay         time.Duration `json:"current_delay"`
	LastNotificationTime time.Time     `json:"last_notification_time"`
}

type ChannelType string

const (
	ChannelEmail     ChannelType = "email"
	ChannelWebhook   ChannelType = "webhook"
	ChannelSlack     ChannelType = "slack"
	ChannelDiscord   ChannelType = "discord"
	ChannelPagerDuty ChannelType = "pagerduty"
)

// Notification is one configured alert channel attached to a monitor.
// Address is the e-mail address, webhook URL, or PagerDuty routing key.
type Notification struct {
	ID      string      `json:"id"`
	Type    ChannelType `json:"type"`
	Address string      `json:"address"`
}

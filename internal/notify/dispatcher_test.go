package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/uptimeengine/internal/config"
	"github.com/hamed0406/uptimeengine/internal/domain"
	"github.com/hamed0406/uptimeengine/internal/status"
)

type fakeAlerts struct {
	mu       sync.Mutex
	backoff  map[domain.MonitorID]domain.Backoff
	counters map[domain.MonitorID]domain.AlertCounters
}

func newFakeAlerts() *fakeAlerts {
	return &fakeAlerts{backoff: map[domain.MonitorID]domain.Backoff{}, counters: map[domain.MonitorID]domain.AlertCounters{}}
}

func (f *fakeAlerts) SaveBackoff(_ context.Context, id domain.MonitorID, b domain.Backoff) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backoff[id] = b
	return nil
}

func (f *fakeAlerts) SaveAlertCounters(_ context.Context, id domain.MonitorID, c domain.AlertCounters) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[id] = c
	return nil
}

type countingSender struct {
	mu   sync.Mutex
	sent []Message
	fail map[domain.ChannelType]bool
	seen []domain.ChannelType
}

func (c *countingSender) Send(_ context.Context, to domain.Notification, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, to.Type)
	if c.fail[to.Type] {
		return errors.New("channel down")
	}
	c.sent = append(c.sent, msg)
	return nil
}

func testSettings() domain.Settings {
	return domain.Settings{Backoff: domain.BackoffSettings{
		Enabled:      true,
		InitialDelay: 5 * time.Minute,
		MaxDelay:     time.Hour,
		Multiplier:   2,
		JitterFactor: 0.2,
	}}
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *clock {
	return &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func newTestDispatcher(sender Sender) (*Dispatcher, *fakeAlerts, *clock) {
	alerts := newFakeAlerts()
	d := NewDispatcher(config.NewStaticSettings(testSettings()), alerts, sender, nil)
	clk := newClock()
	d.now = clk.now
	return d, alerts, clk
}

func webhookMonitor() *domain.Monitor {
	return &domain.Monitor{
		ID:            "m1",
		Name:          "api",
		Type:          domain.TypeHTTP,
		URL:           "https://api.example.com",
		Status:        domain.StatusDown,
		Notifications: []domain.Notification{{ID: "n1", Type: domain.ChannelWebhook, Address: "http://hook"}},
		Backoff:       domain.Backoff{Enabled: true},
	}
}

func downOutcome(m *domain.Monitor) status.Outcome {
	m.Status = domain.StatusDown
	return status.Outcome{Monitor: m, StatusChanged: true, PrevStatus: domain.StatusUp,
		Result: domain.ProbeResult{Code: domain.CodeNoResponse, Message: "timeout"}}
}

func TestHandleNotifications_TransitionGate(t *testing.T) {
	sender := &countingSender{}
	d, _, _ := newTestDispatcher(sender)
	ctx := context.Background()

	m := webhookMonitor()
	sent, err := d.HandleNotifications(ctx, status.Outcome{Monitor: m, StatusChanged: false, PrevStatus: domain.StatusUp})
	require.NoError(t, err)
	assert.False(t, sent)

	sent, err = d.HandleNotifications(ctx, status.Outcome{Monitor: m, StatusChanged: true, PrevStatus: domain.StatusUnknown})
	require.NoError(t, err)
	assert.False(t, sent, "first determination must not alert")

	m.Notifications = nil
	sent, err = d.HandleNotifications(ctx, downOutcome(m))
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, sender.sent)
}

func TestHandleNotifications_Backoff(t *testing.T) {
	sender := &countingSender{}
	d, alerts, clk := newTestDispatcher(sender)
	d.rand = func() float64 { return 0.5 } // no jitter offset
	ctx := context.Background()
	m := webhookMonitor()

	sent, err := d.HandleNotifications(ctx, downOutcome(m))
	require.NoError(t, err)
	require.True(t, sent, "first notification always sends")
	assert.Equal(t, 5*time.Minute, m.Backoff.CurrentDelay)
	assert.Equal(t, clk.t, m.Backoff.LastNotificationTime)
	assert.Equal(t, m.Backoff, alerts.backoff["m1"])

	clk.advance(time.Minute)
	sent, err = d.HandleNotifications(ctx, downOutcome(m))
	require.NoError(t, err)
	assert.False(t, sent, "inside the delay it is suppressed")
	assert.Len(t, sender.sent, 1)

	clk.advance(4 * time.Minute)
	sent, err = d.HandleNotifications(ctx, downOutcome(m))
	require.NoError(t, err)
	require.True(t, sent)
	assert.Equal(t, 10*time.Minute, m.Backoff.CurrentDelay)

	// capped at max
	m.Backoff.CurrentDelay = 45 * time.Minute
	clk.advance(45 * time.Minute)
	_, err = d.HandleNotifications(ctx, downOutcome(m))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, m.Backoff.CurrentDelay)
}

func TestHandleNotifications_JitterBounds(t *testing.T) {
	for _, r := range []float64{0, 0.25, 0.999} {
		r := r
		sender := &countingSender{}
		d, _, _ := newTestDispatcher(sender)
		d.rand = func() float64 { return r }
		m := webhookMonitor()
		m.Backoff.CurrentDelay = 5 * time.Minute
		m.Backoff.LastNotificationTime = d.now().Add(-time.Hour)

		_, err := d.HandleNotifications(context.Background(), downOutcome(m))
		require.NoError(t, err)
		// 10m ± 0.2/2 * 10m
		assert.GreaterOrEqual(t, m.Backoff.CurrentDelay, 9*time.Minute)
		assert.LessOrEqual(t, m.Backoff.CurrentDelay, 11*time.Minute)
	}
}

func TestHandleNotifications_RecoveryBypassesGate(t *testing.T) {
	sender := &countingSender{}
	d, _, clk := newTestDispatcher(sender)
	m := webhookMonitor()
	m.Backoff.CurrentDelay = time.Hour
	m.Backoff.LastNotificationTime = clk.t.Add(-time.Minute)

	m.Status = domain.StatusUp
	sent, err := d.HandleNotifications(context.Background(), status.Outcome{Monitor: m, StatusChanged: true, PrevStatus: domain.StatusDown})
	require.NoError(t, err)
	require.True(t, sent)
	require.Len(t, sender.sent, 1)
	assert.True(t, sender.sent[0].Resolved)
	assert.Equal(t, time.Hour, m.Backoff.CurrentDelay, "recovery leaves the cycle alone")
}

func TestHandleNotifications_BackoffDisabled(t *testing.T) {
	sender := &countingSender{}
	d, _, _ := newTestDispatcher(sender)
	m := webhookMonitor()
	m.Backoff.Enabled = false

	for i := 0; i < 3; i++ {
		sent, err := d.HandleNotifications(context.Background(), downOutcome(m))
		require.NoError(t, err)
		assert.True(t, sent)
	}
	assert.Zero(t, m.Backoff.CurrentDelay)
}

func TestHandleNotifications_OneChannelFailing(t *testing.T) {
	sender := &countingSender{fail: map[domain.ChannelType]bool{domain.ChannelSlack: true}}
	d, _, _ := newTestDispatcher(sender)
	m := webhookMonitor()
	m.Notifications = append(m.Notifications,
		domain.Notification{ID: "n2", Type: domain.ChannelSlack, Address: "http://slack"},
		domain.Notification{ID: "n3", Type: domain.ChannelDiscord, Address: "http://discord"})

	sent, err := d.HandleNotifications(context.Background(), downOutcome(m))
	require.Error(t, err)
	assert.False(t, sent)
	assert.Len(t, sender.seen, 3, "every channel attempted")
	assert.Len(t, sender.sent, 2)
	assert.Contains(t, err.Error(), "slack n2")
}

func hardwareOutcome(m *domain.Monitor, cpu float64) status.Outcome {
	return status.Outcome{Monitor: m, Result: domain.ProbeResult{
		Status:  true,
		Payload: domain.HardwareMetrics{CPU: domain.CPUMetrics{UsagePercent: cpu}},
	}}
}

func TestHandleNotifications_HardwareCountBackoff(t *testing.T) {
	sender := &countingSender{}
	d, alerts, _ := newTestDispatcher(sender)
	m := &domain.Monitor{
		ID:             "hw",
		Type:           domain.TypeHardware,
		Thresholds:     domain.Thresholds{CPU: 0.8},
		AlertThreshold: 3,
		Notifications:  []domain.Notification{{ID: "n1", Type: domain.ChannelWebhook, Address: "http://hook"}},
	}
	m.AlertCounters = domain.DeriveMetricThresholds(m)
	ctx := context.Background()

	var fired []bool
	for i := 0; i < 4; i++ {
		sent, err := d.HandleNotifications(ctx, hardwareOutcome(m, 0.95))
		require.NoError(t, err)
		fired = append(fired, sent)
	}
	assert.Equal(t, []bool{false, false, true, false}, fired)
	assert.Equal(t, 2, alerts.counters["hw"].CPU, "counter reset to 3 then decremented once")

	_, err := d.HandleNotifications(ctx, hardwareOutcome(m, 0.1))
	require.NoError(t, err)
	assert.Equal(t, 3, m.AlertCounters.CPU, "a healthy sample restarts the count")
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "CPU usage 95%")
}

func TestHandleNotifications_HardwareAgentDownUsesTransition(t *testing.T) {
	sender := &countingSender{}
	d, _, _ := newTestDispatcher(sender)
	m := &domain.Monitor{ID: "hw", Type: domain.TypeHardware, Status: domain.StatusDown,
		Notifications: []domain.Notification{{ID: "n1", Type: domain.ChannelWebhook, Address: "http://hook"}}}

	sent, err := d.HandleNotifications(context.Background(), status.Outcome{
		Monitor: m, StatusChanged: true, PrevStatus: domain.StatusUp,
		Result: domain.ProbeResult{Code: domain.CodeNoResponse},
	})
	require.NoError(t, err)
	assert.True(t, sent)
}

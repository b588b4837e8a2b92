package notify

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

const pagerDutyEventsURL = "https://events.pagerduty.com/v2/enqueue"

// PagerDuty sends Events API v2 alerts. The notification address is the
// integration routing key; the monitor ID is the dedup key so a recovery
// resolves the incident its outage opened.
type PagerDuty struct {
	Client   *http.Client
	Endpoint string
}

func NewPagerDuty() *PagerDuty {
	return &PagerDuty{Client: &http.Client{Timeout: 10 * time.Second}, Endpoint: pagerDutyEventsURL}
}

type pdEvent struct {
	RoutingKey  string     `json:"routing_key"`
	EventAction string     `json:"event_action"`
	DedupKey    string     `json:"dedup_key"`
	Payload     *pdPayload `json:"payload,omitempty"`
}

type pdPayload struct {
	Summary   string `json:"summary"`
	Source    string `json:"source"`
	Severity  string `json:"severity"`
	Timestamp string `json:"timestamp"`
	Details   string `json:"custom_details,omitempty"`
}

func (p *PagerDuty) Send(ctx context.Context, to domain.Notification, msg Message) error {
	if to.Address == "" {
		return errors.New("pagerduty: empty routing key")
	}
	ev := pdEvent{
		RoutingKey:  to.Address,
		EventAction: "trigger",
		DedupKey:    "monitor-" + string(msg.MonitorID),
		Payload: &pdPayload{
			Summary:   msg.Title,
			Source:    msg.Target,
			Severity:  string(msg.Severity),
			Timestamp: msg.Timestamp.Format(time.RFC3339),
			Details:   msg.Text,
		},
	}
	if ev.Payload.Source == "" {
		ev.Payload.Source = msg.MonitorName
	}
	if msg.Resolved {
		ev.EventAction = "resolve"
		ev.Payload = nil
	}
	return postJSON(ctx, p.Client, p.Endpoint, ev)
}

package notify

import (
	"context"
	"fmt"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// Sender delivers a rendered message to one configured channel.
type Sender interface {
	Send(ctx context.Context, to domain.Notification, msg Message) error
}

// SenderFunc adapts a plain function to Sender.
type SenderFunc func(ctx context.Context, to domain.Notification, msg Message) error

func (f SenderFunc) Send(ctx context.Context, to domain.Notification, msg Message) error {
	return f(ctx, to, msg)
}

// Senders routes a notification to the sender registered for its channel type.
type Senders map[domain.ChannelType]Sender

func (s Senders) Send(ctx context.Context, to domain.Notification, msg Message) error {
	sender, ok := s[to.Type]
	if !ok || sender == nil {
		return fmt.Errorf("no sender for channel %q", to.Type)
	}
	return sender.Send(ctx, to, msg)
}

// DefaultSenders wires every channel type to its production sender.
func DefaultSenders(settings domain.SettingsProvider) Senders {
	wh := NewWebhook()
	return Senders{
		domain.ChannelEmail:     NewEmail(settings),
		domain.ChannelWebhook:   wh,
		domain.ChannelSlack:     wh,
		domain.ChannelDiscord:   wh,
		domain.ChannelPagerDuty: NewPagerDuty(),
	}
}

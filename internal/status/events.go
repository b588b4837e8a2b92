package status

import (
	"sync"
	"time"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// Event is published whenever a monitor's status flips.
type Event struct {
	MonitorID domain.MonitorID `json:"monitor_id"`
	Name      string           `json:"name"`
	From      domain.Status    `json:"from"`
	To        domain.Status    `json:"to"`
	At        time.Time        `json:"at"`
}

// Bus fans status events out to in-process subscribers. A slow subscriber
// loses events instead of blocking the status engine.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe returns a channel of events and a func that unsubscribes and
// closes it.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

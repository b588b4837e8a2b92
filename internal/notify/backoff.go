package notify

import (
	"time"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

// policy merges the operator defaults with the monitor's own overrides.
type policy struct {
	enabled      bool
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitterFactor float64
}

func policyFor(s domain.BackoffSettings, b domain.Backoff) policy {
	p := policy{
		enabled:      s.Enabled && b.Enabled,
		initialDelay: s.InitialDelay,
		maxDelay:     s.MaxDelay,
		multiplier:   s.Multiplier,
		jitterFactor: s.JitterFactor,
	}
	if b.InitialDelay > 0 {
		p.initialDelay = b.InitialDelay
	}
	if b.MaxDelay > 0 {
		p.maxDelay = b.MaxDelay
	}
	if b.Multiplier >= 1 {
		p.multiplier = b.Multiplier
	}
	if p.multiplier < 1 {
		p.multiplier = 1
	}
	return p
}

// allow is the time gate. The first notification of a cycle always passes.
func (p policy) allow(b domain.Backoff, now time.Time) bool {
	if !p.enabled || b.LastNotificationTime.IsZero() {
		return true
	}
	return now.Sub(b.LastNotificationTime) >= b.CurrentDelay
}

// advance records a send and grows the delay. rnd returns a value in [0,1).
func (p policy) advance(b *domain.Backoff, now time.Time, rnd func() float64) {
	b.LastNotificationTime = now
	if !p.enabled {
		return
	}
	if b.CurrentDelay <= 0 {
		b.CurrentDelay = p.initialDelay
		return
	}
	next := time.Duration(float64(b.CurrentDelay) * p.multiplier)
	if p.maxDelay > 0 && next > p.maxDelay {
		next = p.maxDelay
	}
	b.CurrentDelay = jitter(next, p.jitterFactor, rnd)
}

// Reset starts a new cycle; the next alert is sent immediately.
func Reset(b *domain.Backoff) {
	b.CurrentDelay = 0
	b.LastNotificationTime = time.Time{}
}

// jitter spreads d uniformly within ±factor/2 of itself, never below zero.
func jitter(d time.Duration, factor float64, rnd func() float64) time.Duration {
	if factor <= 0 || d <= 0 {
		return d
	}
	spread := float64(d) * factor / 2
	out := float64(d) + (rnd()*2-1)*spread
	if out < 0 {
		return 0
	}
	return time.Duration(out)
}

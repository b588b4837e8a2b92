package buffer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/uptimeengine/internal/domain"
	"github.com/hamed0406/uptimeengine/internal/repo"
)

const defaultFlushTimeout = 30 * time.Second

// Buffer batches check records in memory and writes them in bulk, one insert
// per category per flush. A category whose insert fails loses that batch.
type Buffer struct {
	store    repo.CheckStore
	log      *zap.Logger
	interval time.Duration

	mu        sync.Mutex
	checks    []domain.Check
	pagespeed []domain.PageSpeedCheck
	hardware  []domain.HardwareCheck

	flushMu sync.Mutex // one flush at a time
	timerMu sync.Mutex
	timer   *time.Timer
	stopped bool
	running sync.WaitGroup
}

func New(store repo.CheckStore, interval time.Duration, log *zap.Logger) *Buffer {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Buffer{store: store, log: log, interval: interval}
}

// AddToBuffer queues a domain.Check, PageSpeedCheck or HardwareCheck. It never
// does I/O.
func (b *Buffer) AddToBuffer(record any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch r := record.(type) {
	case domain.Check:
		b.checks = append(b.checks, r)
	case domain.PageSpeedCheck:
		b.pagespeed = append(b.pagespeed, r)
	case domain.HardwareCheck:
		b.hardware = append(b.hardware, r)
	default:
		b.log.Warn("buffer_unknown_record", zap.String("type", fmt.Sprintf("%T", record)))
	}
}

// Len reports how many records are waiting for the next flush.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.checks) + len(b.pagespeed) + len(b.hardware)
}

// Start arms the flush timer. Each flush re-arms it only after finishing, so a
// slow database never causes overlapping flushes.
func (b *Buffer) Start() {
	b.timerMu.Lock()
	defer b.timerMu.Unlock()
	if b.timer != nil || b.stopped {
		return
	}
	b.timer = time.AfterFunc(b.interval, b.tick)
}

func (b *Buffer) tick() {
	b.timerMu.Lock()
	if b.stopped {
		b.timerMu.Unlock()
		return
	}
	b.running.Add(1)
	b.timerMu.Unlock()
	defer b.running.Done()

	ctx, cancel := context.WithTimeout(context.Background(), defaultFlushTimeout)
	defer cancel()
	if err := b.Flush(ctx); err != nil {
		b.log.Error("buffer_flush_error", zap.Error(err))
	}

	b.timerMu.Lock()
	if !b.stopped {
		b.timer.Reset(b.interval)
	}
	b.timerMu.Unlock()
}

// Stop disarms the timer, waits for a flush in progress and then writes
// whatever is still buffered.
func (b *Buffer) Stop(ctx context.Context) error {
	b.timerMu.Lock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timerMu.Unlock()
	b.running.Wait()

	err := b.Flush(ctx)
	if n := b.Len(); n > 0 {
		b.log.Warn("buffer_records_lost", zap.Int("count", n))
	}
	return err
}

// Flush drains every category. Categories are written independently; the
// returned error combines the failures, whose records are already dropped.
func (b *Buffer) Flush(ctx context.Context) error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	checks, pagespeed, hardware := b.checks, b.pagespeed, b.hardware
	b.checks, b.pagespeed, b.hardware = nil, nil, nil
	b.mu.Unlock()

	var err error
	if len(checks) > 0 {
		err = multierr.Append(err, b.write("checks", len(checks), func() error {
			return b.store.InsertChecks(ctx, checks)
		}))
	}
	if len(pagespeed) > 0 {
		err = multierr.Append(err, b.write("pagespeed_checks", len(pagespeed), func() error {
			return b.store.InsertPageSpeedChecks(ctx, pagespeed)
		}))
	}
	if len(hardware) > 0 {
		err = multierr.Append(err, b.write("hardware_checks", len(hardware), func() error {
			return b.store.InsertHardwareChecks(ctx, hardware)
		}))
	}
	return err
}

func (b *Buffer) write(category string, n int, insert func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("insert %s panicked: %v", category, r)
		}
		if err != nil {
			b.log.Error("buffer_category_dropped",
				zap.String("category", category), zap.Int("count", n), zap.Error(err))
		}
	}()
	if err := insert(); err != nil {
		return fmt.Errorf("insert %s: %w", category, err)
	}
	b.log.Debug("buffer_flushed", zap.String("category", category), zap.Int("count", n))
	return nil
}

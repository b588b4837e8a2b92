package buffer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/uptimeengine/internal/domain"
	"github.com/hamed0406/uptimeengine/internal/repo/memory"
)

// flakyStore fails the plain checks insert while failChecks is set.
type flakyStore struct {
	*memory.Store
	mu         sync.Mutex
	failChecks bool
	calls      int
}

func (f *flakyStore) InsertChecks(ctx context.Context, c []domain.Check) error {
	f.mu.Lock()
	f.calls++
	fail := f.failChecks
	f.mu.Unlock()
	if fail {
		return errors.New("connection reset")
	}
	return f.Store.InsertChecks(ctx, c)
}

func check(id string) domain.Check {
	return domain.Check{ID: id, MonitorID: "m1", Status: true}
}

func TestFlush_WritesEveryBufferedRecord(t *testing.T) {
	store := memory.New()
	b := New(store, time.Hour, nil)
	for i := 0; i < 25; i++ {
		b.AddToBuffer(check(string(rune('a' + i))))
	}
	b.AddToBuffer(domain.PageSpeedCheck{Check: check("ps")})
	b.AddToBuffer(domain.HardwareCheck{Check: check("hw")})
	require.Equal(t, 27, b.Len())

	require.NoError(t, b.Flush(context.Background()))
	assert.Len(t, store.Checks(), 25)
	assert.Len(t, store.PageSpeedChecks(), 1)
	assert.Len(t, store.HardwareChecks(), 1)
	assert.Zero(t, b.Len())
}

func TestFlush_FailingCategoryIsDroppedOthersWritten(t *testing.T) {
	store := &flakyStore{Store: memory.New(), failChecks: true}
	b := New(store, time.Hour, nil)
	b.AddToBuffer(check("c1"))
	b.AddToBuffer(domain.HardwareCheck{Check: check("hw")})

	err := b.Flush(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert checks")
	assert.Len(t, store.HardwareChecks(), 1)
	assert.Zero(t, b.Len(), "failed batch must not be retained")

	store.mu.Lock()
	store.failChecks = false
	store.mu.Unlock()
	b.AddToBuffer(check("c2"))
	require.NoError(t, b.Flush(context.Background()))
	require.Len(t, store.Checks(), 1)
	assert.Equal(t, "c2", store.Checks()[0].ID)
}

func TestStart_FlushesOnTimerAndKeepsGoing(t *testing.T) {
	store := &flakyStore{Store: memory.New(), failChecks: true}
	b := New(store, 10*time.Millisecond, nil)
	b.Start()
	defer b.Stop(context.Background())

	b.AddToBuffer(check("lost"))
	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.calls >= 1
	}, time.Second, 5*time.Millisecond)

	store.mu.Lock()
	store.failChecks = false
	store.mu.Unlock()
	b.AddToBuffer(check("kept"))
	require.Eventually(t, func() bool { return len(store.Checks()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestStop_FinalFlush(t *testing.T) {
	store := memory.New()
	b := New(store, time.Hour, nil)
	b.Start()
	b.AddToBuffer(check("c1"))
	b.AddToBuffer(check("c2"))

	require.NoError(t, b.Stop(context.Background()))
	assert.Len(t, store.Checks(), 2)
}

func TestAddToBuffer_ConcurrentWriters(t *testing.T) {
	store := memory.New()
	b := New(store, time.Hour, nil)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.AddToBuffer(check("x"))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, b.Flush(context.Background()))
	assert.Len(t, store.Checks(), 800)
}

func TestAddToBuffer_IgnoresUnknownRecords(t *testing.T) {
	b := New(memory.New(), time.Hour, nil)
	b.AddToBuffer("not a check")
	assert.Zero(t, b.Len())
}

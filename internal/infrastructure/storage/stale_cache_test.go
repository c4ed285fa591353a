package storage

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingFetcher struct {
	calls    atomic.Int32
	mu       sync.Mutex
	outcomes []Outcome[[]string]
}

func (f *countingFetcher) push(o Outcome[[]string]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, o)
}

func (f *countingFetcher) Fetch(ctx context.Context) Outcome[[]string] {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.outcomes) == 0 {
		return Outcome[[]string]{Data: []string{}, Invalid: true}
	}
	o := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	return o
}

func newTestEntry(clock *fakeClock, fetch FetchFunc[[]string]) *Entry[[]string] {
	return NewEntry(EntryConfig[[]string]{
		Name:     "test",
		Interval: time.Minute,
		Fetch:    fetch,
		Clone:    slices.Clone[[]string],
		Now:      clock.Now,
	})
}

func TestClassify(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	interval := 5 * time.Minute

	tests := []struct {
		name        string
		lastFetched time.Time
		expected    State
	}{
		{"never fetched", time.Time{}, StateEmpty},
		{"just fetched", now, StateFresh},
		{"one nanosecond before interval", now.Add(-interval + time.Nanosecond), StateFresh},
		{"exactly interval", now.Add(-interval), StateStale},
		{"past interval", now.Add(-interval - time.Second), StateStale},
		{"long ago", now.Add(-24 * time.Hour), StateStale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.lastFetched, interval, now))
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "fresh", StateFresh.String())
	assert.Equal(t, "stale", StateStale.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestEntry_EmptyFetchesInline(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{}
	fetcher.push(Outcome[[]string]{Data: []string{"a", "b"}})
	entry := newTestEntry(clock, fetcher.Fetch)

	assert.Equal(t, StateEmpty, entry.State())

	got := entry.Get(context.Background())

	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.Equal(t, StateFresh, entry.State())
	assert.False(t, entry.Invalid())
	assert.Equal(t, clock.Now(), entry.LastFetched())
}

func TestEntry_FreshIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{}
	fetcher.push(Outcome[[]string]{Data: []string{"a"}})
	entry := newTestEntry(clock, fetcher.Fetch)
	ctx := context.Background()

	first := entry.Get(ctx)
	clock.Advance(30 * time.Second)
	second := entry.Get(ctx)
	clock.Advance(29 * time.Second)
	third := entry.Get(ctx)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestEntry_ReturnedValueIsACopy(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{}
	fetcher.push(Outcome[[]string]{Data: []string{"a"}})
	entry := newTestEntry(clock, fetcher.Fetch)

	got := entry.Get(context.Background())
	got[0] = "mutated"

	assert.Equal(t, []string{"a"}, entry.Get(context.Background()))
}

func TestEntry_StaleServesSnapshotAndRevalidates(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{}
	fetcher.push(Outcome[[]string]{Data: []string{"v1"}})
	fetcher.push(Outcome[[]string]{Data: []string{"v2"}})
	entry := newTestEntry(clock, fetcher.Fetch)
	ctx := context.Background()

	require.Equal(t, []string{"v1"}, entry.Get(ctx))
	clock.Advance(time.Minute)
	require.Equal(t, StateStale, entry.State())

	got := entry.Get(ctx)
	assert.Equal(t, []string{"v1"}, got)

	entry.Wait()
	assert.Equal(t, int32(2), fetcher.calls.Load())
	assert.Equal(t, StateFresh, entry.State())
	assert.Equal(t, []string{"v2"}, entry.Get(ctx))
}

func TestEntry_StaleDoesNotBlockOnSlowUpstream(t *testing.T) {
	clock := newFakeClock()
	release := make(chan struct{})
	var calls atomic.Int32
	entry := newTestEntry(clock, func(ctx context.Context) Outcome[[]string] {
		if calls.Add(1) == 1 {
			return Outcome[[]string]{Data: []string{"v1"}}
		}
		<-release
		return Outcome[[]string]{Data: []string{"v2"}}
	})
	ctx := context.Background()

	entry.Get(ctx)
	clock.Advance(2 * time.Minute)

	done := make(chan []string, 1)
	go func() { done <- entry.Get(ctx) }()

	select {
	case got := <-done:
		assert.Equal(t, []string{"v1"}, got)
	case <-time.After(time.Second):
		t.Fatal("stale read blocked on revalidation")
	}

	close(release)
	entry.Wait()
	assert.Equal(t, []string{"v2"}, entry.Peek())
}

func TestEntry_StaleSnapshotIsolatedFromRevalidationWrites(t *testing.T) {
	clock := newFakeClock()
	inFetch := make(chan struct{})
	release := make(chan struct{})
	var entry *Entry[[]string]
	var calls atomic.Int32
	entry = newTestEntry(clock, func(ctx context.Context) Outcome[[]string] {
		if calls.Add(1) == 1 {
			return Outcome[[]string]{Data: []string{"original"}}
		}
		close(inFetch)
		<-release
		return Outcome[[]string]{Data: []string{"next"}}
	})
	ctx := context.Background()

	entry.Get(ctx)
	clock.Advance(time.Minute)

	got := entry.Get(ctx)
	<-inFetch

	// in-place mutation of the live payload while the revalidation is in flight
	entry.mu.Lock()
	entry.data[0] = "corrupted"
	entry.mu.Unlock()

	close(release)
	entry.Wait()

	assert.Equal(t, []string{"original"}, got)
}

func TestEntry_SingleBackgroundRevalidation(t *testing.T) {
	clock := newFakeClock()
	release := make(chan struct{})
	var calls atomic.Int32
	entry := newTestEntry(clock, func(ctx context.Context) Outcome[[]string] {
		if calls.Add(1) == 1 {
			return Outcome[[]string]{Data: []string{"v1"}}
		}
		<-release
		return Outcome[[]string]{Data: []string{"v2"}}
	})
	ctx := context.Background()

	entry.Get(ctx)
	clock.Advance(time.Minute)

	for i := 0; i < 10; i++ {
		assert.Equal(t, []string{"v1"}, entry.Get(ctx))
	}

	close(release)
	entry.Wait()
	assert.Equal(t, int32(2), calls.Load())
}

func TestEntry_FailureKeepsDataAndRateLimitsRetries(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{}
	fetcher.push(Outcome[[]string]{Data: []string{"good"}})
	fetcher.push(Outcome[[]string]{Data: []string{}, Invalid: true})
	entry := newTestEntry(clock, fetcher.Fetch)
	ctx := context.Background()

	entry.Get(ctx)
	clock.Advance(time.Minute)

	assert.Equal(t, []string{"good"}, entry.Get(ctx))
	entry.Wait()

	assert.True(t, entry.Invalid())
	assert.Equal(t, clock.Now(), entry.LastFetched())
	assert.Equal(t, StateFresh, entry.State())
	assert.Equal(t, []string{"good"}, entry.Peek())

	assert.Equal(t, []string{"good"}, entry.Get(ctx))
	entry.Wait()
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestEntry_FirstFetchFailure(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{}
	entry := newTestEntry(clock, fetcher.Fetch)
	ctx := context.Background()

	got := entry.Get(ctx)

	assert.Empty(t, got)
	assert.True(t, entry.Invalid())
	assert.Equal(t, StateFresh, entry.State())

	entry.Get(ctx)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestEntry_RecoveryClearsInvalid(t *testing.T) {
	clock := newFakeClock()
	fetcher := &countingFetcher{}
	fetcher.push(Outcome[[]string]{Data: []string{}, Invalid: true})
	fetcher.push(Outcome[[]string]{Data: []string{"back"}})
	entry := newTestEntry(clock, fetcher.Fetch)
	ctx := context.Background()

	entry.Get(ctx)
	require.True(t, entry.Invalid())

	clock.Advance(time.Minute)
	entry.Get(ctx)
	entry.Wait()

	assert.False(t, entry.Invalid())
	assert.Equal(t, []string{"back"}, entry.Peek())
}

func TestEntry_ConcurrentEmptyCallersShareOneFetch(t *testing.T) {
	clock := newFakeClock()
	var calls atomic.Int32
	entry := newTestEntry(clock, func(ctx context.Context) Outcome[[]string] {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return Outcome[[]string]{Data: []string{"a"}}
	})

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = entry.Get(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, []string{"a"}, r)
	}
}

func TestEntry_RevalidateTimeoutBoundsFetch(t *testing.T) {
	clock := newFakeClock()
	entry := NewEntry(EntryConfig[[]string]{
		Name:              "slow",
		Interval:          time.Minute,
		RevalidateTimeout: 20 * time.Millisecond,
		Now:               clock.Now,
		Fetch: func(ctx context.Context) Outcome[[]string] {
			<-ctx.Done()
			return Outcome[[]string]{Data: []string{}, Invalid: true}
		},
	})

	done := make(chan struct{})
	go func() {
		entry.Get(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fetch was not bounded by the revalidate timeout")
	}
	assert.True(t, entry.Invalid())
}

func TestEntry_BackgroundRevalidationSurvivesCallerCancel(t *testing.T) {
	clock := newFakeClock()
	var calls atomic.Int32
	var sawCancel atomic.Bool
	entry := newTestEntry(clock, func(ctx context.Context) Outcome[[]string] {
		if calls.Add(1) > 1 {
			time.Sleep(10 * time.Millisecond)
			if ctx.Err() != nil {
				sawCancel.Store(true)
			}
		}
		return Outcome[[]string]{Data: []string{"x"}}
	})

	entry.Get(context.Background())
	clock.Advance(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	entry.Get(ctx)
	cancel()
	entry.Wait()

	assert.False(t, sawCancel.Load())
	assert.False(t, entry.Invalid())
}

func TestEntry_EmptyFillSurvivesCallerCancel(t *testing.T) {
	clock := newFakeClock()
	var calls atomic.Int32
	entry := newTestEntry(clock, func(ctx context.Context) Outcome[[]string] {
		calls.Add(1)
		if ctx.Err() != nil {
			return Outcome[[]string]{Data: []string{}, Invalid: true}
		}
		return Outcome[[]string]{Data: []string{"a"}}
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, []string{"a"}, entry.Get(ctx))
	assert.False(t, entry.Invalid())

	assert.Equal(t, []string{"a"}, entry.Get(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StateFresh, entry.State())
}

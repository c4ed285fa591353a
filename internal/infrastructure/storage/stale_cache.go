package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// State is the classification of an Entry at a point in time.
type State int

const (
	StateEmpty State = iota
	StateFresh
	StateStale
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Outcome is the uniform result of one upstream fetch.
type Outcome[T any] struct {
	Data    T
	Invalid bool
}

// FetchFunc retrieves a fresh outcome. It must not panic; failures are
// reported through Outcome.Invalid.
type FetchFunc[T any] func(ctx context.Context) Outcome[T]

// CloneFunc returns a deep copy of v.
type CloneFunc[T any] func(v T) T

// Classify applies the staleness policy. A zero lastFetched means the entry
// was never fetched.
func Classify(lastFetched time.Time, interval time.Duration, now time.Time) State {
	if lastFetched.IsZero() {
		return StateEmpty
	}
	if now.Sub(lastFetched) < interval {
		return StateFresh
	}
	return StateStale
}

type EntryConfig[T any] struct {
	Name     string
	Interval time.Duration
	Fetch    FetchFunc[T]
	// Clone defaults to returning v unchanged, which is only correct for
	// types without reference fields.
	Clone CloneFunc[T]
	// RevalidateTimeout bounds every fetch. Zero means 30 seconds.
	RevalidateTimeout time.Duration
	Now               func() time.Time
	Logger            *slog.Logger
}

// Entry is a stale-while-revalidate cache for one resource kind.
//
// data only ever holds the result of the most recent successful fetch;
// invalid reflects only the most recent attempt. Callers always receive a
// clone, so a revalidation writing the entry cannot change a value that was
// already handed out.
type Entry[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	clone    CloneFunc[T]
	timeout  time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu           sync.RWMutex
	lastFetched  time.Time
	invalid      bool
	data         T
	revalidating bool

	// serializes inline fetches of an empty entry
	fillMu sync.Mutex
	wg     sync.WaitGroup
}

func NewEntry[T any](cfg EntryConfig[T]) *Entry[T] {
	if cfg.Clone == nil {
		cfg.Clone = func(v T) T { return v }
	}
	if cfg.RevalidateTimeout == 0 {
		cfg.RevalidateTimeout = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Entry[T]{
		name:     cfg.Name,
		interval: cfg.Interval,
		fetch:    cfg.Fetch,
		clone:    cfg.Clone,
		timeout:  cfg.RevalidateTimeout,
		now:      cfg.Now,
		logger:   cfg.Logger,
	}
}

func (e *Entry[T]) Name() string {
	return e.name
}

func (e *Entry[T]) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Classify(e.lastFetched, e.interval, e.now())
}

// Invalid reports whether the most recent fetch attempt failed.
func (e *Entry[T]) Invalid() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.invalid
}

func (e *Entry[T]) LastFetched() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastFetched
}

// Peek returns a copy of the cached payload without triggering any fetch.
func (e *Entry[T]) Peek() T {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clone(e.data)
}

// Get serves the payload according to the entry's state:
//
//   - fresh: the cached payload, no upstream call.
//   - stale: a snapshot taken before a background revalidation is started;
//     Get does not wait for it.
//   - empty: the payload after an inline fetch.
func (e *Entry[T]) Get(ctx context.Context) T {
	e.mu.Lock()
	switch Classify(e.lastFetched, e.interval, e.now()) {
	case StateFresh:
		snapshot := e.clone(e.data)
		e.mu.Unlock()
		return snapshot
	case StateStale:
		snapshot := e.clone(e.data)
		start := !e.revalidating
		if start {
			e.revalidating = true
			e.wg.Add(1)
		}
		e.mu.Unlock()

		if start {
			go e.revalidateInBackground(context.WithoutCancel(ctx))
		}
		return snapshot
	default:
		e.mu.Unlock()
		return e.fill(ctx)
	}
}

// fill performs the inline first fetch. Concurrent callers of an empty entry
// wait for the one fetch in progress instead of issuing their own, so the
// fetch is detached from the caller that happened to start it and is
// bounded only by the revalidation timeout.
func (e *Entry[T]) fill(ctx context.Context) T {
	e.fillMu.Lock()
	defer e.fillMu.Unlock()

	e.mu.RLock()
	filled := !e.lastFetched.IsZero()
	e.mu.RUnlock()
	if !filled {
		e.Revalidate(context.WithoutCancel(ctx))
	}

	return e.Peek()
}

func (e *Entry[T]) revalidateInBackground(ctx context.Context) {
	defer e.wg.Done()
	defer func() {
		e.mu.Lock()
		e.revalidating = false
		e.mu.Unlock()
	}()

	e.Revalidate(ctx)
}

// Revalidate runs the fetch and records its outcome. lastFetched is stamped
// whether or not the fetch succeeded, so a failing upstream is retried at
// most once per interval. A failed outcome leaves the previous payload
// untouched.
func (e *Entry[T]) Revalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	outcome := e.fetch(ctx)

	e.mu.Lock()
	previous := e.lastFetched
	e.lastFetched = e.now()
	e.invalid = outcome.Invalid
	if !outcome.Invalid {
		e.data = outcome.Data
	}
	e.mu.Unlock()

	if outcome.Invalid {
		since := "never"
		if !previous.IsZero() {
			since = humanize.Time(previous)
		}
		e.logger.Warn("revalidation failed, keeping previous data", "resource", e.name, "last_fetched", since)
		return
	}
	e.logger.Debug("revalidated", "resource", e.name)
}

// Wait blocks until background revalidations started so far have finished.
func (e *Entry[T]) Wait() {
	e.wg.Wait()
}

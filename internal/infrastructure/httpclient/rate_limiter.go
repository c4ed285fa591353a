package httpclient

import (
	"context"
	"sync"
	"time"
)

// rateLimiter is a token bucket shared by every upstream client so bursts
// of cold-cache page renders cannot flood the APIs. Each successful Wait
// consumes exactly one token.
type rateLimiter struct {
	mu       sync.Mutex
	tokens   int
	capacity int
	interval time.Duration
	refilled time.Time
}

func newRateLimiter(capacity int, interval time.Duration) *rateLimiter {
	return &rateLimiter{
		tokens:   capacity,
		capacity: capacity,
		interval: interval,
		refilled: time.Now(),
	}
}

// refill credits whole intervals elapsed since the last refill. The
// remainder is carried over so partial intervals are not lost. Callers
// hold mu.
func (rl *rateLimiter) refill(now time.Time) {
	earned := int(now.Sub(rl.refilled) / rl.interval)
	if earned <= 0 {
		return
	}
	rl.tokens = min(rl.tokens+earned, rl.capacity)
	if rl.tokens == rl.capacity {
		rl.refilled = now
		return
	}
	rl.refilled = rl.refilled.Add(time.Duration(earned) * rl.interval)
}

// take consumes a token if one is available, otherwise it reports how long
// until the next one is earned.
func (rl *rateLimiter) take() (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.refill(now)
	if rl.tokens > 0 {
		rl.tokens--
		return true, 0
	}
	return false, rl.interval - now.Sub(rl.refilled)
}

// Wait blocks until a token is taken or ctx is done.
func (rl *rateLimiter) Wait(ctx context.Context) error {
	for {
		ok, delay := rl.take()
		if ok {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

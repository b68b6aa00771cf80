package ratelimiter

import (
	"sync"
	"sync/atomic"
	"time"
)

// FixedWindowRateLimiter counts requests per source inside fixed,
// clock-aligned windows. Sources that stay idle past their window are
// evicted by a background sweep.
type FixedWindowRateLimiter struct {
	sources sync.Map // source -> *windowState
	limit   int64
	window  time.Duration
	sweep   *time.Ticker
	done    chan struct{}
}

type windowState struct {
	count   int64        // atomic
	resetAt atomic.Value // time.Time
	mu      sync.Mutex   // guards window rollover only
}

func NewFixedWindowRateLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		limit:  int64(limit),
		window: window,
		sweep:  time.NewTicker(window),
		done:   make(chan struct{}),
	}
	go rl.run()
	return rl
}

func (rl *FixedWindowRateLimiter) Allow(source string) (bool, time.Duration) {
	now := time.Now()
	nextReset := now.Truncate(rl.window).Add(rl.window)

	val, _ := rl.sources.LoadOrStore(source, &windowState{})
	state := val.(*windowState)

	if state.resetAt.Load() == nil {
		state.resetAt.Store(nextReset)
		atomic.StoreInt64(&state.count, 1)
		return true, 0
	}

	resetAt := state.resetAt.Load().(time.Time)
	if now.Before(resetAt) {
		return rl.tryIncrement(state, resetAt)
	}

	// Window expired; only one goroutine performs the rollover.
	state.mu.Lock()
	defer state.mu.Unlock()

	if resetAt := state.resetAt.Load().(time.Time); now.Before(resetAt) {
		return rl.tryIncrement(state, resetAt)
	}

	atomic.StoreInt64(&state.count, 1)
	state.resetAt.Store(nextReset)
	return true, 0
}

func (rl *FixedWindowRateLimiter) tryIncrement(state *windowState, resetAt time.Time) (bool, time.Duration) {
	if atomic.AddInt64(&state.count, 1) > rl.limit {
		atomic.AddInt64(&state.count, -1)
		return false, time.Until(resetAt)
	}
	return true, 0
}

func (rl *FixedWindowRateLimiter) run() {
	for {
		select {
		case <-rl.sweep.C:
			rl.evictExpired()
		case <-rl.done:
			return
		}
	}
}

func (rl *FixedWindowRateLimiter) evictExpired() {
	now := time.Now()
	rl.sources.Range(func(key, value any) bool {
		state := value.(*windowState)
		if resetAt := state.resetAt.Load(); resetAt != nil && now.After(resetAt.(time.Time)) {
			rl.sources.Delete(key)
		}
		return true
	})
}

func (rl *FixedWindowRateLimiter) Close() {
	close(rl.done)
	rl.sweep.Stop()
}

package gateway

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter bounds inbound WebSocket traffic per client key (session id
// or remote addr), one golang.org/x/time/rate.Limiter per key. The
// tracked-key map is bounded and pruned the same way a webhook
// rate limiter bounds its hit-count map: evict the oldest-touched
// entries once the map nears its cap, rather than letting an attacker
// grow it unbounded by rotating keys.
type RateLimiter struct {
	mu      sync.Mutex
	limiters map[string]*limiterEntry
	rpm     int
	burst   int
	maxKeys int
}

type limiterEntry struct {
	limiter *rate.Limiter
	touched time.Time
}

const defaultMaxTrackedKeys = 4096

// NewRateLimiter creates a RateLimiter allowing rpm requests per minute
// per key, with the given burst allowance. rpm<=0 disables limiting
// (Allow always returns true).
func NewRateLimiter(rpm, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 5
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rpm:      rpm,
		burst:    burst,
		maxKeys:  defaultMaxTrackedKeys,
	}
}

// Allow reports whether key may proceed now, consuming one token from its
// bucket if so.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.rpm <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.limiters[key]
	if !ok {
		if len(rl.limiters) >= rl.maxKeys {
			rl.evictOldest()
		}
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(float64(rl.rpm)/60.0), rl.burst)}
		rl.limiters[key] = e
	}
	e.touched = time.Now()
	return e.limiter.Allow()
}

// evictOldest drops the least-recently-touched quarter of tracked keys.
// Called with mu held.
func (rl *RateLimiter) evictOldest() {
	type pair struct {
		key     string
		touched time.Time
	}
	all := make([]pair, 0, len(rl.limiters))
	for k, e := range rl.limiters {
		all = append(all, pair{k, e.touched})
	}
	toEvict := len(all) / 4
	if toEvict < 1 {
		toEvict = 1
	}
	for i := 0; i < toEvict; i++ {
		oldestIdx := 0
		for j := 1; j < len(all); j++ {
			if all[j].touched.Before(all[oldestIdx].touched) {
				oldestIdx = j
			}
		}
		delete(rl.limiters, all[oldestIdx].key)
		all[oldestIdx] = all[len(all)-1]
		all = all[:len(all)-1]
	}
}

package ratelimiter

import (
	"sync"
	"time"
)

type clientWindow struct {
	start time.Time
	count int
}

// FixedWindowRateLimiter allows limit requests per key in each window. A
// key's window starts with its first request. A limit of zero or less
// refuses every request.
type FixedWindowRateLimiter struct {
	sync.Mutex
	clients map[string]*clientWindow
	limit   int
	window  time.Duration
	now     func() time.Time
}

func NewFixedWindowLimiter(limit int, window time.Duration) *FixedWindowRateLimiter {
	return &FixedWindowRateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow reports whether key may proceed and, if not, how long until its
// window resets.
func (rateLimit *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	rateLimit.Lock()
	defer rateLimit.Unlock()

	if rateLimit.limit <= 0 {
		return false, rateLimit.window
	}

	now := rateLimit.now()
	rateLimit.evict(now)

	current, exist := rateLimit.clients[key]
	if !exist {
		rateLimit.clients[key] = &clientWindow{start: now, count: 1}
		return true, 0
	}

	if current.count < rateLimit.limit {
		current.count++
		return true, 0
	}

	return false, current.start.Add(rateLimit.window).Sub(now)
}

// evict drops windows that have ended. Called with the lock held.
func (rateLimit *FixedWindowRateLimiter) evict(now time.Time) {
	for key, current := range rateLimit.clients {
		if !now.Before(current.start.Add(rateLimit.window)) {
			delete(rateLimit.clients, key)
		}
	}
}

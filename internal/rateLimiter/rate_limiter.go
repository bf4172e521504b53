package ratelimiter

import "time"

// Limiter throttles inbound gateway requests per client address.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

type Config struct {
	RequestPerTimeForIP int
	TimeFrame           time.Duration
	Enabled             bool
}

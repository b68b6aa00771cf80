package ratelimiter

import "time"

// Limiter decides whether a request from a given source may proceed.
// When it may not, the second return value is how long the caller should
// wait before retrying.
type Limiter interface {
	Allow(source string) (bool, time.Duration)
	Close()
}

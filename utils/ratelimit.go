package utils

import (
	"context"
	"sync"
	"time"
)

// RateLimiter paces requests against a single provider: a minimum interval
// between token issues (derived from a requests-per-minute budget and a
// delay floor) plus a ceiling on in-flight requests. It never rejects a
// caller, it only delays.
type RateLimiter struct {
	interval time.Duration
	sem      chan struct{}

	mu   sync.Mutex
	next time.Time
}

// NewRateLimiter builds a limiter for the given budget. The effective
// interval is the larger of 60s/requestsPerMinute and delayBetween.
func NewRateLimiter(requestsPerMinute int, delayBetween time.Duration, maxConcurrent int) *RateLimiter {
	interval := delayBetween
	if requestsPerMinute > 0 {
		perMin := time.Minute / time.Duration(requestsPerMinute)
		if perMin > interval {
			interval = perMin
		}
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &RateLimiter{
		interval: interval,
		sem:      make(chan struct{}, maxConcurrent),
	}
}

// WaitForSlot blocks until a pacing token and a concurrency slot are both
// available, or until ctx is done. Tokens are issued in reservation order.
// Every successful call must be paired with Release.
func (r *RateLimiter) WaitForSlot(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mu.Lock()
	now := time.Now()
	at := r.next
	if at.Before(now) {
		at = now
	}
	r.next = at.Add(r.interval)
	r.mu.Unlock()

	if wait := time.Until(at); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			<-r.sem
			return ctx.Err()
		}
	}
	return nil
}

// Release frees the concurrency slot taken by WaitForSlot.
func (r *RateLimiter) Release() { <-r.sem }

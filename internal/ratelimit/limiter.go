// Package ratelimit implements a sliding-window admission controller
// shared by every external-service adapter.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Decision is the outcome of one admission check. When not allowed, Wait
// is the time until the oldest recorded request leaves the window and the
// next call becomes admissible.
type Decision struct {
	Allowed bool
	Wait    time.Duration
}

// DeniedError reports a denied admission with the wait until retry.
type DeniedError struct {
	Service string
	Wait    time.Duration
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s: rate limit exceeded, retry in %s", e.Service, e.Wait.Round(time.Second))
}

// Limiter admits at most maxRequests calls per trailing window. One
// instance is shared per external service across all jobs and workers, so
// the purge/check/record sequence runs under a single lock. Window state
// is process-local only; a fresh process starts with an empty window.
type Limiter struct {
	service     string
	maxRequests int
	window      time.Duration

	mu       sync.Mutex
	admitted []time.Time

	now func() time.Time // override in tests
}

// New creates a limiter for a named service. maxRequests and window must
// be positive.
func New(service string, maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		service:     service,
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Service returns the name of the service this limiter guards.
func (l *Limiter) Service() string {
	return l.service
}

// Admit purges expired entries, then either records the current timestamp
// and allows the call, or denies it with the wait until the oldest entry
// expires. Check-and-record is one atomic step: two concurrent callers can
// never both take the last remaining slot.
func (l *Limiter) Admit() Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.purge(now)

	if len(l.admitted) < l.maxRequests {
		l.admitted = append(l.admitted, now)
		return Decision{Allowed: true}
	}

	oldest := l.admitted[0]
	return Decision{Allowed: false, Wait: oldest.Add(l.window).Sub(now)}
}

// Remaining returns how many admissions are left in the current window.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.purge(l.now())
	return l.maxRequests - len(l.admitted)
}

// purge drops entries older than the trailing window. Callers hold l.mu.
// Entries are appended in order, so the slice stays sorted and the first
// survivor is always the oldest.
func (l *Limiter) purge(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.admitted) && !l.admitted[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[i:]...)
	}
}

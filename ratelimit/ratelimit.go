// Package ratelimit admits or rejects calls per key under a fixed-window
// quota, with an in-process limiter and a distributed limiter backed by a
// shared counter store.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Policy describes the quota: at most Limit acquisitions per key per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of an acquisition attempt. RetryAfter estimates
// the time until the key's window resets and is only meaningful when the
// attempt was rejected.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits or rejects an attempt for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RateLimitError is returned by helpers that want an error value instead of
// a Decision.
type RateLimitError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("ratelimit: quota exceeded for %q, retry after %s", e.Key, e.RetryAfter)
}

type window struct {
	count     int
	startedAt time.Time
}

// LocalLimiter counts per key in process memory using fixed windows. A key's
// count resets once the window has elapsed since its start.
type LocalLimiter struct {
	policy  Policy
	windows map[string]*window
	mu      sync.Mutex
	now     func() time.Time
}

// NewLocalLimiter creates an in-memory fixed-window limiter.
func NewLocalLimiter(policy Policy) *LocalLimiter {
	return &LocalLimiter{
		policy:  policy,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow admits the attempt when the key's count within the current window is
// below the limit. The check and the count update happen under one lock.
func (l *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || now.Sub(w.startedAt) >= l.policy.Window {
		l.windows[key] = &window{count: 1, startedAt: now}
		return Decision{Allowed: true, Remaining: l.policy.Limit - 1}, nil
	}

	if w.count >= l.policy.Limit {
		return Decision{
			Allowed:    false,
			RetryAfter: w.startedAt.Add(l.policy.Window).Sub(now),
		}, nil
	}

	w.count++
	return Decision{Allowed: true, Remaining: l.policy.Limit - w.count}, nil
}

// StartCleanup launches a goroutine that drops stale windows until ctx is
// cancelled.
func (l *LocalLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.cleanup()
			}
		}
	}()
}

func (l *LocalLimiter) cleanup() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if now.Sub(w.startedAt) > 2*l.policy.Window {
			delete(l.windows, key)
		}
	}
}

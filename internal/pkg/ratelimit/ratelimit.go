// Package ratelimit bounds outbound call volume to the transit API and
// smooths bursty input before it reaches the network.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/transit-explorer/internal/pkg/errors"
	"go.uber.org/zap"
)

// Limiter is a sliding-window rate limiter over a rolling call log.
// When the window's quota is exhausted it fails fast with
// RATE_LIMIT_EXCEEDED carrying the advisory wait time; it never schedules
// retries itself.
type Limiter struct {
	mu     sync.Mutex
	quota  int
	window time.Duration
	calls  []time.Time
	logger *zap.Logger

	now func() time.Time
}

func NewLimiter(quota int, window time.Duration, logger *zap.Logger) *Limiter {
	return &Limiter{
		quota:  quota,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Allow records one call against the window, or returns RATE_LIMIT_EXCEEDED
// with the time until the oldest recorded call expires.
func (l *Limiter) Allow(label string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if len(l.calls) >= l.quota {
		wait := l.timeUntilReset(now)
		l.logger.Debug("Rate limit exceeded",
			zap.String("label", label),
			zap.Duration("retry_after", wait))
		return errors.RateLimitExceeded(wait)
	}

	l.calls = append(l.calls, now)
	return nil
}

// Do executes fn if the window has quota left; otherwise the call fails
// fast and fn is never invoked.
func (l *Limiter) Do(ctx context.Context, label string, fn func(context.Context) error) error {
	if err := l.Allow(label); err != nil {
		return err
	}
	return fn(ctx)
}

// TimeUntilReset returns the time until the oldest call in the window
// expires. It is advisory, for user messaging, not an enforced wait.
func (l *Limiter) TimeUntilReset() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	return l.timeUntilReset(now)
}

func (l *Limiter) timeUntilReset(now time.Time) time.Duration {
	if len(l.calls) == 0 {
		return 0
	}
	wait := l.calls[0].Add(l.window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// prune drops calls that have slid out of the window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}

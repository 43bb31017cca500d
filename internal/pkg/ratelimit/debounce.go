package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Debouncer coalesces rapid repeated calls (e.g. per-keystroke search) so
// that only the last call within the quiet period is submitted to the
// limiter. Each label owns its own "latest pending request" slot; within a
// label earlier pending calls are superseded, not queued, and different
// labels never displace each other.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	limiter *Limiter
	logger  *zap.Logger
	pending map[string]*time.Timer
}

func NewDebouncer(limiter *Limiter, delay time.Duration, logger *zap.Logger) *Debouncer {
	return &Debouncer{
		delay:   delay,
		limiter: limiter,
		logger:  logger,
		pending: make(map[string]*time.Timer),
	}
}

// Call replaces the label's pending request with fn and (re)starts its
// quiet-period timer. When the timer fires the surviving fn runs through
// the limiter; a rate-limit failure at that point is logged, since the
// original caller has long returned.
func (d *Debouncer) Call(ctx context.Context, label string, fn func(context.Context) error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.pending[label]; ok {
		t.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.pending[label] == timer {
			delete(d.pending, label)
		}
		d.mu.Unlock()

		if err := d.limiter.Do(ctx, label, fn); err != nil {
			d.logger.Warn("Debounced request failed",
				zap.String("label", label),
				zap.Error(err))
		}
	})
	d.pending[label] = timer
}

// Flush cancels all pending requests without running them.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for label, t := range d.pending {
		t.Stop()
		delete(d.pending, label)
	}
}

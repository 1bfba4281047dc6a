// Package ratelimit gates BatchBuffer admission so a single fast writer
// cannot grow the buffer without bound. It wraps a burst-capped token
// bucket guarded by its own RWMutex, independent of whatever lock the
// caller holds on the buffer itself, retunable at runtime via
// SetCeiling/SetRate.
package ratelimit

import (
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

// ErrBufferFull is returned by Admitter.Admit when the buffer is at or over
// its configured hard ceiling, or when the admission rate limiter has no
// spare tokens. Both are recoverable, retryable conditions, not storage
// faults.
var ErrBufferFull = errors.New("ratelimit: batch buffer at capacity")

// Admitter gates admission of new events into the batch buffer. With a zero
// ceiling it never rejects, preserving unbounded buffer growth by default;
// set a ceiling to opt into bounded memory growth. An optional token-bucket
// limiter additionally smooths the admitted rate.
type Admitter struct {
	mu      sync.RWMutex
	ceiling int
	limiter *rate.Limiter // nil means unlimited rate
}

// New returns an Admitter with the given hard ceiling on buffer occupancy.
// A ceiling of 0 disables the occupancy check entirely.
func New(ceiling int) *Admitter {
	return &Admitter{ceiling: ceiling}
}

// SetCeiling retunes the occupancy ceiling at runtime.
func (a *Admitter) SetCeiling(ceiling int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ceiling = ceiling
}

// SetRate retunes the admission rate limiter at runtime. A non-positive
// eventsPerSecond disables rate limiting (unlimited), matching
// FlowWriter.UpdateConfig's "qps <= 0 means unlimited" convention.
func (a *Admitter) SetRate(eventsPerSecond float64, burst int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if eventsPerSecond <= 0 {
		a.limiter = nil
		return
	}
	a.limiter = rate.NewLimiter(rate.Limit(eventsPerSecond), burst)
}

// Admit reports whether a write may proceed given the buffer's current
// occupancy. It never blocks: a rate-limited write is rejected immediately
// rather than queued, so a single slow admitter can't wedge other writers.
func (a *Admitter) Admit(currentOccupancy int) error {
	a.mu.RLock()
	ceiling := a.ceiling
	limiter := a.limiter
	a.mu.RUnlock()

	if ceiling > 0 && currentOccupancy >= ceiling {
		return ErrBufferFull
	}
	if limiter != nil && !limiter.Allow() {
		return ErrBufferFull
	}
	return nil
}

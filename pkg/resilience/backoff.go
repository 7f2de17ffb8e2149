package resilience

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy yields the wait before retry number attempt (0-indexed).
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff grows the delay by Multiplier per attempt, capped at MaxDelay,
// and spreads it by ±Jitter so that retries of many jobs do not line up.
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     float64
}

// ReceiptBackoff is the retry schedule for receipt emission jobs.
//
//   - Attempt 0: ~5s
//   - Attempt 1: ~10s
//   - Attempt 2: ~20s
//   - Attempt 3: ~40s
//   - Attempt 6+: ~5m (capped)
func ReceiptBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  5 * time.Second,
		MaxDelay:   5 * time.Minute,
		Multiplier: 2.0,
		Jitter:     0.1,
	}
}

// NextDelay returns BaseDelay * Multiplier^attempt ± jitter, capped at MaxDelay.
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 0 {
		return eb.BaseDelay
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	jitterAmount := delay * eb.Jitter
	jitter := (rand.Float64()*2 - 1) * jitterAmount

	finalDelay := time.Duration(delay + jitter)
	if finalDelay < 0 {
		finalDelay = eb.BaseDelay
	}
	return finalDelay
}

// FixedBackoff always waits Delay. Used by tests and by the poller.
type FixedBackoff struct {
	Delay time.Duration
}

// NextDelay returns the fixed delay regardless of attempt number.
func (fb *FixedBackoff) NextDelay(int) time.Duration {
	return fb.Delay
}

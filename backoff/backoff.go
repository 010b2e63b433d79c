// Package backoff provides pluggable retry delay strategies for the
// engine's persistence retry loop. Strategies compute the delay before
// a given attempt number (1-based) and are safe for concurrent use
// (they are stateless).
package backoff

import (
	"math/rand/v2"
	"time"
)

// Strategy computes the delay to wait before the given retry attempt.
// Attempt numbers start at 1 (the first retry after an initial failure).
type Strategy interface {
	Delay(attempt int) time.Duration
}

// ─────────────────────────────────────────────────────────────────────
// Constant
// ─────────────────────────────────────────────────────────────────────

// Constant waits the same fixed delay before every retry.
type Constant struct {
	Interval time.Duration
}

// NewConstant returns a Strategy with a fixed delay between retries.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

func (c *Constant) Delay(attempt int) time.Duration {
	return c.Interval
}

// ─────────────────────────────────────────────────────────────────────
// Linear
// ─────────────────────────────────────────────────────────────────────

// Linear grows the delay by a fixed step each attempt, capped at Max.
type Linear struct {
	Step time.Duration
	Max  time.Duration
}

// NewLinear returns a Strategy whose delay is attempt*step, capped at max.
func NewLinear(step, max time.Duration) *Linear {
	return &Linear{Step: step, Max: max}
}

func (l *Linear) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Duration(attempt) * l.Step
	if l.Max > 0 && d > l.Max {
		return l.Max
	}
	return d
}

// ─────────────────────────────────────────────────────────────────────
// Exponential
// ─────────────────────────────────────────────────────────────────────

// Exponential doubles the delay each attempt, capped at Max.
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential returns a Strategy whose delay is initial*2^(attempt-1),
// capped at max.
func NewExponential(initial, max time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: max}
}

func (e *Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := e.Initial
	for i := 1; i < attempt; i++ {
		d *= 2
		if e.Max > 0 && d >= e.Max {
			return e.Max
		}
	}
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

// ─────────────────────────────────────────────────────────────────────
// ExponentialWithJitter
// ─────────────────────────────────────────────────────────────────────

// ExponentialWithJitter doubles the delay each attempt, capped at Max,
// then picks a uniformly random duration in [0, delay) so that
// concurrent retries do not thunder against the store in lockstep.
type ExponentialWithJitter struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponentialWithJitter returns an exponential Strategy with full jitter.
func NewExponentialWithJitter(initial, max time.Duration) *ExponentialWithJitter {
	return &ExponentialWithJitter{Initial: initial, Max: max}
}

func (e *ExponentialWithJitter) Delay(attempt int) time.Duration {
	base := (&Exponential{Initial: e.Initial, Max: e.Max}).Delay(attempt)
	if base <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(base)))
}

// DefaultStrategy returns the strategy the engine uses for write retries
// when none is configured: jittered exponential backoff starting at 50ms
// and capped at 1s. Store writes are fast, so short delays keep admission
// latency bounded while still riding out transient failures.
func DefaultStrategy() Strategy {
	return NewExponentialWithJitter(50*time.Millisecond, time.Second)
}

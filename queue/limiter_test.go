package queue

import (
	"testing"

	"github.com/xraph/admitq/token"
)

// ---------------------------------------------------------------------------
// Limiter
// ---------------------------------------------------------------------------

func TestLimiter_UnconfiguredClassAdmitsFreely(t *testing.T) {
	l := NewLimiter()
	for range 100 {
		if !l.Allow(token.PriorityCritical) {
			t.Fatal("unconfigured class must always admit")
		}
	}
}

func TestLimiter_BurstExhaustion(t *testing.T) {
	l := NewLimiter(LimitConfig{
		Class:     token.PriorityMediumLow,
		RateLimit: 0.001, // effectively no refill during the test
		RateBurst: 3,
	})

	for i := range 3 {
		if !l.Allow(token.PriorityMediumLow) {
			t.Fatalf("admission %d within burst should be allowed", i)
		}
	}
	if l.Allow(token.PriorityMediumLow) {
		t.Fatal("admission past burst should be rejected")
	}

	// Other classes are unaffected.
	if !l.Allow(token.PriorityCritical) {
		t.Fatal("limit on one class must not throttle another")
	}
}

func TestLimiter_DefaultBurst(t *testing.T) {
	l := NewLimiter(LimitConfig{
		Class:     token.PriorityHigh,
		RateLimit: 0.001,
	})

	if !l.Allow(token.PriorityHigh) {
		t.Fatal("first admission should be allowed with default burst")
	}
	if l.Allow(token.PriorityHigh) {
		t.Fatal("second admission should be rejected with default burst of 1")
	}
}

func TestLimiter_SetLimitRemoves(t *testing.T) {
	l := NewLimiter(LimitConfig{
		Class:     token.PriorityHigh,
		RateLimit: 0.001,
		RateBurst: 1,
	})
	l.Allow(token.PriorityHigh) // drain the bucket

	// Disabling the limit re-opens the class.
	l.SetLimit(LimitConfig{Class: token.PriorityHigh})
	if !l.Allow(token.PriorityHigh) {
		t.Fatal("class should admit freely after its limit is removed")
	}
}

package queue

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/xraph/admitq/token"
)

// LimitConfig defines an admission throttle for a single priority class.
type LimitConfig struct {
	// Class is the priority class the limit applies to.
	Class token.PriorityClass

	// RateLimit is the maximum sustained admissions per second for the
	// class. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the token-bucket rate limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int
}

// Limiter throttles admissions per priority class. Classes without a
// configured limit admit freely. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	limiters map[token.PriorityClass]*rate.Limiter
}

// NewLimiter creates a Limiter with the given class configurations.
func NewLimiter(configs ...LimitConfig) *Limiter {
	l := &Limiter{limiters: make(map[token.PriorityClass]*rate.Limiter, len(configs))}
	for _, cfg := range configs {
		l.SetLimit(cfg)
	}
	return l
}

// SetLimit dynamically updates (or creates) a class limit.
func (l *Limiter) SetLimit(cfg LimitConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cfg.RateLimit <= 0 {
		delete(l.limiters, cfg.Class)
		return
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	l.limiters[cfg.Class] = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
}

// Allow reports whether an admission into the given class may proceed
// right now. An unconfigured class always admits.
func (l *Limiter) Allow(class token.PriorityClass) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim := l.limiters[class]
	if lim == nil {
		return true
	}
	return lim.Allow()
}

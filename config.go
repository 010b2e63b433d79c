package admitq

import "time"

// Config holds tunables shared by the engine and estimator.
type Config struct {
	// BaseServiceMinutes overrides the per-class base service time used by
	// the wait estimator. Classes absent from the map keep their default.
	BaseServiceMinutes map[int]int

	// PersistRetries is how many times a transient store error is retried
	// before the operation surfaces ErrUnavailable.
	PersistRetries int

	// PersistBackoff is the pause between persistence retries. Engines
	// configured with a backoff strategy ignore it.
	PersistBackoff time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PersistRetries: 3,
		PersistBackoff: 50 * time.Millisecond,
	}
}

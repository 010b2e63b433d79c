// Package estimate computes wait-time estimates for queued tokens.
// The estimator is a pure function of (rank, priority class) so it can be
// recomputed for every displaced token inside the same transaction that
// shifted them.
package estimate

import "github.com/xraph/admitq/token"

// Estimator converts a token's 1-based rank and priority class into an
// estimated wait in minutes. Implementations must be pure: same inputs,
// same output, no I/O.
type Estimator interface {
	Minutes(rank int, class token.PriorityClass) int
}

// Func is an adapter to use a plain function as an Estimator.
type Func func(rank int, class token.PriorityClass) int

// Minutes implements Estimator.
func (f Func) Minutes(rank int, class token.PriorityClass) int {
	return f(rank, class)
}

// Linear estimates rank * base minutes for the class. The token at rank 1
// is estimated at one full base interval — "next to be served" latency —
// not zero.
type Linear struct {
	// Base overrides the per-class base minutes. Classes absent from the
	// map fall back to the class's built-in constant.
	Base map[token.PriorityClass]int
}

// NewLinear returns a Linear estimator with the default base-minute table.
func NewLinear() *Linear {
	return &Linear{}
}

// WithBase returns a Linear estimator with per-class overrides. The
// overrides map is keyed by numeric class value, matching Config.
func WithBase(base map[int]int) *Linear {
	l := &Linear{Base: make(map[token.PriorityClass]int, len(base))}
	for class, minutes := range base {
		l.Base[token.PriorityClass(class)] = minutes
	}
	return l
}

// Minutes implements Estimator.
func (l *Linear) Minutes(rank int, class token.PriorityClass) int {
	if rank < 1 {
		return 0
	}
	base, ok := l.Base[class]
	if !ok {
		base = class.BaseMinutes()
	}
	return rank * base
}

// Package queue maintains the in-memory rank order of active tokens.
//
// Index is the sorted collection the engine mutates: insert, remove, and
// reposition renumber ranks as an atomic step, so the set of ranks is
// always exactly {1..N} in ordering-key order. Limiter throttles
// admissions per category using a token-bucket rate limiter.
//
// Index is safe for concurrent use, but rank consistency across multiple
// calls is the engine's responsibility — the engine serializes all
// mutating operations behind its own lock and uses Index reads for
// lock-free listings.
package queue

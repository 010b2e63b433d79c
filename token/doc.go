// Package token defines the token entity — one queued service request —
// together with its priority class enumeration, the ordering key that
// fixes its place in the queue, and the persistence contract stores must
// implement.
//
// A token's ordering key is (priority class, admission sequence). The
// admission sequence is a process-wide monotonically increasing counter
// assigned once at admission and never reused, so the total order has no
// ties: priority class ascending, then admission sequence ascending (FIFO
// within a class). Reprioritization issues a new key with a new class but
// the original sequence, preserving fairness relative to tokens that
// arrived later.
package token

// Package ext defines the extension system for admitq.
// Extensions are notified of queue lifecycle events (token admitted,
// reprioritized, completed, cancelled, queue changed) and can react to
// them — broadcasting, auditing, metrics, and so on.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about. Delivery is fire-and-forget from the
// engine's perspective: a hook error is logged and never fails or rolls
// back the operation that triggered it.
package ext

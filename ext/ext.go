package ext

import (
	"context"

	"github.com/xraph/admitq/id"
	"github.com/xraph/admitq/token"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Token lifecycle hooks
// ──────────────────────────────────────────────────

// TokenAdmitted is called after a token is admitted and persisted.
type TokenAdmitted interface {
	OnTokenAdmitted(ctx context.Context, t *token.Token) error
}

// TokenReprioritized is called after a token moves to a new priority
// class. oldClass is the class it held before the move.
type TokenReprioritized interface {
	OnTokenReprioritized(ctx context.Context, t *token.Token, oldClass token.PriorityClass) error
}

// TokenCompleted is called after a token is marked served and leaves the
// queue.
type TokenCompleted interface {
	OnTokenCompleted(ctx context.Context, tokenID id.TokenID) error
}

// TokenCancelled is called after a token is withdrawn and leaves the
// queue.
type TokenCancelled interface {
	OnTokenCancelled(ctx context.Context, tokenID id.TokenID) error
}

// ──────────────────────────────────────────────────
// Queue hooks
// ──────────────────────────────────────────────────

// QueueChanged is called after every committed mutation with a
// point-in-time snapshot of the active queue.
type QueueChanged interface {
	OnQueueChanged(ctx context.Context, snap *token.Snapshot) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}

package ext

import (
	"context"
	"log/slog"

	"github.com/xraph/admitq/id"
	"github.com/xraph/admitq/token"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type tokenAdmittedEntry struct {
	name string
	hook TokenAdmitted
}

type tokenReprioritizedEntry struct {
	name string
	hook TokenReprioritized
}

type tokenCompletedEntry struct {
	name string
	hook TokenCompleted
}

type tokenCancelledEntry struct {
	name string
	hook TokenCancelled
}

type queueChangedEntry struct {
	name string
	hook QueueChanged
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	tokenAdmitted      []tokenAdmittedEntry
	tokenReprioritized []tokenReprioritizedEntry
	tokenCompleted     []tokenCompletedEntry
	tokenCancelled     []tokenCancelledEntry
	queueChanged       []queueChangedEntry
	shutdown           []shutdownEntry
}

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(TokenAdmitted); ok {
		r.tokenAdmitted = append(r.tokenAdmitted, tokenAdmittedEntry{name, h})
	}
	if h, ok := e.(TokenReprioritized); ok {
		r.tokenReprioritized = append(r.tokenReprioritized, tokenReprioritizedEntry{name, h})
	}
	if h, ok := e.(TokenCompleted); ok {
		r.tokenCompleted = append(r.tokenCompleted, tokenCompletedEntry{name, h})
	}
	if h, ok := e.(TokenCancelled); ok {
		r.tokenCancelled = append(r.tokenCancelled, tokenCancelledEntry{name, h})
	}
	if h, ok := e.(QueueChanged); ok {
		r.queueChanged = append(r.queueChanged, queueChangedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Token event emitters
// ──────────────────────────────────────────────────

// EmitTokenAdmitted notifies all extensions that implement TokenAdmitted.
func (r *Registry) EmitTokenAdmitted(ctx context.Context, t *token.Token) {
	for _, e := range r.tokenAdmitted {
		if err := e.hook.OnTokenAdmitted(ctx, t); err != nil {
			r.logHookError("OnTokenAdmitted", e.name, err)
		}
	}
}

// EmitTokenReprioritized notifies all extensions that implement
// TokenReprioritized.
func (r *Registry) EmitTokenReprioritized(ctx context.Context, t *token.Token, oldClass token.PriorityClass) {
	for _, e := range r.tokenReprioritized {
		if err := e.hook.OnTokenReprioritized(ctx, t, oldClass); err != nil {
			r.logHookError("OnTokenReprioritized", e.name, err)
		}
	}
}

// EmitTokenCompleted notifies all extensions that implement TokenCompleted.
func (r *Registry) EmitTokenCompleted(ctx context.Context, tokenID id.TokenID) {
	for _, e := range r.tokenCompleted {
		if err := e.hook.OnTokenCompleted(ctx, tokenID); err != nil {
			r.logHookError("OnTokenCompleted", e.name, err)
		}
	}
}

// EmitTokenCancelled notifies all extensions that implement TokenCancelled.
func (r *Registry) EmitTokenCancelled(ctx context.Context, tokenID id.TokenID) {
	for _, e := range r.tokenCancelled {
		if err := e.hook.OnTokenCancelled(ctx, tokenID); err != nil {
			r.logHookError("OnTokenCancelled", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Queue event emitters
// ──────────────────────────────────────────────────

// EmitQueueChanged notifies all extensions that implement QueueChanged.
func (r *Registry) EmitQueueChanged(ctx context.Context, snap *token.Snapshot) {
	for _, e := range r.queueChanged {
		if err := e.hook.OnQueueChanged(ctx, snap); err != nil {
			r.logHookError("OnQueueChanged", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block or roll
// back the engine operation that emitted them.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}

package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/admitq/ext"
	"github.com/xraph/admitq/id"
	"github.com/xraph/admitq/token"
)

// Compile-time interface checks.
var (
	_ ext.Extension          = (*Extension)(nil)
	_ ext.TokenAdmitted      = (*Extension)(nil)
	_ ext.TokenReprioritized = (*Extension)(nil)
	_ ext.TokenCompleted     = (*Extension)(nil)
	_ ext.TokenCancelled     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so this package does not import any particular
// audit system — callers inject their backend at wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)

// OutcomeSuccess is the outcome recorded for committed operations; the
// engine only fires hooks after persistence succeeds.
const OutcomeSuccess = "success"

// Extension bridges token lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Token lifecycle hooks ───────────────────────────

// OnTokenAdmitted implements ext.TokenAdmitted.
func (e *Extension) OnTokenAdmitted(ctx context.Context, t *token.Token) error {
	return e.record(ctx, ActionTokenAdmitted, SeverityInfo, t.ID.String(),
		"number", t.Number,
		"patient_id", t.PatientID,
		"priority_class", t.Class.String(),
		"rank", t.Rank,
	)
}

// OnTokenReprioritized implements ext.TokenReprioritized.
func (e *Extension) OnTokenReprioritized(ctx context.Context, t *token.Token, oldClass token.PriorityClass) error {
	return e.record(ctx, ActionTokenReprioritized, SeverityWarning, t.ID.String(),
		"number", t.Number,
		"patient_id", t.PatientID,
		"old_class", oldClass.String(),
		"new_class", t.Class.String(),
		"rank", t.Rank,
	)
}

// OnTokenCompleted implements ext.TokenCompleted.
func (e *Extension) OnTokenCompleted(ctx context.Context, tokenID id.TokenID) error {
	return e.record(ctx, ActionTokenCompleted, SeverityInfo, tokenID.String())
}

// OnTokenCancelled implements ext.TokenCancelled.
func (e *Extension) OnTokenCancelled(ctx context.Context, tokenID id.TokenID) error {
	return e.record(ctx, ActionTokenCancelled, SeverityInfo, tokenID.String())
}

// ── Internal helpers ────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, resourceID string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   ResourceToken,
		Category:   CategoryToken,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    OutcomeSuccess,
		Severity:   severity,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audithook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

// Package audithook is an admitq extension that bridges token lifecycle
// events to an immutable audit trail backend.
//
// Every admission, reprioritization, completion, and cancellation emits a
// structured audit event through the [Recorder] interface. Reprioritization
// is recorded at warning severity since it reorders patients already
// waiting; everything else is info.
//
// # Usage
//
//	audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    return trail.Write(ctx, evt.Action, evt.Resource, evt.ResourceID, evt.Metadata)
//	}))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionTokenReprioritized,
//	        audithook.ActionTokenCancelled,
//	    ),
//	)
package audithook

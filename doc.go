// Package admitq provides a priority admission queue engine for Go. It
// maintains a single, strictly ordered queue of service tokens under
// priority classes, with live re-ordering as tokens are admitted,
// reprioritized, completed, or cancelled.
//
// admitq is designed as a library, not a service. Import it, configure a
// store, and drive the engine through ordinary Go calls; an HTTP or
// websocket layer sits above it and consumes the queue-change feed.
//
// # Quick Start
//
//	eng, err := engine.New(s)
//	if err != nil { ... }
//	if err := eng.Load(ctx); err != nil { ... }
//
//	tok, err := eng.Admit(ctx, caller, engine.AdmitRequest{
//	    Category: "urgent_medical",
//	    Symptoms: "chest pain",
//	})
//
// # Architecture
//
// admitq follows a composable store pattern where each subsystem (token,
// event) defines its own store interface. A single backend implements all
// of them. The engine is the sole mutator of queue state: every mutating
// operation runs as one serialized transaction that renumbers ranks,
// recomputes wait estimates, persists the whole shift atomically, and only
// then notifies extensions.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package admitq

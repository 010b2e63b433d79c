// Package store defines the aggregate persistence interface. Each
// subsystem (token, event) defines its own store interface; the composite
// Store composes them all. Backends: Postgres, Redis, and Memory.
package store

import (
	"context"

	"github.com/xraph/admitq/event"
	"github.com/xraph/admitq/token"
)

// Store is the aggregate persistence interface.
// Each subsystem store is a composable interface; a single backend
// implements all of them.
type Store interface {
	token.Store
	event.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}

// Package postgres provides a PostgreSQL-backed store for admitq using
// pgx/v5. Rank shifts are applied inside a single transaction so the
// queue is never persisted in a partially renumbered state, and events
// use a simple insert-then-poll model with pg_notify as a wakeup hint.
package postgres

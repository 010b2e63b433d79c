package token

import (
	"context"

	"github.com/xraph/admitq/id"
)

// ListOpts filters and paginates token listings.
type ListOpts struct {
	// Status filters by lifecycle state. Empty matches all states.
	Status Status

	// PatientID filters by owning patient. Empty matches all patients.
	PatientID string

	// Limit caps the result size. Zero means no limit.
	Limit int

	// Offset skips the first N results.
	Offset int
}

// RankShift is one row of the rank renumbering that accompanies a queue
// mutation: the token's new rank and its recomputed wait estimate.
type RankShift struct {
	ID            id.TokenID
	Rank          int
	EstimatedWait int
}

// Batch is the durable write for one engine operation: the primary token
// row (admitted, reprioritized, or terminated) plus the rank shifts of
// every other token the mutation displaced.
//
// Stores MUST apply a Batch atomically — a crash mid-write may not leave a
// gapped or duplicated rank sequence. Either the full batch commits or
// none of it does.
type Batch struct {
	// Primary is the token the operation acted on, written in full.
	// Nil for repair batches that only renumber ranks.
	Primary *Token

	// Shifts are rank and estimate updates for displaced tokens.
	Shifts []RankShift
}

// Store defines the persistence contract for tokens. The engine is the
// only writer; read methods may be called concurrently with ApplyBatch.
type Store interface {
	// ApplyBatch atomically persists one queue mutation.
	ApplyBatch(ctx context.Context, b *Batch) error

	// GetToken retrieves a token by ID.
	// Returns admitq.ErrTokenNotFound if no such token exists.
	GetToken(ctx context.Context, tokenID id.TokenID) (*Token, error)

	// FindActiveByPatient returns the patient's Active token.
	// Returns admitq.ErrTokenNotFound if the patient has none.
	FindActiveByPatient(ctx context.Context, patientID string) (*Token, error)

	// ListTokens returns tokens matching opts, ordered by rank ascending
	// for active-only listings and by creation time otherwise.
	ListTokens(ctx context.Context, opts ListOpts) ([]*Token, error)

	// MaxSequence returns the highest admission sequence ever assigned,
	// or zero for an empty store. Used to restore the engine's counter
	// after a restart.
	MaxSequence(ctx context.Context) (uint64, error)
}

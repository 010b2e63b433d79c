package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/xraph/admitq"
	"github.com/xraph/admitq/id"
	"github.com/xraph/admitq/token"
)

// ListQueue returns the active queue as a lazy, restartable sequence of
// token records, rank ascending. The sequence iterates a point-in-time
// copy taken under the engine's read lock, so it is safe to consume while
// mutations proceed and is never older than the last committed mutation
// at call time.
func (e *Engine) ListQueue() iter.Seq[*token.Token] {
	e.mu.RLock()
	ordered := make([]*token.Token, 0, len(e.active))
	for entry := range e.index.Snapshot() {
		if cached := e.active[entry.ID.String()]; cached != nil {
			ordered = append(ordered, cached.Clone())
		}
	}
	e.mu.RUnlock()

	return func(yield func(*token.Token) bool) {
		for _, t := range ordered {
			if !yield(t) {
				return
			}
		}
	}
}

// Snapshot returns a materialized point-in-time view of the active
// queue, the same shape published on the queue.changed feed.
func (e *Engine) Snapshot() *token.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

// RankOf returns a token's current 1-based rank.
// Returns admitq.ErrTokenNotFound if the token is not active.
func (e *Engine) RankOf(tokenID id.TokenID) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index.RankOf(tokenID)
}

// GetToken retrieves a token record, active or historical. Patients may
// only read their own tokens.
func (e *Engine) GetToken(ctx context.Context, caller admitq.Actor, tokenID id.TokenID) (*token.Token, error) {
	e.mu.RLock()
	cached := e.active[tokenID.String()]
	if cached != nil {
		cached = cached.Clone()
	}
	e.mu.RUnlock()

	tok := cached
	if tok == nil {
		stored, err := e.store.GetToken(ctx, tokenID)
		if err != nil {
			if errors.Is(err, admitq.ErrTokenNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", admitq.ErrUnavailable, err)
		}
		tok = stored
	}

	if !caller.CanRead(tok.PatientID) {
		return nil, fmt.Errorf("%w: not the token owner", admitq.ErrPermissionDenied)
	}
	return tok, nil
}

// ListPatientTokens returns a caller's token history. Patient callers see
// their own tokens; staff and admin see everyone's.
func (e *Engine) ListPatientTokens(ctx context.Context, caller admitq.Actor, opts token.ListOpts) ([]*token.Token, error) {
	if !caller.CanManageQueue() {
		opts.PatientID = caller.ID
	}
	toks, err := e.store.ListTokens(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", admitq.ErrUnavailable, err)
	}
	return toks, nil
}

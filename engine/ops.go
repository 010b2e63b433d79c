package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/xraph/admitq"
	"github.com/xraph/admitq/event"
	"github.com/xraph/admitq/id"
	"github.com/xraph/admitq/token"
)

// PatientRef names the patient a staff or admin caller admits on behalf
// of.
type PatientRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// AdmitRequest carries the inputs to Admit.
type AdmitRequest struct {
	// Category determines the priority class. Unknown categories admit
	// at the default class rather than failing.
	Category string `json:"category"`

	// Symptoms is free-form context recorded on the token.
	Symptoms string `json:"symptoms,omitempty"`

	// OnBehalfOf identifies the patient when a staff or admin caller
	// admits for someone else. Required for those roles; rejected for
	// patient callers, who always admit themselves.
	OnBehalfOf *PatientRef `json:"on_behalf_of,omitempty"`
}

// Admit creates a token for the patient, inserts it at the rank its
// priority orders it at, shifts every token at or after that rank down by
// one, recomputes their wait estimates, and persists the whole mutation
// atomically. At most one Active token per patient.
func (e *Engine) Admit(ctx context.Context, caller admitq.Actor, req AdmitRequest) (*token.Token, error) {
	class := token.ClassForCategory(req.Category)

	var patient PatientRef
	switch {
	case caller.Role == admitq.RolePatient:
		if req.OnBehalfOf != nil && req.OnBehalfOf.ID != caller.ID {
			return nil, fmt.Errorf("%w: patients admit only themselves", admitq.ErrPermissionDenied)
		}
		patient = PatientRef{ID: caller.ID, Name: caller.Name, Phone: caller.Phone}
	case req.OnBehalfOf == nil || req.OnBehalfOf.ID == "" || req.OnBehalfOf.Name == "":
		return nil, fmt.Errorf("%w: for staff admission", admitq.ErrMissingPatient)
	default:
		patient = *req.OnBehalfOf
	}

	if e.limiter != nil && !e.limiter.Allow(class) {
		return nil, fmt.Errorf("%w: class %s", admitq.ErrRateLimited, class)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// One active token per patient. The cache is authoritative for
	// active tokens, so no store read is needed inside the lock.
	for _, cached := range e.active {
		if cached.PatientID == patient.ID {
			return nil, fmt.Errorf("%w: token %s", admitq.ErrDuplicateActive, cached.Number)
		}
	}

	now := e.now()
	seq := e.seq + 1
	tok := &token.Token{
		Entity:       admitq.Entity{CreatedAt: now, UpdatedAt: now},
		ID:           id.NewTokenID(),
		Number:       token.Number(class, seq, now),
		PatientID:    patient.ID,
		PatientName:  patient.Name,
		PatientPhone: patient.Phone,
		Class:        class,
		Category:     req.Category,
		Status:       token.StatusActive,
		Symptoms:     req.Symptoms,
		Sequence:     seq,
		CreatedBy:    caller.ID,
	}

	rank, err := e.index.Insert(tok.ID, tok.Key())
	if err != nil {
		return nil, err
	}
	tok.Rank = rank
	tok.EstimatedWait = e.estimator.Minutes(rank, class)

	shifts := e.collectShifts(tok.ID.String())
	if err := e.persist(ctx, &token.Batch{Primary: tok, Shifts: shifts}); err != nil {
		// Leave state exactly as it was before the call.
		if _, rbErr := e.index.Remove(tok.ID); rbErr != nil {
			e.logger.Error("rollback admit", slog.String("error", rbErr.Error()))
		}
		return nil, err
	}

	e.seq = seq
	e.active[tok.ID.String()] = tok
	e.applyShifts(shifts)

	e.logger.Info("token admitted",
		slog.String("token", tok.Number),
		slog.String("class", class.String()),
		slog.Int("rank", rank),
	)

	out := tok.Clone()
	snap := e.snapshotLocked()
	e.extensions.EmitTokenAdmitted(ctx, out)
	e.publish(ctx, event.TokenAdmitted, out)
	e.notifyQueueChanged(ctx, snap)
	return out, nil
}

// Reprioritize moves an active token to a new priority class. The token
// keeps its original admission sequence, so within the destination class
// it orders ahead of tokens that arrived later — fairness is preserved.
// Moving a token to the class it already holds is a no-op.
func (e *Engine) Reprioritize(ctx context.Context, caller admitq.Actor, tokenID id.TokenID, newClass token.PriorityClass) (*token.Token, error) {
	if !newClass.Valid() {
		return nil, fmt.Errorf("%w: %d", admitq.ErrInvalidPriority, int(newClass))
	}
	if !caller.CanManageQueue() {
		return nil, fmt.Errorf("%w: reprioritize requires staff", admitq.ErrPermissionDenied)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tok, err := e.activeToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if tok.Class == newClass {
		return tok.Clone(), nil
	}

	oldClass := tok.Class
	oldKey := tok.Key()
	rank, err := e.index.Reposition(tokenID, oldKey.WithClass(newClass))
	if err != nil {
		return nil, err
	}

	updated := tok.Clone()
	updated.Class = newClass
	updated.Rank = rank
	updated.EstimatedWait = e.estimator.Minutes(rank, newClass)
	updated.Touch()

	shifts := e.collectShifts(tokenID.String())
	if err := e.persist(ctx, &token.Batch{Primary: updated, Shifts: shifts}); err != nil {
		if _, rbErr := e.index.Reposition(tokenID, oldKey); rbErr != nil {
			e.logger.Error("rollback reprioritize", slog.String("error", rbErr.Error()))
		}
		return nil, err
	}

	e.active[tokenID.String()] = updated
	e.applyShifts(shifts)

	e.logger.Info("token reprioritized",
		slog.String("token", updated.Number),
		slog.String("from", oldClass.String()),
		slog.String("to", newClass.String()),
		slog.Int("rank", rank),
	)

	out := updated.Clone()
	snap := e.snapshotLocked()
	e.extensions.EmitTokenReprioritized(ctx, out, oldClass)
	e.publish(ctx, event.TokenReprioritized, out)
	e.notifyQueueChanged(ctx, snap)
	return out, nil
}

// Complete marks an active token served and closes the rank gap it
// leaves. Staff or admin only.
func (e *Engine) Complete(ctx context.Context, caller admitq.Actor, tokenID id.TokenID) error {
	if !caller.CanManageQueue() {
		return fmt.Errorf("%w: complete requires staff", admitq.ErrPermissionDenied)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tok, err := e.activeToken(ctx, tokenID)
	if err != nil {
		return err
	}
	return e.terminateLocked(ctx, tok, token.StatusCompleted)
}

// Cancel withdraws an active token and closes the rank gap it leaves.
// Allowed for the owning patient or staff/admin.
func (e *Engine) Cancel(ctx context.Context, caller admitq.Actor, tokenID id.TokenID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tok, err := e.activeToken(ctx, tokenID)
	if err != nil {
		return err
	}
	if !caller.CanCancel(tok.PatientID) {
		return fmt.Errorf("%w: not the token owner", admitq.ErrPermissionDenied)
	}
	return e.terminateLocked(ctx, tok, token.StatusCancelled)
}

// terminateLocked removes a token from the queue with the given terminal
// status: remove from the index, shift every later rank up by one,
// recompute their estimates, persist atomically, then notify.
// Caller holds mu and has verified the token is active.
func (e *Engine) terminateLocked(ctx context.Context, tok *token.Token, status token.Status) error {
	tokenID := tok.ID
	oldKey := tok.Key()
	if _, err := e.index.Remove(tokenID); err != nil {
		return err
	}

	updated := tok.Clone()
	updated.Status = status
	updated.Rank = 0
	updated.EstimatedWait = 0
	updated.Touch()

	shifts := e.collectShifts(tokenID.String())
	if err := e.persist(ctx, &token.Batch{Primary: updated, Shifts: shifts}); err != nil {
		if _, rbErr := e.index.Insert(tokenID, oldKey); rbErr != nil {
			e.logger.Error("rollback terminate", slog.String("error", rbErr.Error()))
		}
		return err
	}

	delete(e.active, tokenID.String())
	e.applyShifts(shifts)

	e.logger.Info("token closed",
		slog.String("token", updated.Number),
		slog.String("status", string(status)),
	)

	snap := e.snapshotLocked()
	if status == token.StatusCompleted {
		e.extensions.EmitTokenCompleted(ctx, tokenID)
		e.publish(ctx, event.TokenCompleted, updated)
	} else {
		e.extensions.EmitTokenCancelled(ctx, tokenID)
		e.publish(ctx, event.TokenCancelled, updated)
	}
	e.notifyQueueChanged(ctx, snap)
	return nil
}

// activeToken returns the cached active record for tokenID, or the
// precise error for why it cannot be mutated. Caller holds mu.
func (e *Engine) activeToken(ctx context.Context, tokenID id.TokenID) (*token.Token, error) {
	if cached := e.active[tokenID.String()]; cached != nil {
		return cached, nil
	}

	// Distinguish "never existed" from "already terminal".
	stored, err := e.store.GetToken(ctx, tokenID)
	if err != nil {
		if errors.Is(err, admitq.ErrTokenNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", admitq.ErrUnavailable, err)
	}
	return nil, fmt.Errorf("%w: token is %s", admitq.ErrInvalidStatus, stored.Status)
}

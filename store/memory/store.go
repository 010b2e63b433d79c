package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/admitq"
	"github.com/xraph/admitq/event"
	"github.com/xraph/admitq/id"
	"github.com/xraph/admitq/token"
)

// Ensure Store implements store.Store at compile time.
// We can't import store here (import cycle), so we verify each subsystem.
var (
	_ token.Store = (*Store)(nil)
	_ event.Store = (*Store)(nil)
)

// Store is a fully in-memory implementation of store.Store.
// Safe for concurrent access. Intended for unit testing and development.
type Store struct {
	mu sync.RWMutex

	tokens map[string]*token.Token
	events map[string]*event.Event
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		tokens: make(map[string]*token.Token),
		events: make(map[string]*event.Event),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Token Store
// ──────────────────────────────────────────────────

// ApplyBatch atomically persists one queue mutation: the primary token in
// full plus rank shifts for every displaced token. The whole batch is
// validated before anything is written, so a failed batch changes
// nothing.
func (m *Store) ApplyBatch(_ context.Context, b *token.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Validate first: every shifted token must exist.
	for _, s := range b.Shifts {
		if _, ok := m.tokens[s.ID.String()]; !ok {
			return admitq.ErrTokenNotFound
		}
	}

	now := time.Now().UTC()
	if b.Primary != nil {
		cp := *b.Primary
		cp.UpdatedAt = now
		m.tokens[cp.ID.String()] = &cp
	}
	for _, s := range b.Shifts {
		t := m.tokens[s.ID.String()]
		t.Rank = s.Rank
		t.EstimatedWait = s.EstimatedWait
		t.UpdatedAt = now
	}
	return nil
}

// GetToken retrieves a token by ID.
func (m *Store) GetToken(_ context.Context, tokenID id.TokenID) (*token.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tokens[tokenID.String()]
	if !ok {
		return nil, admitq.ErrTokenNotFound
	}
	return t.Clone(), nil
}

// FindActiveByPatient returns the patient's Active token, if any.
func (m *Store) FindActiveByPatient(_ context.Context, patientID string) (*token.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.tokens {
		if t.PatientID == patientID && t.Status == token.StatusActive {
			return t.Clone(), nil
		}
	}
	return nil, admitq.ErrTokenNotFound
}

// ListTokens returns tokens matching the given options.
func (m *Store) ListTokens(_ context.Context, opts token.ListOpts) ([]*token.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*token.Token, 0, len(m.tokens))
	for _, t := range m.tokens {
		if opts.Status != "" && t.Status != opts.Status {
			continue
		}
		if opts.PatientID != "" && t.PatientID != opts.PatientID {
			continue
		}
		result = append(result, t.Clone())
	}

	// Active-only listings come back rank ascending; everything else by
	// creation time for deterministic output.
	if opts.Status == token.StatusActive {
		sort.Slice(result, func(i, k int) bool {
			return result[i].Rank < result[k].Rank
		})
	} else {
		sort.Slice(result, func(i, k int) bool {
			return result[i].CreatedAt.Before(result[k].CreatedAt)
		})
	}

	// Apply offset / limit.
	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// MaxSequence returns the highest admission sequence ever assigned.
func (m *Store) MaxSequence(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var maxSeq uint64
	for _, t := range m.tokens {
		if t.Sequence > maxSeq {
			maxSeq = t.Sequence
		}
	}
	return maxSeq, nil
}

// ──────────────────────────────────────────────────
// Event Store
// ──────────────────────────────────────────────────

// PublishEvent persists a new event.
func (m *Store) PublishEvent(_ context.Context, evt *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *evt
	m.events[evt.ID.String()] = &cp
	return nil
}

// SubscribeEvent waits for an unacked event matching the given name.
// Poll-based: loops with 10ms sleep until an event is available or timeout.
func (m *Store) SubscribeEvent(ctx context.Context, name string, timeout time.Duration) (*event.Event, error) {
	deadline := time.Now().Add(timeout)

	for {
		// Check context cancellation.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if time.Now().After(deadline) {
			return nil, nil
		}

		m.mu.RLock()
		for _, evt := range m.events {
			if evt.Name == name && !evt.Acked {
				cp := *evt
				m.mu.RUnlock()
				return &cp, nil
			}
		}
		m.mu.RUnlock()

		// Brief sleep to avoid busy-waiting.
		time.Sleep(10 * time.Millisecond)
	}
}

// AckEvent acknowledges an event, marking it as consumed.
func (m *Store) AckEvent(_ context.Context, eventID id.EventID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	evt, ok := m.events[eventID.String()]
	if !ok {
		return admitq.ErrEventNotFound
	}
	evt.Acked = true
	return nil
}

package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/admitq"
	"github.com/xraph/admitq/id"
	"github.com/xraph/admitq/store/memory"
	"github.com/xraph/admitq/token"
)

func newActiveToken(patientID string, class token.PriorityClass, seq uint64, rank int) *token.Token {
	t := &token.Token{
		ID:        id.NewTokenID(),
		Number:    token.Number(class, seq, time.Now()),
		PatientID: patientID,
		Class:     class,
		Status:    token.StatusActive,
		Rank:      rank,
		Sequence:  seq,
	}
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	return t
}

// ──────────────────────────────────────────────────
// ApplyBatch
// ──────────────────────────────────────────────────

func TestStore_ApplyBatch_PrimaryOnly(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	tok := newActiveToken("p1", token.PriorityHigh, 1, 1)
	if err := s.ApplyBatch(ctx, &token.Batch{Primary: tok}); err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}

	got, err := s.GetToken(ctx, tok.ID)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if got.Number != tok.Number || got.Rank != 1 {
		t.Errorf("stored token mismatch: %+v", got)
	}
}

func TestStore_ApplyBatch_Shifts(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	a := newActiveToken("p1", token.PriorityMediumLow, 1, 1)
	b := newActiveToken("p2", token.PriorityMediumLow, 2, 2)
	for _, tok := range []*token.Token{a, b} {
		if err := s.ApplyBatch(ctx, &token.Batch{Primary: tok}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	// A new high-priority admission displaces both by one rank.
	c := newActiveToken("p3", token.PriorityHigh, 3, 1)
	err := s.ApplyBatch(ctx, &token.Batch{
		Primary: c,
		Shifts: []token.RankShift{
			{ID: a.ID, Rank: 2, EstimatedWait: 40},
			{ID: b.ID, Rank: 3, EstimatedWait: 60},
		},
	})
	if err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}

	gotA, _ := s.GetToken(ctx, a.ID)
	gotB, _ := s.GetToken(ctx, b.ID)
	if gotA.Rank != 2 || gotA.EstimatedWait != 40 {
		t.Errorf("a: rank=%d wait=%d, want 2/40", gotA.Rank, gotA.EstimatedWait)
	}
	if gotB.Rank != 3 || gotB.EstimatedWait != 60 {
		t.Errorf("b: rank=%d wait=%d, want 3/60", gotB.Rank, gotB.EstimatedWait)
	}
}

func TestStore_ApplyBatch_UnknownShiftIsAtomic(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	a := newActiveToken("p1", token.PriorityMediumLow, 1, 1)
	if err := s.ApplyBatch(ctx, &token.Batch{Primary: a}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// A batch referencing an unknown token fails without touching anything.
	b := newActiveToken("p2", token.PriorityHigh, 2, 1)
	err := s.ApplyBatch(ctx, &token.Batch{
		Primary: b,
		Shifts: []token.RankShift{
			{ID: a.ID, Rank: 2, EstimatedWait: 40},
			{ID: id.NewTokenID(), Rank: 3, EstimatedWait: 60},
		},
	})
	if !errors.Is(err, admitq.ErrTokenNotFound) {
		t.Fatalf("ApplyBatch: err=%v, want ErrTokenNotFound", err)
	}

	if _, getErr := s.GetToken(ctx, b.ID); !errors.Is(getErr, admitq.ErrTokenNotFound) {
		t.Error("failed batch must not write the primary token")
	}
	gotA, _ := s.GetToken(ctx, a.ID)
	if gotA.Rank != 1 {
		t.Errorf("failed batch must not apply shifts: rank=%d, want 1", gotA.Rank)
	}
}

// ──────────────────────────────────────────────────
// Lookups
// ──────────────────────────────────────────────────

func TestStore_FindActiveByPatient(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	active := newActiveToken("p1", token.PriorityHigh, 1, 1)
	done := newActiveToken("p2", token.PriorityHigh, 2, 0)
	done.Status = token.StatusCompleted
	for _, tok := range []*token.Token{active, done} {
		if err := s.ApplyBatch(ctx, &token.Batch{Primary: tok}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := s.FindActiveByPatient(ctx, "p1")
	if err != nil {
		t.Fatalf("FindActiveByPatient: %v", err)
	}
	if got.ID != active.ID {
		t.Errorf("found %s, want %s", got.ID, active.ID)
	}

	// Terminal tokens don't count.
	if _, err = s.FindActiveByPatient(ctx, "p2"); !errors.Is(err, admitq.ErrTokenNotFound) {
		t.Fatalf("completed token should not match: err=%v", err)
	}
}

func TestStore_GetToken_ReturnsClone(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	tok := newActiveToken("p1", token.PriorityHigh, 1, 1)
	if err := s.ApplyBatch(ctx, &token.Batch{Primary: tok}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, _ := s.GetToken(ctx, tok.ID)
	got.Rank = 99

	again, _ := s.GetToken(ctx, tok.ID)
	if again.Rank != 1 {
		t.Error("mutating a returned token must not affect stored state")
	}
}

// ──────────────────────────────────────────────────
// ListTokens
// ──────────────────────────────────────────────────

func TestStore_ListTokens_ActiveByRank(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	// Seed out of rank order.
	third := newActiveToken("p3", token.PriorityMediumLow, 3, 3)
	first := newActiveToken("p1", token.PriorityCritical, 1, 1)
	second := newActiveToken("p2", token.PriorityHigh, 2, 2)
	for _, tok := range []*token.Token{third, first, second} {
		if err := s.ApplyBatch(ctx, &token.Batch{Primary: tok}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := s.ListTokens(ctx, token.ListOpts{Status: token.StatusActive})
	if err != nil {
		t.Fatalf("ListTokens: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len=%d, want 3", len(got))
	}
	for i, tok := range got {
		if tok.Rank != i+1 {
			t.Errorf("position %d: rank=%d, want %d", i, tok.Rank, i+1)
		}
	}
}

func TestStore_ListTokens_PatientHistory(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	old := newActiveToken("p1", token.PriorityHigh, 1, 0)
	old.Status = token.StatusCompleted
	old.CreatedAt = time.Now().Add(-time.Hour)
	current := newActiveToken("p1", token.PriorityHigh, 2, 1)
	other := newActiveToken("p2", token.PriorityHigh, 3, 2)
	for _, tok := range []*token.Token{old, current, other} {
		if err := s.ApplyBatch(ctx, &token.Batch{Primary: tok}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := s.ListTokens(ctx, token.ListOpts{PatientID: "p1"})
	if err != nil {
		t.Fatalf("ListTokens: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
	// Creation order: old history first.
	if got[0].ID != old.ID || got[1].ID != current.ID {
		t.Error("patient history not in creation order")
	}
}

func TestStore_ListTokens_OffsetLimit(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	for i := range 5 {
		tok := newActiveToken("p", token.PriorityMediumLow, uint64(i+1), i+1)
		tok.PatientID = tok.ID.String() // distinct patients
		if err := s.ApplyBatch(ctx, &token.Batch{Primary: tok}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := s.ListTokens(ctx, token.ListOpts{Status: token.StatusActive, Offset: 1, Limit: 2})
	if err != nil {
		t.Fatalf("ListTokens: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
	if got[0].Rank != 2 || got[1].Rank != 3 {
		t.Errorf("ranks=%d,%d, want 2,3", got[0].Rank, got[1].Rank)
	}

	// Offset past the end yields nothing.
	got, err = s.ListTokens(ctx, token.ListOpts{Status: token.StatusActive, Offset: 10})
	if err != nil {
		t.Fatalf("ListTokens: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("offset past end: len=%d, want 0", len(got))
	}
}

// ──────────────────────────────────────────────────
// MaxSequence
// ──────────────────────────────────────────────────

func TestStore_MaxSequence(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	if seq, err := s.MaxSequence(ctx); err != nil || seq != 0 {
		t.Fatalf("empty store: seq=%d err=%v, want 0", seq, err)
	}

	for _, n := range []uint64{3, 7, 5} {
		tok := newActiveToken("p"+string(rune('0'+n)), token.PriorityMediumLow, n, int(n))
		if err := s.ApplyBatch(ctx, &token.Batch{Primary: tok}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	seq, err := s.MaxSequence(ctx)
	if err != nil {
		t.Fatalf("MaxSequence: %v", err)
	}
	if seq != 7 {
		t.Fatalf("seq=%d, want 7", seq)
	}
}

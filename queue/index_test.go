package queue

import (
	"errors"
	"testing"

	"github.com/xraph/admitq"
	"github.com/xraph/admitq/id"
	"github.com/xraph/admitq/token"
)

func key(class token.PriorityClass, seq uint64) token.OrderingKey {
	return token.OrderingKey{Class: class, Sequence: seq}
}

// ---------------------------------------------------------------------------
// Insert
// ---------------------------------------------------------------------------

func TestIndex_Insert_Order(t *testing.T) {
	x := NewIndex()

	low := id.NewTokenID()
	high := id.NewTokenID()
	critical := id.NewTokenID()

	if rank, err := x.Insert(low, key(token.PriorityMediumLow, 1)); err != nil || rank != 1 {
		t.Fatalf("insert low: rank=%d err=%v, want rank 1", rank, err)
	}
	if rank, err := x.Insert(high, key(token.PriorityHigh, 2)); err != nil || rank != 1 {
		t.Fatalf("insert high: rank=%d err=%v, want rank 1", rank, err)
	}
	if rank, err := x.Insert(critical, key(token.PriorityCritical, 3)); err != nil || rank != 1 {
		t.Fatalf("insert critical: rank=%d err=%v, want rank 1", rank, err)
	}

	// Final order: critical, high, low.
	wantOrder := []id.TokenID{critical, high, low}
	i := 0
	for entry, rank := range x.Snapshot() {
		if entry.ID != wantOrder[i] {
			t.Errorf("position %d: got %s, want %s", i, entry.ID, wantOrder[i])
		}
		if rank != i+1 {
			t.Errorf("position %d: rank=%d, want %d", i, rank, i+1)
		}
		i++
	}
	if i != 3 {
		t.Fatalf("snapshot yielded %d entries, want 3", i)
	}
}

func TestIndex_Insert_FIFOWithinClass(t *testing.T) {
	x := NewIndex()

	first := id.NewTokenID()
	second := id.NewTokenID()

	if _, err := x.Insert(first, key(token.PriorityHigh, 1)); err != nil {
		t.Fatalf("insert first: %v", err)
	}
	rank, err := x.Insert(second, key(token.PriorityHigh, 2))
	if err != nil {
		t.Fatalf("insert second: %v", err)
	}
	if rank != 2 {
		t.Fatalf("same-class later arrival: rank=%d, want 2", rank)
	}
}

func TestIndex_Insert_Duplicate(t *testing.T) {
	x := NewIndex()
	tokenID := id.NewTokenID()

	if _, err := x.Insert(tokenID, key(token.PriorityHigh, 1)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := x.Insert(tokenID, key(token.PriorityHigh, 2)); !errors.Is(err, admitq.ErrConflict) {
		t.Fatalf("duplicate insert: err=%v, want ErrConflict", err)
	}
	if x.Len() != 1 {
		t.Fatalf("Len=%d after duplicate insert, want 1", x.Len())
	}
}

// ---------------------------------------------------------------------------
// Remove
// ---------------------------------------------------------------------------

func TestIndex_Remove_ClosesGap(t *testing.T) {
	x := NewIndex()

	ids := make([]id.TokenID, 4)
	for i := range ids {
		ids[i] = id.NewTokenID()
		if _, err := x.Insert(ids[i], key(token.PriorityMediumLow, uint64(i+1))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	// Remove the second token; everyone behind moves up one.
	oldRank, err := x.Remove(ids[1])
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if oldRank != 2 {
		t.Fatalf("removed rank=%d, want 2", oldRank)
	}

	wantRanks := map[string]int{
		ids[0].String(): 1,
		ids[2].String(): 2,
		ids[3].String(): 3,
	}
	for tokenID, want := range wantRanks {
		parsed, _ := id.ParseTokenID(tokenID)
		got, rankErr := x.RankOf(parsed)
		if rankErr != nil {
			t.Fatalf("RankOf(%s): %v", tokenID, rankErr)
		}
		if got != want {
			t.Errorf("RankOf(%s)=%d, want %d", tokenID, got, want)
		}
	}
}

func TestIndex_Remove_Missing(t *testing.T) {
	x := NewIndex()
	if _, err := x.Remove(id.NewTokenID()); !errors.Is(err, admitq.ErrTokenNotFound) {
		t.Fatalf("remove missing: err=%v, want ErrTokenNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Reposition
// ---------------------------------------------------------------------------

func TestIndex_Reposition_MovesAhead(t *testing.T) {
	x := NewIndex()

	a := id.NewTokenID()
	b := id.NewTokenID()
	c := id.NewTokenID()
	x.Insert(a, key(token.PriorityMediumLow, 1))
	x.Insert(b, key(token.PriorityMediumLow, 2))
	x.Insert(c, key(token.PriorityMediumLow, 3))

	// Escalate c to high; it jumps ahead of both medium-low tokens.
	rank, err := x.Reposition(c, key(token.PriorityHigh, 3))
	if err != nil {
		t.Fatalf("reposition: %v", err)
	}
	if rank != 1 {
		t.Fatalf("reposition rank=%d, want 1", rank)
	}
	if got, _ := x.RankOf(a); got != 2 {
		t.Errorf("RankOf(a)=%d, want 2", got)
	}
	if got, _ := x.RankOf(b); got != 3 {
		t.Errorf("RankOf(b)=%d, want 3", got)
	}
}

func TestIndex_Reposition_KeepsArrivalOrderInNewClass(t *testing.T) {
	x := NewIndex()

	early := id.NewTokenID()
	late := id.NewTokenID()
	x.Insert(early, key(token.PriorityHigh, 1))
	x.Insert(late, key(token.PriorityMediumLow, 2))

	// Escalating the later arrival into the same class ranks it behind the
	// earlier arrival: class changes, the admission sequence does not.
	rank, err := x.Reposition(late, key(token.PriorityHigh, 2))
	if err != nil {
		t.Fatalf("reposition: %v", err)
	}
	if rank != 2 {
		t.Fatalf("reposition rank=%d, want 2 (behind earlier same-class arrival)", rank)
	}
}

func TestIndex_Reposition_Missing(t *testing.T) {
	x := NewIndex()
	if _, err := x.Reposition(id.NewTokenID(), key(token.PriorityHigh, 1)); !errors.Is(err, admitq.ErrTokenNotFound) {
		t.Fatalf("reposition missing: err=%v, want ErrTokenNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

func TestIndex_Snapshot_PointInTime(t *testing.T) {
	x := NewIndex()

	a := id.NewTokenID()
	b := id.NewTokenID()
	x.Insert(a, key(token.PriorityMediumLow, 1))
	x.Insert(b, key(token.PriorityMediumLow, 2))

	snap := x.Snapshot()

	// Mutate after taking the snapshot.
	if _, err := x.Remove(a); err != nil {
		t.Fatalf("remove: %v", err)
	}

	count := 0
	for range snap {
		count++
	}
	if count != 2 {
		t.Fatalf("snapshot yielded %d entries after mutation, want 2", count)
	}

	// A snapshot is restartable.
	count = 0
	for range snap {
		count++
	}
	if count != 2 {
		t.Fatalf("second pass yielded %d entries, want 2", count)
	}
}

func TestIndex_Snapshot_EarlyStop(t *testing.T) {
	x := NewIndex()
	for i := range 5 {
		x.Insert(id.NewTokenID(), key(token.PriorityMediumLow, uint64(i+1)))
	}

	count := 0
	for range x.Snapshot() {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("early stop yielded %d entries, want 2", count)
	}
}

// ---------------------------------------------------------------------------
// Rank contiguity
// ---------------------------------------------------------------------------

func TestIndex_RanksContiguous(t *testing.T) {
	x := NewIndex()

	ids := make([]id.TokenID, 10)
	for i := range ids {
		ids[i] = id.NewTokenID()
		class := token.PriorityClass(i%6 + 1)
		if _, err := x.Insert(ids[i], key(class, uint64(i+1))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	x.Remove(ids[3])
	x.Remove(ids[7])
	x.Reposition(ids[5], key(token.PriorityCritical, 6))

	want := 1
	for _, rank := range x.Snapshot() {
		if rank != want {
			t.Fatalf("rank=%d, want %d (ranks must stay contiguous from 1)", rank, want)
		}
		want++
	}
	if want-1 != x.Len() {
		t.Fatalf("snapshot yielded %d entries, Len=%d", want-1, x.Len())
	}
}

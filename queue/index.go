package queue

import (
	"iter"
	"sort"
	"sync"

	"github.com/xraph/admitq"
	"github.com/xraph/admitq/id"
	"github.com/xraph/admitq/token"
)

// Entry is one indexed token: its identity and the ordering key that
// fixes its position.
type Entry struct {
	ID  id.TokenID
	Key token.OrderingKey
}

// Rank returns the 1-based rank for a position in the sorted order.
func rankAt(pos int) int { return pos + 1 }

// Index is the ordered in-memory collection of active tokens. Entries are
// held sorted by ordering key; a token's rank is its 1-based position.
// Safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	entries []Entry
	pos     map[string]int // token ID string -> position in entries
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{pos: make(map[string]int)}
}

// Len returns the number of indexed tokens.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Insert adds a token in sorted order and returns its 1-based rank.
// Every token previously at or after the insertion point shifts down by
// one rank as part of the same step. Returns admitq.ErrConflict if the
// token is already indexed.
func (x *Index) Insert(tokenID id.TokenID, key token.OrderingKey) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, exists := x.pos[tokenID.String()]; exists {
		return 0, admitq.ErrConflict
	}
	return rankAt(x.insertLocked(tokenID, key)), nil
}

// Remove deletes a token and closes the rank gap it leaves: every token
// after it shifts up by one rank. Returns the removed token's old 1-based
// rank, or admitq.ErrTokenNotFound.
func (x *Index) Remove(tokenID id.TokenID) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	p, ok := x.pos[tokenID.String()]
	if !ok {
		return 0, admitq.ErrTokenNotFound
	}
	x.removeLocked(p)
	delete(x.pos, tokenID.String())
	return rankAt(p), nil
}

// Reposition moves a token to the position its new key orders it at, as a
// single atomic step — no concurrent reader observes the token absent.
// Returns the token's new 1-based rank, or admitq.ErrTokenNotFound.
func (x *Index) Reposition(tokenID id.TokenID, newKey token.OrderingKey) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	p, ok := x.pos[tokenID.String()]
	if !ok {
		return 0, admitq.ErrTokenNotFound
	}
	x.removeLocked(p)
	return rankAt(x.insertLocked(tokenID, newKey)), nil
}

// RankOf returns the token's current 1-based rank, or
// admitq.ErrTokenNotFound.
func (x *Index) RankOf(tokenID id.TokenID) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	p, ok := x.pos[tokenID.String()]
	if !ok {
		return 0, admitq.ErrTokenNotFound
	}
	return rankAt(p), nil
}

// Snapshot returns a lazy, restartable sequence of (entry, rank) pairs in
// rank-ascending order. The sequence iterates a point-in-time copy taken
// when Snapshot is called, so it stays consistent while mutations proceed.
func (x *Index) Snapshot() iter.Seq2[Entry, int] {
	x.mu.RLock()
	copied := make([]Entry, len(x.entries))
	copy(copied, x.entries)
	x.mu.RUnlock()

	return func(yield func(Entry, int) bool) {
		for i, e := range copied {
			if !yield(e, rankAt(i)) {
				return
			}
		}
	}
}

// insertLocked places an entry at its sorted position and fixes the pos
// map for everything it displaced. Returns the insertion position.
func (x *Index) insertLocked(tokenID id.TokenID, key token.OrderingKey) int {
	at := sort.Search(len(x.entries), func(i int) bool {
		return key.Less(x.entries[i].Key)
	})

	x.entries = append(x.entries, Entry{})
	copy(x.entries[at+1:], x.entries[at:])
	x.entries[at] = Entry{ID: tokenID, Key: key}

	for i := at; i < len(x.entries); i++ {
		x.pos[x.entries[i].ID.String()] = i
	}
	return at
}

// removeLocked deletes the entry at position p and fixes the pos map for
// everything after it. The caller removes the pos entry for the deleted
// token if it is not being re-inserted.
func (x *Index) removeLocked(p int) {
	x.entries = append(x.entries[:p], x.entries[p+1:]...)
	for i := p; i < len(x.entries); i++ {
		x.pos[x.entries[i].ID.String()] = i
	}
}

package token

import (
	"fmt"
	"time"

	"github.com/xraph/admitq"
	"github.com/xraph/admitq/id"
)

// Status represents the lifecycle state of a token.
type Status string

const (
	// StatusActive means the token holds a rank in the queue.
	StatusActive Status = "active"
	// StatusCompleted means the token was served. Terminal.
	StatusCompleted Status = "completed"
	// StatusCancelled means the token was withdrawn. Terminal.
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Token represents one queued service request.
//
// Rank is the 1-based position among Active tokens and is meaningful only
// while Status is StatusActive; terminal tokens carry Rank 0. Tokens are
// never deleted from the durable record — completed and cancelled tokens
// remain as history.
type Token struct {
	admitq.Entity

	ID            id.TokenID    `json:"id"`
	Number        string        `json:"number"`
	PatientID     string        `json:"patient_id"`
	PatientName   string        `json:"patient_name"`
	PatientPhone  string        `json:"patient_phone,omitempty"`
	Class         PriorityClass `json:"priority_class"`
	Category      string        `json:"category"`
	Status        Status        `json:"status"`
	Symptoms      string        `json:"symptoms,omitempty"`
	Rank          int           `json:"rank,omitempty"`
	EstimatedWait int           `json:"estimated_wait_minutes"`
	Sequence      uint64        `json:"admission_sequence"`
	CreatedBy     string        `json:"created_by"`
}

// Key returns the token's current ordering key.
func (t *Token) Key() OrderingKey {
	return OrderingKey{Class: t.Class, Sequence: t.Sequence}
}

// Clone returns a shallow copy. Stores hand out clones so callers can
// mutate results without racing with cached state.
func (t *Token) Clone() *Token {
	cp := *t
	return &cp
}

// Number builds the human-readable ticket number for a class, admission
// sequence, and admission day: "{prefix}-{seq}-{ddmmyy}". The three-digit
// sequence is derived from the admission sequence rather than sampled
// randomly, so collisions within a day only occur after a thousand
// admissions share a prefix.
func Number(class PriorityClass, seq uint64, at time.Time) string {
	return fmt.Sprintf("%s-%03d-%s", class.Prefix(), seq%1000, at.Format("020106"))
}

package event

import (
	"time"

	"github.com/xraph/admitq/id"
)

// Event names published by the engine. A broadcast layer subscribes to
// these to fan queue changes out to connected clients.
const (
	TokenAdmitted      = "token.admitted"
	TokenReprioritized = "token.reprioritized"
	TokenCompleted     = "token.completed"
	TokenCancelled     = "token.cancelled"
	QueueChanged       = "queue.changed"
)

// Event represents a named queue-change event. The payload is the JSON
// encoding of the token or snapshot the event describes.
type Event struct {
	ID        id.EventID `json:"id"`
	Name      string     `json:"name"`
	Payload   []byte     `json:"payload,omitempty"`
	Acked     bool       `json:"acked"`
	CreatedAt time.Time  `json:"created_at"`
}

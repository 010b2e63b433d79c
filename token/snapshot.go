package token

import "time"

// QueueEntry is one row of a queue snapshot: the public view of an active
// token's position.
type QueueEntry struct {
	TokenID       string        `json:"token_id"`
	Number        string        `json:"token_number"`
	PatientName   string        `json:"patient_name"`
	Class         PriorityClass `json:"priority_class"`
	Rank          int           `json:"rank"`
	EstimatedWait int           `json:"estimated_wait_minutes"`
	Status        Status        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Snapshot is a point-in-time view of the active queue, rank ascending.
// The engine publishes one after every committed mutation.
type Snapshot struct {
	Entries []QueueEntry `json:"queue"`
	Total   int          `json:"total_count"`
	At      time.Time    `json:"at"`
}

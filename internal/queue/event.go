// Package queue defines message payloads exchanged over the message
// broker and the background consumer that turns them into the usage
// ledger.
package queue

// SessionOpenedEvent is published after a check-in commits. It carries
// enough for downstream consumers to log or notify without querying the
// primary database.
type SessionOpenedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	ResourceID    uint64 `json:"resource_id"`
	ResourceName  string `json:"resource_name"`
	Kind          string `json:"kind"`
	Zone          string `json:"zone,omitempty"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
}

// SessionClosedEvent is published after a check-out commits.
type SessionClosedEvent struct {
	ReservationID   uint64 `json:"reservation_id"`
	UserID          uint64 `json:"user_id"`
	ResourceID      uint64 `json:"resource_id"`
	ResourceName    string `json:"resource_name"`
	Kind            string `json:"kind"`
	Zone            string `json:"zone,omitempty"`
	DurationSeconds uint64 `json:"duration_seconds"`
	ClosedAt        string `json:"closed_at"`
}

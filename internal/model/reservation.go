package model

import "time"

// Reservation lifecycle states. Transitions are monotonic:
// SCHEDULED -> ACTIVE -> COMPLETED (check-in without a prior booking
// creates the record directly in ACTIVE). No transition reverses.
const (
	StatusScheduled = "SCHEDULED"
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
)

// Reservation binds a user to a resource for a half-open time window
// [StartAt, EndAt). For the check-in flow EndAt is initially a ceiling
// (start + requested session length) and is overwritten with the real
// instant at checkout. Rows are retained as history and are never
// deleted once they have been activated.
//
// Fields:
//  ID            – primary key identifier.
//  ResourceID    – resource being booked.
//  UserID        – user holding the booking.
//  Status        – SCHEDULED, ACTIVE or COMPLETED.
//  StartAt       – window start (inclusive), UTC.
//  EndAt         – window end (exclusive), UTC.
//  ActualSeconds – elapsed session length; set exactly once at the
//                  ACTIVE -> COMPLETED transition, nil before that.
//  CreatedAt     – creation timestamp (audit only).
//  UpdatedAt     – last update timestamp.
type Reservation struct {
	ID            uint64    // reservations.id
	ResourceID    uint64    // reservations.resource_id
	UserID        uint64    // reservations.user_id
	Status        string    // reservations.status
	StartAt       time.Time // reservations.start_at
	EndAt         time.Time // reservations.end_at
	ActualSeconds *uint64   // reservations.actual_seconds (nullable)
	CreatedAt     time.Time // reservations.created_at
	UpdatedAt     time.Time // reservations.updated_at
}

// Open reports whether the reservation still counts against a
// resource's availability.
func (r Reservation) Open() bool {
	return r.Status == StatusScheduled || r.Status == StatusActive
}

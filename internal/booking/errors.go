// Package booking implements the reservation core shared by DeskTime
// and DriveLoop: interval overlap checks, occupancy derivation and the
// check-in/check-out session lifecycle. All state changes run inside a
// single database transaction so a failure never leaves a reservation
// without its matching user pointer update.
package booking

import (
	"errors"
	"fmt"

	"github.com/driveloop/bookingd/internal/model"
)

// ErrInvalidInterval is returned when a candidate window has
// start >= end. Handlers should translate this into HTTP 400.
var ErrInvalidInterval = errors.New("invalid interval: start must be before end")

// ErrInvalidDuration is returned when a requested session length is
// negative or exceeds the configured maximum.
var ErrInvalidDuration = errors.New("invalid session duration")

// ErrAlreadyCheckedIn is returned by CheckIn when the user's
// current-booking pointer is already set.
var ErrAlreadyCheckedIn = errors.New("user already has an active session")

// ErrNotCheckedIn is returned by CheckOut when the user has no
// in-progress session.
var ErrNotCheckedIn = errors.New("user has no active session")

// ConflictError reports that a candidate window overlaps one or more
// existing open reservations. All conflicting records are carried so
// callers can explain the rejection, not just detect it.
type ConflictError struct {
	Conflicts []model.Reservation
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("resource unavailable: %d conflicting reservation(s)", len(e.Conflicts))
}

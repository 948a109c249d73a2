// Package repository defines sentinel errors reused across the data
// access layer. Higher layers compare against these with errors.Is to
// pick the right HTTP status instead of inspecting driver errors.
package repository

import "errors"

// ErrResourceNotFound is returned when a resource id references no row.
var ErrResourceNotFound = errors.New("resource not found")

// ErrReservationNotFound is returned when a reservation lookup fails.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrUserNotFound is returned when a user id references no row.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when registering a duplicate email.
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller attempts an operation on a
// record owned by someone else. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// the record's current state, such as cancelling a reservation that is
// no longer SCHEDULED. Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

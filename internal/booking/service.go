package booking

import (
	"context"
	"database/sql"
	"time"

	"github.com/driveloop/bookingd/internal/model"
	"github.com/driveloop/bookingd/internal/repository"
)

// Service orchestrates the reservation lifecycle. Every write path runs
// as one transaction that locks the resource row before the conflict
// check, so two concurrent check-ins for the same resource cannot both
// pass the availability scan ("check availability, then write" is
// atomic per resource). No retries happen here; transient store errors
// are propagated with state unchanged.
type Service struct {
	DB           *sql.DB
	Resources    *repository.ResourceRepo
	Reservations *repository.ReservationRepo
	Users        *repository.UserRepo

	// DefaultSession is the ceiling applied when check-in does not name
	// a duration; MaxSession caps what a caller may request.
	DefaultSession time.Duration
	MaxSession     time.Duration

	now func() time.Time
}

// NewService wires a Service. defaultSession and maxSession must be
// positive; maxSession < defaultSession is normalized upward.
func NewService(db *sql.DB, resources *repository.ResourceRepo, reservations *repository.ReservationRepo, users *repository.UserRepo, defaultSession, maxSession time.Duration) *Service {
	if defaultSession <= 0 {
		defaultSession = 4 * time.Hour
	}
	if maxSession < defaultSession {
		maxSession = defaultSession
	}
	return &Service{
		DB:             db,
		Resources:      resources,
		Reservations:   reservations,
		Users:          users,
		DefaultSession: defaultSession,
		MaxSession:     maxSession,
		now:            time.Now,
	}
}

// Availability is the result of a conflict scan for one candidate
// window. Conflicts holds every open reservation overlapping it.
type Availability struct {
	Available bool
	Conflicts []model.Reservation
}

// CheckAvailability scans the resource's open reservations for overlap
// with the candidate window. Read-only and idempotent; it never
// consults any cache, only the store.
func (s *Service) CheckAvailability(ctx context.Context, resourceID uint64, iv Interval) (Availability, error) {
	if err := iv.Validate(); err != nil {
		return Availability{}, err
	}
	if _, err := s.Resources.GetByID(ctx, resourceID); err != nil {
		return Availability{}, err
	}
	conflicts, err := s.Reservations.ListOverlapping(ctx, resourceID, iv.Start, iv.End)
	if err != nil {
		return Availability{}, err
	}
	return Availability{Available: len(conflicts) == 0, Conflicts: conflicts}, nil
}

// Reserve creates a SCHEDULED reservation for a future window (the
// booking flow; activation happens at check-in). The conflict check and
// the insert commit together under the resource row lock.
func (s *Service) Reserve(ctx context.Context, userID, resourceID uint64, iv Interval) (*model.Reservation, error) {
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	if !iv.End.After(s.now().UTC()) {
		return nil, ErrInvalidInterval
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.Resources.LockByIDTx(ctx, tx, resourceID); err != nil {
		return nil, err
	}
	conflicts, err := s.Reservations.ListOverlappingTx(ctx, tx, resourceID, iv.Start, iv.End)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{Conflicts: conflicts}
	}

	res := &model.Reservation{
		ResourceID: resourceID,
		UserID:     userID,
		Status:     model.StatusScheduled,
		StartAt:    iv.Start,
		EndAt:      iv.End,
	}
	if err := s.Reservations.CreateTx(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}

// CheckIn opens a session: it activates the user's own SCHEDULED
// reservation when one covers the current instant, otherwise it creates
// a fresh ACTIVE record for [now, now+requested). The reservation
// write, the current-booking pointer update and the visit counter all
// commit atomically.
func (s *Service) CheckIn(ctx context.Context, userID, resourceID uint64, requested time.Duration) (*model.Reservation, error) {
	switch {
	case requested < 0, requested > s.MaxSession:
		return nil, ErrInvalidDuration
	case requested == 0:
		requested = s.DefaultSession
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	u, err := s.Users.GetForUpdateTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if u.CurrentReservationID != nil {
		return nil, ErrAlreadyCheckedIn
	}
	if err := s.Resources.LockByIDTx(ctx, tx, resourceID); err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Second)

	var res *model.Reservation
	sched, err := s.Reservations.FindScheduledForCheckInTx(ctx, tx, userID, resourceID, now)
	if err != nil {
		return nil, err
	}
	if sched != nil {
		// Activating the user's own booking; its window was already
		// proven conflict-free when it was reserved.
		if err := s.Reservations.ActivateTx(ctx, tx, sched.ID, now); err != nil {
			return nil, err
		}
		sched.Status = model.StatusActive
		sched.StartAt = now
		res = sched
	} else {
		iv := Interval{Start: now, End: now.Add(requested)}
		conflicts, err := s.Reservations.ListOverlappingTx(ctx, tx, resourceID, iv.Start, iv.End)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			return nil, &ConflictError{Conflicts: conflicts}
		}
		res = &model.Reservation{
			ResourceID: resourceID,
			UserID:     userID,
			Status:     model.StatusActive,
			StartAt:    iv.Start,
			EndAt:      iv.End,
		}
		if err := s.Reservations.CreateTx(ctx, tx, res); err != nil {
			return nil, err
		}
	}

	if err := s.Users.SetCurrentReservationTx(ctx, tx, userID, res.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}

// CheckOut closes the user's in-progress session. It fixes the end
// instant, writes actual_seconds exactly once, clears the pointer and
// rolls the elapsed time into the usage totals, all in one transaction.
// The elapsed duration is returned for display.
func (s *Service) CheckOut(ctx context.Context, userID uint64) (time.Duration, *model.Reservation, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	u, err := s.Users.GetForUpdateTx(ctx, tx, userID)
	if err != nil {
		return 0, nil, err
	}
	if u.CurrentReservationID == nil {
		return 0, nil, ErrNotCheckedIn
	}

	res, err := s.Reservations.GetByIDTx(ctx, tx, *u.CurrentReservationID)
	if err != nil {
		return 0, nil, err
	}

	now := s.now().UTC().Truncate(time.Second)
	elapsed := now.Sub(res.StartAt)
	if elapsed < 0 {
		elapsed = 0
	}
	seconds := uint64(elapsed / time.Second)

	if err := s.Reservations.CompleteTx(ctx, tx, res.ID, now, seconds); err != nil {
		return 0, nil, err
	}
	if err := s.Users.ClearCurrentReservationTx(ctx, tx, userID, seconds); err != nil {
		return 0, nil, err
	}
	if err := tx.Commit(); err != nil {
		return 0, nil, err
	}
	committed = true

	res.Status = model.StatusCompleted
	res.EndAt = now
	res.ActualSeconds = &seconds
	return elapsed, res, nil
}

// CancelScheduled removes a SCHEDULED reservation owned by the caller.
// Activated reservations are history and cannot be cancelled.
func (s *Service) CancelScheduled(ctx context.Context, userID, reservationID uint64) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.Reservations.GetByIDTx(ctx, tx, reservationID)
	if err != nil {
		return err
	}
	if res.UserID != userID {
		return repository.ErrForbidden
	}
	if res.Status != model.StatusScheduled {
		return repository.ErrConflict
	}
	if err := s.Reservations.DeleteScheduledTx(ctx, tx, reservationID, userID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Occupancy loads the resource list and the open-reservation snapshot
// and projects each resource's live status. Filtering happens at the
// store; the projection itself is the pure DeriveOccupancy.
func (s *Service) Occupancy(ctx context.Context, f repository.ResourceFilter) ([]ResourceView, error) {
	asOf := s.now().UTC()
	resources, err := s.Resources.List(ctx, f)
	if err != nil {
		return nil, err
	}
	reservations, err := s.Reservations.ListActiveAt(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return DeriveOccupancy(resources, reservations, asOf), nil
}

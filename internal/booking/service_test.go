package booking

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/driveloop/bookingd/internal/model"
	"github.com/driveloop/bookingd/internal/repository"
)

func userColumns() []string {
	return []string{"id", "email", "password_hash", "role", "is_active", "current_reservation_id", "total_visits", "total_seconds", "created_at", "updated_at"}
}

func reservationColumns() []string {
	return []string{"id", "resource_id", "user_id", "status", "start_at", "end_at", "actual_seconds", "created_at", "updated_at"}
}

// newTestService wires a Service against a sqlmock database with the
// clock pinned to now.
func newTestService(t *testing.T, now time.Time) (*Service, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	svc := NewService(db,
		repository.NewResourceRepo(db),
		repository.NewReservationRepo(db),
		repository.NewUserRepo(db),
		4*time.Hour, 12*time.Hour)
	svc.now = func() time.Time { return now }
	return svc, mock, func() { _ = db.Close() }
}

func userRow(id uint64, current *uint64, visits, seconds uint64, now time.Time) *sqlmock.Rows {
	var cur interface{}
	if current != nil {
		cur = int64(*current)
	}
	return sqlmock.NewRows(userColumns()).
		AddRow(id, "user@example.com", "$2a$10$hash", model.RoleMember, true, cur, visits, seconds, now, now)
}

func reservationRow(id, resourceID, userID uint64, status string, start, end time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(reservationColumns()).
		AddRow(id, resourceID, userID, status, start, end, nil, start, start)
}

func resourceRow(id uint64, name string, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "kind", "zone", "floor", "is_active", "created_at", "updated_at"}).
		AddRow(id, name, model.KindTable, nil, nil, true, now, now)
}

func TestCheckAvailabilityBoundary(t *testing.T) {
	// Existing reservation [10:00, 18:00): a candidate starting inside
	// conflicts, one starting exactly at the end does not.
	now := mustTime(t, "2026-03-01T09:00:00Z")
	svc, mock, done := newTestService(t, now)
	defer done()

	existingStart := mustTime(t, "2026-03-01T10:00:00Z")
	existingEnd := mustTime(t, "2026-03-01T18:00:00Z")

	overlapping := NewInterval(mustTime(t, "2026-03-01T17:00:00Z"), mustTime(t, "2026-03-01T19:00:00Z"))
	mock.ExpectQuery("FROM resources WHERE id = .").
		WithArgs(uint64(1)).
		WillReturnRows(resourceRow(1, "desk-a", now))
	mock.ExpectQuery("FROM reservations").
		WithArgs(uint64(1), overlapping.End, overlapping.Start).
		WillReturnRows(reservationRow(10, 1, 2, model.StatusActive, existingStart, existingEnd))

	av, err := svc.CheckAvailability(context.Background(), 1, overlapping)
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if av.Available || len(av.Conflicts) != 1 || av.Conflicts[0].ID != 10 {
		t.Fatalf("17:00-19:00 must conflict with reservation 10, got %+v", av)
	}

	touching := NewInterval(existingEnd, mustTime(t, "2026-03-01T20:00:00Z"))
	mock.ExpectQuery("FROM resources WHERE id = .").
		WithArgs(uint64(1)).
		WillReturnRows(resourceRow(1, "desk-a", now))
	mock.ExpectQuery("FROM reservations").
		WithArgs(uint64(1), touching.End, touching.Start).
		WillReturnRows(sqlmock.NewRows(reservationColumns()))

	av, err = svc.CheckAvailability(context.Background(), 1, touching)
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if !av.Available || len(av.Conflicts) != 0 {
		t.Fatalf("18:00-20:00 must be available, got %+v", av)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCheckAvailabilityUnknownResource(t *testing.T) {
	now := mustTime(t, "2026-03-01T09:00:00Z")
	svc, mock, done := newTestService(t, now)
	defer done()

	iv := NewInterval(now, now.Add(time.Hour))
	mock.ExpectQuery("FROM resources WHERE id = .").
		WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "kind", "zone", "floor", "is_active", "created_at", "updated_at"}))

	if _, err := svc.CheckAvailability(context.Background(), 404, iv); !errors.Is(err, repository.ErrResourceNotFound) {
		t.Fatalf("got %v, want ErrResourceNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCheckInInvalidDuration(t *testing.T) {
	now := mustTime(t, "2026-03-01T09:00:00Z")
	svc, mock, done := newTestService(t, now)
	defer done()

	if _, err := svc.CheckIn(context.Background(), 1, 5, -time.Hour); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("negative duration: got %v, want ErrInvalidDuration", err)
	}
	if _, err := svc.CheckIn(context.Background(), 1, 5, 13*time.Hour); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("over max: got %v, want ErrInvalidDuration", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("validation must not touch the store: %v", err)
	}
}

func TestCheckInAlreadyCheckedIn(t *testing.T) {
	now := mustTime(t, "2026-03-01T09:00:00Z")
	svc, mock, done := newTestService(t, now)
	defer done()

	current := uint64(7)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE id = . FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(userRow(1, &current, 3, 10800, now))
	mock.ExpectRollback()

	if _, err := svc.CheckIn(context.Background(), 1, 5, 0); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("got %v, want ErrAlreadyCheckedIn", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCheckInConflict(t *testing.T) {
	now := mustTime(t, "2026-03-01T09:00:00Z")
	svc, mock, done := newTestService(t, now)
	defer done()

	other := reservationRow(99, 5, 2, model.StatusActive, now.Add(-time.Hour), now.Add(time.Hour))

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE id = . FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(userRow(1, nil, 0, 0, now))
	mock.ExpectQuery("SELECT id FROM resources WHERE id = . AND is_active = 1 FOR UPDATE").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery("status = 'SCHEDULED' AND start_at").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM reservations").
		WithArgs(uint64(5), now.Add(4*time.Hour), now).
		WillReturnRows(other)
	mock.ExpectRollback()

	_, err := svc.CheckIn(context.Background(), 1, 5, 0)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want *ConflictError", err)
	}
	if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].ID != 99 {
		t.Fatalf("conflicts = %+v, want reservation 99", conflict.Conflicts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCheckInFreshSession(t *testing.T) {
	now := mustTime(t, "2026-03-01T09:00:00Z")
	svc, mock, done := newTestService(t, now)
	defer done()

	end := now.Add(4 * time.Hour) // default session length

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE id = . FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(userRow(1, nil, 0, 0, now))
	mock.ExpectQuery("SELECT id FROM resources WHERE id = . AND is_active = 1 FOR UPDATE").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery("status = 'SCHEDULED' AND start_at").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM reservations").
		WithArgs(uint64(5), end, now).
		WillReturnRows(sqlmock.NewRows(reservationColumns()))
	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(uint64(5), uint64(1), model.StatusActive, now, end).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery("FROM reservations WHERE id = .").
		WithArgs(uint64(42)).
		WillReturnRows(reservationRow(42, 5, 1, model.StatusActive, now, end))
	mock.ExpectExec("UPDATE users SET current_reservation_id = ., total_visits").
		WithArgs(uint64(42), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.CheckIn(context.Background(), 1, 5, 0)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if res.ID != 42 || res.Status != model.StatusActive {
		t.Fatalf("reservation = %+v, want id 42 ACTIVE", res)
	}
	if !res.StartAt.Equal(now) || !res.EndAt.Equal(end) {
		t.Fatalf("window = [%v, %v), want [%v, %v)", res.StartAt, res.EndAt, now, end)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCheckInActivatesScheduled(t *testing.T) {
	now := mustTime(t, "2026-03-01T09:00:00Z")
	svc, mock, done := newTestService(t, now)
	defer done()

	schedStart := now.Add(-30 * time.Minute)
	schedEnd := now.Add(2 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE id = . FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(userRow(1, nil, 0, 0, now))
	mock.ExpectQuery("SELECT id FROM resources WHERE id = . AND is_active = 1 FOR UPDATE").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery("status = 'SCHEDULED' AND start_at").
		WithArgs(uint64(1), uint64(5), now, now).
		WillReturnRows(reservationRow(77, 5, 1, model.StatusScheduled, schedStart, schedEnd))
	mock.ExpectExec("UPDATE reservations SET status = 'ACTIVE'").
		WithArgs(now, uint64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET current_reservation_id = ., total_visits").
		WithArgs(uint64(77), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.CheckIn(context.Background(), 1, 5, 0)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if res.ID != 77 || res.Status != model.StatusActive {
		t.Fatalf("reservation = %+v, want id 77 ACTIVE", res)
	}
	// The start is rebased to the actual check-in instant.
	if !res.StartAt.Equal(now) {
		t.Fatalf("start = %v, want rebased to %v", res.StartAt, now)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCheckOutNotCheckedIn(t *testing.T) {
	now := mustTime(t, "2026-03-01T11:30:00Z")
	svc, mock, done := newTestService(t, now)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE id = . FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(userRow(1, nil, 0, 0, now))
	mock.ExpectRollback()

	if _, _, err := svc.CheckOut(context.Background(), 1); !errors.Is(err, ErrNotCheckedIn) {
		t.Fatalf("got %v, want ErrNotCheckedIn", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCheckOutElapsedAndPointerCleared(t *testing.T) {
	// Checked in at 09:00, checked out at 11:30: 2h30m = 9000 seconds.
	start := mustTime(t, "2026-03-01T09:00:00Z")
	now := mustTime(t, "2026-03-01T11:30:00Z")
	svc, mock, done := newTestService(t, now)
	defer done()

	current := uint64(7)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE id = . FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(userRow(1, &current, 1, 0, now))
	mock.ExpectQuery("FROM reservations WHERE id = .").
		WithArgs(uint64(7)).
		WillReturnRows(reservationRow(7, 5, 1, model.StatusActive, start, start.Add(4*time.Hour)))
	mock.ExpectExec("UPDATE reservations SET status = 'COMPLETED'").
		WithArgs(now, uint64(9000), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET current_reservation_id = NULL").
		WithArgs(uint64(9000), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	elapsed, res, err := svc.CheckOut(context.Background(), 1)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if elapsed != 2*time.Hour+30*time.Minute {
		t.Fatalf("elapsed = %v, want 2h30m", elapsed)
	}
	if res.Status != model.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", res.Status)
	}
	if res.ActualSeconds == nil || *res.ActualSeconds != 9000 {
		t.Fatalf("actual_seconds = %v, want 9000", res.ActualSeconds)
	}
	if !res.EndAt.Equal(now) {
		t.Fatalf("end = %v, want fixed to checkout instant %v", res.EndAt, now)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReserveRejectsConflict(t *testing.T) {
	now := mustTime(t, "2026-03-01T09:00:00Z")
	svc, mock, done := newTestService(t, now)
	defer done()

	iv := NewInterval(now.Add(24*time.Hour), now.Add(26*time.Hour))
	other := reservationRow(99, 5, 2, model.StatusScheduled, iv.Start.Add(-time.Hour), iv.Start.Add(time.Hour))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM resources WHERE id = . AND is_active = 1 FOR UPDATE").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectQuery("FROM reservations").
		WithArgs(uint64(5), iv.End, iv.Start).
		WillReturnRows(other)
	mock.ExpectRollback()

	_, err := svc.Reserve(context.Background(), 1, 5, iv)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want *ConflictError", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReservePastWindowRejected(t *testing.T) {
	now := mustTime(t, "2026-03-01T09:00:00Z")
	svc, mock, done := newTestService(t, now)
	defer done()

	iv := NewInterval(now.Add(-3*time.Hour), now.Add(-time.Hour))
	if _, err := svc.Reserve(context.Background(), 1, 5, iv); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("got %v, want ErrInvalidInterval", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("validation must not touch the store: %v", err)
	}
}

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/driveloop/bookingd/internal/model"
)

var reservationTestCols = []string{"id", "resource_id", "user_id", "status", "start_at", "end_at", "actual_seconds", "created_at", "updated_at"}

func TestListOverlappingArgOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewReservationRepo(db)

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	// Half-open overlap: start_at < candidate end AND end_at > candidate
	// start, so the first placeholder receives the END of the window.
	mock.ExpectQuery("FROM reservations").
		WithArgs(uint64(5), end, start).
		WillReturnRows(sqlmock.NewRows(reservationTestCols).
			AddRow(1, 5, 2, model.StatusActive, start, end, nil, start, start))

	got, err := repo.ListOverlapping(context.Background(), 5, start, end)
	if err != nil {
		t.Fatalf("ListOverlapping: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("got %+v, want one row with id 1", got)
	}
	if got[0].StartAt.Location() != time.UTC {
		t.Fatalf("timestamps must be normalized to UTC")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindScheduledForCheckInNoRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewReservationRepo(db)

	mock.ExpectBegin()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	asOf := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("status = 'SCHEDULED' AND start_at").
		WithArgs(uint64(1), uint64(5), asOf, asOf).
		WillReturnRows(sqlmock.NewRows(reservationTestCols))

	got, err := repo.FindScheduledForCheckInTx(context.Background(), tx, 1, 5, asOf)
	if err != nil {
		t.Fatalf("no matching booking is not an error: %v", err)
	}
	if got != nil {
		t.Fatalf("got %+v, want nil", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestActivateTxRequiresScheduled(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewReservationRepo(db)

	mock.ExpectBegin()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	// Zero rows affected means the row raced out of SCHEDULED.
	mock.ExpectExec("UPDATE reservations SET status = 'ACTIVE'").
		WithArgs(now, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.ActivateTx(context.Background(), tx, 7, now); !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteScheduledTxOwnershipGuard(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewReservationRepo(db)

	mock.ExpectBegin()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	mock.ExpectExec("DELETE FROM reservations WHERE id = . AND user_id = . AND status = 'SCHEDULED'").
		WithArgs(uint64(7), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteScheduledTx(context.Background(), tx, 7, 2); !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

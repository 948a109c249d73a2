package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/driveloop/bookingd/internal/model"
)

// ReservationRepo provides data access to the `reservations` table.
// All timestamps are stored and compared in UTC. Methods with a *Tx
// suffix run inside a caller-supplied transaction; the caller owns the
// commit/rollback decision.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = "id, resource_id, user_id, status, start_at, end_at, actual_seconds, created_at, updated_at"

func scanReservation(row interface{ Scan(...interface{}) error }, r *model.Reservation) error {
	var actual sql.NullInt64
	if err := row.Scan(&r.ID, &r.ResourceID, &r.UserID, &r.Status, &r.StartAt, &r.EndAt, &actual, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return err
	}
	if actual.Valid {
		secs := uint64(actual.Int64)
		r.ActualSeconds = &secs
	}
	r.StartAt = r.StartAt.UTC()
	r.EndAt = r.EndAt.UTC()
	return nil
}

func collectReservations(rows *sql.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var r model.Reservation
		if err := scanReservation(rows, &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

const overlapWhere = ` FROM reservations
	WHERE resource_id = ? AND status IN ('SCHEDULED','ACTIVE') AND start_at < ? AND end_at > ?
	ORDER BY start_at`

// ListOverlapping returns every open reservation for the resource whose
// window overlaps [start, end). Half-open semantics: rows that merely
// touch a boundary are not returned. Read-only; used by the
// availability check.
func (r *ReservationRepo) ListOverlapping(ctx context.Context, resourceID uint64, start, end time.Time) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reservationColumns+overlapWhere, resourceID, end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// ListOverlappingTx is ListOverlapping inside a transaction. The caller
// must hold the resource row lock so the result stays true until commit.
func (r *ReservationRepo) ListOverlappingTx(ctx context.Context, tx *sql.Tx, resourceID uint64, start, end time.Time) ([]model.Reservation, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+reservationColumns+overlapWhere, resourceID, end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// CreateTx inserts a new reservation and reads the row back to populate
// generated id, defaults and timestamps.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (resource_id, user_id, status, start_at, end_at) VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.ResourceID, res.UserID, res.Status, res.StartAt.UTC(), res.EndAt.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	const sel = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	return scanReservation(tx.QueryRowContext(ctx, sel, res.ID), res)
}

// GetByIDTx loads a reservation by id inside a transaction. It returns
// ErrReservationNotFound when no row exists.
func (r *ReservationRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	var res model.Reservation
	if err := scanReservation(tx.QueryRowContext(ctx, q, id), &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// GetByID is GetByIDTx outside a transaction.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	var res model.Reservation
	if err := scanReservation(r.db.QueryRowContext(ctx, q, id), &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// FindScheduledForCheckInTx returns the user's SCHEDULED reservation on
// the resource whose window contains asOf, or nil when there is none.
// Used by check-in to activate a prior booking instead of opening a
// second overlapping record.
func (r *ReservationRepo) FindScheduledForCheckInTx(ctx context.Context, tx *sql.Tx, userID, resourceID uint64, asOf time.Time) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE user_id = ? AND resource_id = ? AND status = 'SCHEDULED' AND start_at <= ? AND end_at > ?
	           ORDER BY start_at LIMIT 1`
	var res model.Reservation
	err := scanReservation(tx.QueryRowContext(ctx, q, userID, resourceID, asOf.UTC(), asOf.UTC()), &res)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ActivateTx moves a SCHEDULED reservation to ACTIVE and rebases its
// start to the actual check-in instant. Returns ErrConflict when the
// row is no longer SCHEDULED.
func (r *ReservationRepo) ActivateTx(ctx context.Context, tx *sql.Tx, id uint64, startAt time.Time) error {
	const q = `UPDATE reservations SET status = 'ACTIVE', start_at = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = 'SCHEDULED'`
	result, err := tx.ExecContext(ctx, q, startAt.UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// CompleteTx closes an ACTIVE reservation: status COMPLETED, end fixed
// to the checkout instant and actual_seconds written exactly once.
// Returns ErrConflict when the row is not ACTIVE.
func (r *ReservationRepo) CompleteTx(ctx context.Context, tx *sql.Tx, id uint64, endAt time.Time, actualSeconds uint64) error {
	const q = `UPDATE reservations SET status = 'COMPLETED', end_at = ?, actual_seconds = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = 'ACTIVE'`
	result, err := tx.ExecContext(ctx, q, endAt.UTC(), actualSeconds, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// DeleteScheduledTx removes a SCHEDULED reservation owned by the user.
// Activated reservations are history and are never deleted; for those
// the method reports ErrConflict via zero rows affected.
func (r *ReservationRepo) DeleteScheduledTx(ctx context.Context, tx *sql.Tx, id, userID uint64) error {
	const q = `DELETE FROM reservations WHERE id = ? AND user_id = ? AND status = 'SCHEDULED'`
	result, err := tx.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// ListActiveAt returns the snapshot of open reservations whose window
// contains asOf, across all resources. Feeds the occupancy projection.
func (r *ReservationRepo) ListActiveAt(ctx context.Context, asOf time.Time) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations
	           WHERE status IN ('SCHEDULED','ACTIVE') AND start_at <= ? AND end_at > ?
	           ORDER BY start_at`
	rows, err := r.db.QueryContext(ctx, q, asOf.UTC(), asOf.UTC())
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// ListByUser returns the user's reservations newest first, optionally
// restricted to one status. Used for session history.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64, status string) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ?`
	args := []interface{}{userID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY start_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// ListByResource returns all reservations for a resource newest first.
// Admin-only view.
func (r *ReservationRepo) ListByResource(ctx context.Context, resourceID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE resource_id = ? ORDER BY start_at DESC`
	rows, err := r.db.QueryContext(ctx, q, resourceID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/driveloop/bookingd/internal/model"
	"github.com/driveloop/bookingd/internal/utils"
)

// UserRepo provides access to the `users` table, including the
// denormalized current-booking pointer and the cumulative usage
// counters rolled forward at checkout.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, email, password_hash, role, is_active, current_reservation_id, total_visits, total_seconds, created_at, updated_at"

func scanUser(row interface{ Scan(...interface{}) error }, u *model.User) error {
	var current sql.NullInt64
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &current, &u.TotalVisits, &u.TotalSeconds, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}
	if current.Valid {
		id := uint64(current.Int64)
		u.CurrentReservationID = &id
	}
	return nil
}

// Create inserts a user with a bcrypt-hashed password and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetForUpdateTx loads a user inside a transaction with a row lock.
// The pointer is single-writer per user, but the lock guarantees
// read-your-write consistency between the pointer check and the
// reservation write that follows it.
func (r *UserRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.User, error) {
	var u model.User
	err := scanUser(tx.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? FOR UPDATE", id), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetCurrentReservationTx points the user at their new in-progress
// reservation and counts the visit. The IS NULL guard keeps the pointer
// invariant even if a caller skipped the preceding locked read.
func (r *UserRepo) SetCurrentReservationTx(ctx context.Context, tx *sql.Tx, userID, reservationID uint64) error {
	const q = `UPDATE users SET current_reservation_id = ?, total_visits = total_visits + 1, updated_at = UTC_TIMESTAMP()
	           WHERE id = ? AND current_reservation_id IS NULL`
	result, err := tx.ExecContext(ctx, q, reservationID, userID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// ClearCurrentReservationTx clears the pointer and folds the completed
// session's length into the cumulative usage counter.
func (r *UserRepo) ClearCurrentReservationTx(ctx context.Context, tx *sql.Tx, userID, addSeconds uint64) error {
	const q = `UPDATE users SET current_reservation_id = NULL, total_seconds = total_seconds + ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ? AND current_reservation_id IS NOT NULL`
	result, err := tx.ExecContext(ctx, q, addSeconds, userID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

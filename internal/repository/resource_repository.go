package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/driveloop/bookingd/internal/model"
)

// ResourceRepo provides CRUD access to the `resources` table. A
// resource is never physically deleted once it has reservation history;
// admins deactivate it instead so old bookings keep a valid parent.
type ResourceRepo struct {
	db *sql.DB
}

// NewResourceRepo returns a ResourceRepo bound to the given database.
func NewResourceRepo(db *sql.DB) *ResourceRepo { return &ResourceRepo{db: db} }

const resourceColumns = "id, name, kind, zone, floor, is_active, created_at, updated_at"

func scanResource(row interface{ Scan(...interface{}) error }, r *model.Resource) error {
	var zone, floor sql.NullString
	if err := row.Scan(&r.ID, &r.Name, &r.Kind, &zone, &floor, &r.IsActive, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return err
	}
	if zone.Valid {
		z := zone.String
		r.Zone = &z
	}
	if floor.Valid {
		f := floor.String
		r.Floor = &f
	}
	return nil
}

// Create inserts a new resource and reads the row back so defaults and
// timestamps are populated on the provided struct. A duplicate name is
// reported as ErrConflict.
func (r *ResourceRepo) Create(ctx context.Context, res *model.Resource) error {
	const q = `INSERT INTO resources (name, kind, zone, floor) VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, res.Name, res.Kind, res.Zone, res.Floor)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	const sel = `SELECT ` + resourceColumns + ` FROM resources WHERE id = ?`
	return scanResource(r.db.QueryRowContext(ctx, sel, res.ID), res)
}

// GetByID retrieves a resource by id. It returns ErrResourceNotFound
// when no row exists.
func (r *ResourceRepo) GetByID(ctx context.Context, id uint64) (*model.Resource, error) {
	const q = `SELECT ` + resourceColumns + ` FROM resources WHERE id = ?`
	var res model.Resource
	if err := scanResource(r.db.QueryRowContext(ctx, q, id), &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return &res, nil
}

// LockByIDTx takes a row lock on an active resource inside the given
// transaction. Every conflict-check-then-write path locks the resource
// row first, which serializes concurrent check-ins per resource and
// makes double-booking unreachable. ErrResourceNotFound is returned
// when the resource does not exist or has been deactivated.
func (r *ResourceRepo) LockByIDTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `SELECT id FROM resources WHERE id = ? AND is_active = 1 FOR UPDATE`
	var got uint64
	if err := tx.QueryRowContext(ctx, q, id).Scan(&got); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrResourceNotFound
		}
		return err
	}
	return nil
}

// ResourceFilter narrows List results. Zero values mean "no filter".
type ResourceFilter struct {
	Kind       string
	Zone       string
	Floor      string
	ActiveOnly bool
}

// List returns resources matching the filter ordered by name. An empty
// filter returns every resource.
func (r *ResourceRepo) List(ctx context.Context, f ResourceFilter) ([]model.Resource, error) {
	q := `SELECT ` + resourceColumns + ` FROM resources WHERE 1=1`
	args := make([]interface{}, 0, 4)
	if f.Kind != "" {
		q += ` AND kind = ?`
		args = append(args, f.Kind)
	}
	if f.Zone != "" {
		q += ` AND zone = ?`
		args = append(args, f.Zone)
	}
	if f.Floor != "" {
		q += ` AND floor = ?`
		args = append(args, f.Floor)
	}
	if f.ActiveOnly {
		q += ` AND is_active = 1`
	}
	q += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Resource, 0)
	for rows.Next() {
		var res model.Resource
		if err := scanResource(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the mutable columns of a resource. It returns
// ErrResourceNotFound when the id references no row.
func (r *ResourceRepo) Update(ctx context.Context, res *model.Resource) error {
	const q = `UPDATE resources
	           SET name = ?, kind = ?, zone = ?, floor = ?, is_active = ?, updated_at = UTC_TIMESTAMP()
	           WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, res.Name, res.Kind, res.Zone, res.Floor, res.IsActive, res.ID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		// Either the row is missing or nothing changed; distinguish.
		if _, err := r.GetByID(ctx, res.ID); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate soft-deletes a resource so new bookings are rejected while
// reservation history stays intact.
func (r *ResourceRepo) Deactivate(ctx context.Context, id uint64) error {
	const q = `UPDATE resources SET is_active = 0, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	result, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

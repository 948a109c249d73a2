package model

import "time"

// User roles accepted in the JWT "role" claim.
const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

// User represents an application user as stored in the `users` table.
// CurrentReservationID is a denormalized pointer to the user's
// in-progress reservation so "am I checked in" is a single row read;
// it is non-nil exactly when the user has one ACTIVE reservation.
// TotalVisits and TotalSeconds accumulate across completed sessions and
// are only ever rolled forward at checkout.
type User struct {
	ID                   uint64    // users.id
	Email                string    // users.email
	PasswordHash         string    // users.password_hash
	Role                 string    // users.role
	IsActive             bool      // users.is_active
	CurrentReservationID *uint64   // users.current_reservation_id (nullable)
	TotalVisits          uint32    // users.total_visits
	TotalSeconds         uint64    // users.total_seconds
	CreatedAt            time.Time // users.created_at
	UpdatedAt            time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the raw token is persisted.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Package handler defines the HTTP handlers. Handlers translate the
// booking core's typed errors into status codes and JSON bodies; the
// core itself never formats presentation strings.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/driveloop/bookingd/internal/booking"
	"github.com/driveloop/bookingd/internal/model"
	"github.com/driveloop/bookingd/internal/repository"
)

// getUserID extracts the user_id placed in context by JWTAuth and
// converts it to uint64. JWT claims decode numerics as float64.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// reservationResp is the wire shape of a reservation.
type reservationResp struct {
	ID              uint64  `json:"id"`
	ResourceID      uint64  `json:"resource_id"`
	UserID          uint64  `json:"user_id"`
	Status          string  `json:"status"`
	StartAt         string  `json:"start_at"`
	EndAt           string  `json:"end_at"`
	DurationSeconds *uint64 `json:"duration_seconds,omitempty"`
}

func toReservationResp(r model.Reservation) reservationResp {
	return reservationResp{
		ID:              r.ID,
		ResourceID:      r.ResourceID,
		UserID:          r.UserID,
		Status:          r.Status,
		StartAt:         r.StartAt.UTC().Format(time.RFC3339),
		EndAt:           r.EndAt.UTC().Format(time.RFC3339),
		DurationSeconds: r.ActualSeconds,
	}
}

func toReservationResps(rs []model.Reservation) []reservationResp {
	out := make([]reservationResp, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationResp(r))
	}
	return out
}

// resourceResp is the wire shape of a resource.
type resourceResp struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Zone     *string `json:"zone,omitempty"`
	Floor    *string `json:"floor,omitempty"`
	IsActive bool    `json:"is_active"`
}

func toResourceResp(r model.Resource) resourceResp {
	return resourceResp{ID: r.ID, Name: r.Name, Kind: r.Kind, Zone: r.Zone, Floor: r.Floor, IsActive: r.IsActive}
}

// writeBookingError maps the core's error taxonomy onto HTTP. Conflict
// responses carry the conflicting reservations so clients can explain
// the rejection. Anything unrecognized is a store-level failure and
// surfaces as 503 without partial state (the core rolled back).
func writeBookingError(c echo.Context, err error) error {
	var conflict *booking.ConflictError
	switch {
	case errors.Is(err, booking.ErrInvalidInterval), errors.Is(err, booking.ErrInvalidDuration):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrResourceNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrAlreadyCheckedIn), errors.Is(err, booking.ErrNotCheckedIn):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "resource unavailable",
			"conflicts": toReservationResps(conflict.Conflicts),
		})
	}
	return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
}

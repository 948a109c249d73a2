package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/driveloop/bookingd/internal/booking"
	"github.com/driveloop/bookingd/internal/cache"
	"github.com/driveloop/bookingd/internal/model"
	"github.com/driveloop/bookingd/internal/queue"
	"github.com/driveloop/bookingd/internal/repository"
	queue_publisher "github.com/driveloop/bookingd/internal/service"
)

// BookingHandler exposes the reservation lifecycle over HTTP. Every
// write goes through booking.Service (one transaction per operation);
// after a successful write the occupancy cache is invalidated and, for
// check-in/check-out, a session event is published.
type BookingHandler struct {
	Svc          *booking.Service
	Resources    *repository.ResourceRepo
	Reservations *repository.ReservationRepo
	Users        *repository.UserRepo
	Cache        *cache.OccupancyCache
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc *booking.Service, res *repository.ResourceRepo, rev *repository.ReservationRepo, users *repository.UserRepo, oc *cache.OccupancyCache) *BookingHandler {
	return &BookingHandler{Svc: svc, Resources: res, Reservations: rev, Users: users, Cache: oc}
}

type windowReq struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

type checkInReq struct {
	// DurationMinutes is optional; zero means the configured default.
	DurationMinutes int `json:"duration_minutes"`
}

// paramID parses the :id path parameter.
func paramID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// CheckAvailability handles POST /v1/resources/:id/availability. It is
// a pure read: the answer is advisory and may be stale by the time the
// client acts on it, which is why reserve/check-in re-check inside
// their transactions.
func (h *BookingHandler) CheckAvailability(c echo.Context) error {
	resourceID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	var req windowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	iv := booking.NewInterval(req.StartAt, req.EndAt)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	av, err := h.Svc.CheckAvailability(ctx, resourceID, iv)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"available": av.Available,
		"conflicts": toReservationResps(av.Conflicts),
	})
}

// Reserve handles POST /v1/resources/:id/reservations and creates a
// SCHEDULED booking for a future window.
func (h *BookingHandler) Reserve(c echo.Context) error {
	resourceID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req windowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	iv := booking.NewInterval(req.StartAt, req.EndAt)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Reserve(ctx, userID, resourceID, iv)
	if err != nil {
		return writeBookingError(c, err)
	}
	h.Cache.Invalidate(ctx)
	return c.JSON(http.StatusCreated, toReservationResp(*res))
}

// CheckIn handles POST /v1/resources/:id/check-in. It opens a session
// immediately, either by activating the caller's scheduled booking or
// by creating a fresh one for [now, now+duration).
func (h *BookingHandler) CheckIn(c echo.Context) error {
	resourceID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req checkInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.CheckIn(ctx, userID, resourceID, time.Duration(req.DurationMinutes)*time.Minute)
	if err != nil {
		return writeBookingError(c, err)
	}
	h.Cache.Invalidate(ctx)
	h.publishOpened(ctx, res)
	return c.JSON(http.StatusCreated, toReservationResp(*res))
}

// CheckOut handles POST /v1/check-out. No resource id is needed: the
// user's current-booking pointer identifies the open session.
func (h *BookingHandler) CheckOut(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	elapsed, res, err := h.Svc.CheckOut(ctx, userID)
	if err != nil {
		return writeBookingError(c, err)
	}
	h.Cache.Invalidate(ctx)
	h.publishClosed(ctx, res, elapsed)
	return c.JSON(http.StatusOK, echo.Map{
		"reservation":      toReservationResp(*res),
		"duration_seconds": uint64(elapsed / time.Second),
	})
}

// CurrentSession handles GET /v1/me/session and returns the caller's
// open session, or 404 when none is open.
func (h *BookingHandler) CurrentSession(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return writeBookingError(c, err)
	}
	if u.CurrentReservationID == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no open session"})
	}
	res, err := h.Reservations.GetByID(ctx, *u.CurrentReservationID)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(*res))
}

// ListSessions handles GET /v1/me/sessions. An optional ?status= query
// narrows the result to SCHEDULED, ACTIVE or COMPLETED.
func (h *BookingHandler) ListSessions(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	status := c.QueryParam("status")
	switch status {
	case "", model.StatusScheduled, model.StatusActive, model.StatusCompleted:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByUser(ctx, userID, status)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": toReservationResps(list)})
}

// Stats handles GET /v1/me/stats and returns the rolled-up usage
// counters maintained at check-out.
func (h *BookingHandler) Stats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_visits":   u.TotalVisits,
		"total_seconds":  u.TotalSeconds,
		"checked_in_now": u.CurrentReservationID != nil,
	})
}

// CancelReservation handles DELETE /v1/reservations/:id. Only the
// owner's SCHEDULED bookings can be cancelled.
func (h *BookingHandler) CancelReservation(c echo.Context) error {
	reservationID, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.CancelScheduled(ctx, userID, reservationID); err != nil {
		return writeBookingError(c, err)
	}
	h.Cache.Invalidate(ctx)
	return c.NoContent(http.StatusNoContent)
}

// publishOpened sends a session.opened event. Publish failures only
// log; the session is already committed.
func (h *BookingHandler) publishOpened(ctx context.Context, res *model.Reservation) {
	ev := queue.SessionOpenedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		ResourceID:    res.ResourceID,
		StartsAt:      res.StartAt.UTC().Format(time.RFC3339),
		EndsAt:        res.EndAt.UTC().Format(time.RFC3339),
	}
	h.decorateResource(ctx, res.ResourceID, &ev.ResourceName, &ev.Kind, &ev.Zone)
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishSessionOpened(pctx, ev)
	}()
}

// publishClosed sends a session.closed event.
func (h *BookingHandler) publishClosed(ctx context.Context, res *model.Reservation, elapsed time.Duration) {
	ev := queue.SessionClosedEvent{
		ReservationID:   res.ID,
		UserID:          res.UserID,
		ResourceID:      res.ResourceID,
		DurationSeconds: uint64(elapsed / time.Second),
		ClosedAt:        res.EndAt.UTC().Format(time.RFC3339),
	}
	h.decorateResource(ctx, res.ResourceID, &ev.ResourceName, &ev.Kind, &ev.Zone)
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishSessionClosed(pctx, ev)
	}()
}

// decorateResource fills resource display fields on an event, best
// effort. A failed lookup leaves them blank rather than failing the
// request.
func (h *BookingHandler) decorateResource(ctx context.Context, id uint64, name, kind, zone *string) {
	r, err := h.Resources.GetByID(ctx, id)
	if err != nil {
		return
	}
	*name = r.Name
	*kind = r.Kind
	if r.Zone != nil {
		*zone = *r.Zone
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/driveloop/bookingd/internal/cache"
	"github.com/driveloop/bookingd/internal/model"
	"github.com/driveloop/bookingd/internal/repository"
)

// AdminResourceHandler manages the resource catalog. Admin-only;
// resources with history are deactivated, never deleted.
type AdminResourceHandler struct {
	Resources    *repository.ResourceRepo
	Reservations *repository.ReservationRepo
	Cache        *cache.OccupancyCache
}

// NewAdminResourceHandler constructs an AdminResourceHandler.
func NewAdminResourceHandler(res *repository.ResourceRepo, rev *repository.ReservationRepo, oc *cache.OccupancyCache) *AdminResourceHandler {
	return &AdminResourceHandler{Resources: res, Reservations: rev, Cache: oc}
}

type resourceReq struct {
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Zone     *string `json:"zone"`
	Floor    *string `json:"floor"`
	IsActive *bool   `json:"is_active"`
}

func normalizeKind(kind string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(kind)) {
	case model.KindTable:
		return model.KindTable, true
	case model.KindVehicle:
		return model.KindVehicle, true
	}
	return "", false
}

// Create handles POST /v1/admin/resources.
func (h *AdminResourceHandler) Create(c echo.Context) error {
	var req resourceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	kind, ok := normalizeKind(req.Kind)
	if req.Name == "" || !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and kind (TABLE|VEHICLE) required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res := &model.Resource{Name: req.Name, Kind: kind, Zone: req.Zone, Floor: req.Floor}
	if err := h.Resources.Create(ctx, res); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "resource name already exists"})
		}
		return writeBookingError(c, err)
	}
	h.Cache.Invalidate(ctx)
	return c.JSON(http.StatusCreated, toResourceResp(*res))
}

// List handles GET /v1/admin/resources with optional kind/zone/floor
// filters. Unlike the public board, inactive resources are included.
func (h *AdminResourceHandler) List(c echo.Context) error {
	f := repository.ResourceFilter{
		Kind:  c.QueryParam("kind"),
		Zone:  c.QueryParam("zone"),
		Floor: c.QueryParam("floor"),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Resources.List(ctx, f)
	if err != nil {
		return writeBookingError(c, err)
	}
	out := make([]resourceResp, 0, len(list))
	for _, r := range list {
		out = append(out, toResourceResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"resources": out})
}

// Get handles GET /v1/admin/resources/:id.
func (h *AdminResourceHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Resources.GetByID(ctx, id)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, toResourceResp(*res))
}

// Update handles PUT /v1/admin/resources/:id. Omitted is_active keeps
// the current flag.
func (h *AdminResourceHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	var req resourceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	kind, ok := normalizeKind(req.Kind)
	if req.Name == "" || !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and kind (TABLE|VEHICLE) required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Resources.GetByID(ctx, id)
	if err != nil {
		return writeBookingError(c, err)
	}
	res.Name = req.Name
	res.Kind = kind
	res.Zone = req.Zone
	res.Floor = req.Floor
	if req.IsActive != nil {
		res.IsActive = *req.IsActive
	}
	if err := h.Resources.Update(ctx, res); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "resource name already exists"})
		}
		return writeBookingError(c, err)
	}
	h.Cache.Invalidate(ctx)
	return c.JSON(http.StatusOK, toResourceResp(*res))
}

// Deactivate handles DELETE /v1/admin/resources/:id. The row survives
// so reservation history keeps a valid parent; new bookings against it
// fail the active-resource lock.
func (h *AdminResourceHandler) Deactivate(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Resources.Deactivate(ctx, id); err != nil {
		return writeBookingError(c, err)
	}
	h.Cache.Invalidate(ctx)
	return c.NoContent(http.StatusNoContent)
}

// ListReservations handles GET /v1/admin/resources/:id/reservations
// and returns a resource's full booking history.
func (h *AdminResourceHandler) ListReservations(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Resources.GetByID(ctx, id); err != nil {
		return writeBookingError(c, err)
	}
	list, err := h.Reservations.ListByResource(ctx, id)
	if err != nil {
		return writeBookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": toReservationResps(list)})
}

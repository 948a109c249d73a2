package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/driveloop/bookingd/internal/booking"
	"github.com/driveloop/bookingd/internal/cache"
	"github.com/driveloop/bookingd/internal/repository"
)

// OccupancyHandler serves the live occupancy board. Reads go through
// the cache; the projection itself is derived fresh from the store on
// a miss. Availability checks never come through here.
type OccupancyHandler struct {
	Svc   *booking.Service
	Cache *cache.OccupancyCache
}

// NewOccupancyHandler constructs an OccupancyHandler.
func NewOccupancyHandler(svc *booking.Service, oc *cache.OccupancyCache) *OccupancyHandler {
	return &OccupancyHandler{Svc: svc, Cache: oc}
}

// occupancyEntry is the wire shape of one board row.
type occupancyEntry struct {
	Resource  resourceResp     `json:"resource"`
	Status    string           `json:"status"`
	Occupying *reservationResp `json:"occupying,omitempty"`
}

type occupancyResp struct {
	AsOf      string           `json:"as_of"`
	Resources []occupancyEntry `json:"resources"`
}

// Board handles GET /v1/occupancy. Optional query params kind, zone and
// floor narrow the board; inactive resources are always excluded.
func (h *OccupancyHandler) Board(c echo.Context) error {
	f := repository.ResourceFilter{
		Kind:       c.QueryParam("kind"),
		Zone:       c.QueryParam("zone"),
		Floor:      c.QueryParam("floor"),
		ActiveOnly: true,
	}
	filterKey := fmt.Sprintf("kind=%s&zone=%s&floor=%s", f.Kind, f.Zone, f.Floor)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var cached occupancyResp
	if h.Cache.Get(ctx, filterKey, &cached) {
		return c.JSON(http.StatusOK, cached)
	}

	views, err := h.Svc.Occupancy(ctx, f)
	if err != nil {
		return writeBookingError(c, err)
	}

	resp := occupancyResp{
		AsOf:      time.Now().UTC().Format(time.RFC3339),
		Resources: make([]occupancyEntry, 0, len(views)),
	}
	for _, v := range views {
		entry := occupancyEntry{Resource: toResourceResp(v.Resource), Status: v.Status}
		if v.Occupying != nil {
			r := toReservationResp(*v.Occupying)
			entry.Occupying = &r
		}
		resp.Resources = append(resp.Resources, entry)
	}

	h.Cache.Set(ctx, filterKey, resp)
	return c.JSON(http.StatusOK, resp)
}

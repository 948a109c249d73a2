package booking

import (
	"time"

	"github.com/driveloop/bookingd/internal/model"
)

// Occupancy states derived for a resource at a point in time.
const (
	OccupancyAvailable = "AVAILABLE"
	OccupancyOccupied  = "OCCUPIED"
)

// ResourceView decorates a resource with its live occupancy status and
// the reservation occupying it, if any. It is the read-side projection
// rendered by the occupancy board.
type ResourceView struct {
	Resource  model.Resource
	Status    string
	Occupying *model.Reservation
}

// DeriveOccupancy computes each resource's status at asOf from a
// snapshot of open reservations. It is a pure function: the caller
// supplies both lists and no storage is consulted, which keeps the
// projection testable without a database.
//
// A resource is OCCUPIED iff an open (SCHEDULED or ACTIVE) reservation
// window contains asOf. Should more than one reservation match — a
// state the transactional write path makes unreachable — the one with
// the earliest start is reported.
func DeriveOccupancy(resources []model.Resource, reservations []model.Reservation, asOf time.Time) []ResourceView {
	asOf = asOf.UTC()

	// Earliest-start occupant per resource.
	occupying := make(map[uint64]*model.Reservation, len(reservations))
	for i := range reservations {
		r := &reservations[i]
		if !r.Open() {
			continue
		}
		if !NewInterval(r.StartAt, r.EndAt).Contains(asOf) {
			continue
		}
		cur, ok := occupying[r.ResourceID]
		if !ok || r.StartAt.Before(cur.StartAt) {
			occupying[r.ResourceID] = r
		}
	}

	views := make([]ResourceView, 0, len(resources))
	for _, res := range resources {
		v := ResourceView{Resource: res, Status: OccupancyAvailable}
		if occ, ok := occupying[res.ID]; ok {
			v.Status = OccupancyOccupied
			v.Occupying = occ
		}
		views = append(views, v)
	}
	return views
}

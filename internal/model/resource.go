package model

import "time"

// Resource kinds. DeskTime books TABLE resources, DriveLoop books
// VEHICLE resources; the booking logic never branches on the kind.
const (
	KindTable   = "TABLE"
	KindVehicle = "VEHICLE"
)

// Resource is a bookable unit: a table/desk in a study space or a
// vehicle in a rental zone. Zone and Floor are grouping attributes used
// only for filtering; they play no part in availability decisions.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique human readable label (e.g. "T-014", "VW Golf 3").
//  Kind      – TABLE or VEHICLE.
//  Zone      – optional room/zone label.
//  Floor     – optional floor/location label.
//  IsActive  – whether the resource can currently be booked.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Resource struct {
	ID        uint64    // resources.id
	Name      string    // resources.name
	Kind      string    // resources.kind
	Zone      *string   // resources.zone (nullable)
	Floor     *string   // resources.floor (nullable)
	IsActive  bool      // resources.is_active
	CreatedAt time.Time // resources.created_at
	UpdatedAt time.Time // resources.updated_at
}

package model

import "time"

// Seat availability statuses as stored in seats.status.  BLOCKED is
// set by owners for seats under maintenance; blocked seats are never
// bookable and a blocked delta evicts any local selection on the
// client side.
const (
	SeatAvailable = "AVAILABLE"
	SeatOccupied  = "OCCUPIED"
	SeatBlocked   = "BLOCKED"
)

// Seat zone categories.  Zones carry optional price overrides on a
// fee plan; the zone name here must match the zonePricing key.
const (
	ZoneAC      = "ac"
	ZoneNonAC   = "nonAc"
	ZonePremium = "premium"
	ZoneQuiet   = "quiet"
	ZoneGeneral = "general"
)

// Seat describes a physical seat in a library.  Seats are uniquely
// identified by their library, zone and label (e.g. "A12").
//
// Fields:
//  ID        – primary key identifier.
//  LibraryID – library to which this seat belongs.
//  Zone      – zone category (ac, nonAc, premium, quiet, general).
//  Label     – human readable label within the library.
//  Status    – availability status (AVAILABLE, OCCUPIED, BLOCKED).
//  IsActive  – whether the seat is offered at all.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Seat struct {
	ID        uint64    // seats.id
	LibraryID uint64    // seats.library_id
	Zone      string    // seats.zone
	Label     string    // seats.label
	Status    string    // seats.status
	IsActive  bool      // seats.is_active
	CreatedAt time.Time // seats.created_at
	UpdatedAt time.Time // seats.updated_at
}

// ValidZone reports whether the given zone name is one of the known
// zone categories.
func ValidZone(zone string) bool {
	switch zone {
	case ZoneAC, ZoneNonAC, ZonePremium, ZoneQuiet, ZoneGeneral:
		return true
	}
	return false
}

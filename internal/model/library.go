package model

import "time"

// Library represents a study library venue owned by a user.  A
// library contains seats grouped into zones and offers one or more
// fee plans.  This struct corresponds to a row in the `libraries`
// table.
//
// Fields:
//  ID         – primary key identifier.
//  OwnerID    – user ID of the library owner.
//  Name       – unique name of the library per owner.
//  City       – city where the library is located.
//  Address    – street address shown to students.
//  TotalSeats     – number of active seats across all zones (derived).
//  AvailableSeats – number of active AVAILABLE seats (derived).
//  CreatedAt      – timestamp when the library was created.
//  UpdatedAt      – timestamp of last update.
type Library struct {
	ID             uint64    // libraries.id
	OwnerID        uint64    // libraries.owner_id
	Name           string    // libraries.name
	City           string    // libraries.city
	Address        string    // libraries.address
	TotalSeats     uint32    // derived from seats
	AvailableSeats uint32    // derived from seats
	CreatedAt      time.Time // libraries.created_at
	UpdatedAt      time.Time // libraries.updated_at
}

// Community represents a discussion group attached to a library.
// Students join a community to receive announcements and chat
// messages over the realtime channel.
//
// Fields:
//  ID        – primary key identifier.
//  LibraryID – library this community belongs to.
//  Name      – display name of the community.
//  CreatedAt – creation timestamp.
type Community struct {
	ID        uint64    // communities.id
	LibraryID uint64    // communities.library_id
	Name      string    // communities.name
	CreatedAt time.Time // communities.created_at
}

// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as handlers to distinguish between failure scenarios: for
// example, ErrForbidden indicates that the current user is not
// authorized to operate on a resource owned by someone else, while
// ErrConflict signals that an operation cannot proceed because of
// dependent state (e.g. booking a seat that just became occupied).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on
// a resource they do not own. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state, such as booking seats that are no longer
// available. Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrLibraryNotFound is returned when a library lookup yields no rows.
var ErrLibraryNotFound = errors.New("library not found")

// ErrPlanNotFound is returned when a fee plan lookup yields no rows.
var ErrPlanNotFound = errors.New("fee plan not found")

// ErrBookingNotFound is returned when a booking lookup yields no rows.
var ErrBookingNotFound = errors.New("booking not found")

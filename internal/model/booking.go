package model

import "time"

// Booking statuses.  A booking is created CONFIRMED (payment is
// collected up front) and may move to CANCELLED before its date.
const (
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

// Shift names a time-of-day window a booking covers.  Shift names
// here must match the shiftPricing keys on a fee plan.
const (
	ShiftMorning   = "morning"
	ShiftAfternoon = "afternoon"
	ShiftEvening   = "evening"
	ShiftNight     = "night"
)

// ValidShift reports whether the given shift name is one of the
// known shift windows.
func ValidShift(shift string) bool {
	switch shift {
	case ShiftMorning, ShiftAfternoon, ShiftEvening, ShiftNight:
		return true
	}
	return false
}

// Booking records a student's booking of one or more seats in a
// library for a date and shift under a fee plan.  It aggregates the
// seats booked in a single transaction and tracks the overall
// status and total amount.
//
// Fields:
//  ID            – primary key identifier.
//  Reference     – opaque UUID returned to the client.
//  UserID        – student who made the booking.
//  LibraryID     – library being booked.
//  PlanID        – fee plan the price was computed from.
//  BookingDate   – calendar date the booking covers.
//  Shift         – shift window (morning, afternoon, evening, night).
//  Status        – CONFIRMED or CANCELLED.
//  TotalAmount   – total price for all seats after discounts.
//  PaymentMethod – how the student paid (upi, card, cash).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Booking struct {
	ID            uint64    // bookings.id
	Reference     string    // bookings.reference
	UserID        uint64    // bookings.user_id
	LibraryID     uint64    // bookings.library_id
	PlanID        uint64    // bookings.plan_id
	BookingDate   time.Time // bookings.booking_date
	Shift         string    // bookings.shift
	Status        string    // bookings.status
	TotalAmount   float64   // bookings.total_amount
	PaymentMethod string    // bookings.payment_method
	CreatedAt     time.Time // bookings.created_at
	UpdatedAt     time.Time // bookings.updated_at
}

// BookingSeat links a booking to an individual seat.  Each record
// represents one seat paid for in the booking, with the per-seat
// price at the time of purchase.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – reference to the booking.
//  SeatID    – seat that has been booked.
//  UnitPrice – per-seat price at the time of purchase.
//  CreatedAt – creation timestamp.
type BookingSeat struct {
	ID        uint64    // booking_seats.id
	BookingID uint64    // booking_seats.booking_id
	SeatID    uint64    // booking_seats.seat_id
	UnitPrice float64   // booking_seats.unit_price
	CreatedAt time.Time // booking_seats.created_at
}

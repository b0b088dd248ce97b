// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// BookingConfirmedEvent is published when a seat booking is
// confirmed.  It carries enough information for downstream consumers
// (receipts, notifications, analytics) without querying the primary
// database.
type BookingConfirmedEvent struct {
	BookingID   uint64   `json:"booking_id"`
	Reference   string   `json:"reference"`
	UserID      uint64   `json:"user_id"`
	LibraryID   uint64   `json:"library_id"`
	LibraryName string   `json:"library_name"`
	PlanID      uint64   `json:"plan_id"`
	PlanName    string   `json:"plan_name"`
	BookingDate string   `json:"booking_date"`
	Shift       string   `json:"shift"`
	SeatLabels  []string `json:"seats"`
	TotalAmount float64  `json:"total_amount"`
	ConfirmedAt string   `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a booking is cancelled so
// consumers can unwind side effects (notifications, occupancy stats).
type BookingCancelledEvent struct {
	BookingID   uint64 `json:"booking_id"`
	Reference   string `json:"reference"`
	UserID      uint64 `json:"user_id"`
	LibraryID   uint64 `json:"library_id"`
	CancelledAt string `json:"cancelled_at"`
}

package pricing

// AddOn is a flat extra charge applied by the checkout flow after
// the engine has priced the seats.  Add-ons are not part of the
// plan price: a locker is billed once per booking while snacks or
// premium wifi are billed once per seat.
type AddOn struct {
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	PerSeat bool    `json:"per_seat"`
}

// ApplyAddOns returns the booking total after adding the given
// add-ons on top of the seat total.  Per-seat add-ons multiply by
// seatCount; the rest are charged once.
func ApplyAddOns(seatTotal float64, seatCount int, addons []AddOn) float64 {
	total := seatTotal
	for _, a := range addons {
		if a.PerSeat {
			total += a.Price * float64(seatCount)
		} else {
			total += a.Price
		}
	}
	return total
}

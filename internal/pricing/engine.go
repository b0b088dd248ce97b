package pricing

import (
	"errors"
	"time"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

// ErrPlanNotActive is returned by Quote when the selected plan is
// draft or inactive.  Such plans must never be offered for price
// computation; handlers translate this into an HTTP 409 response.
var ErrPlanNotActive = errors.New("fee plan is not active")

// ErrInvalidSeatCount is returned by Quote when the requested seat
// count is below one.
var ErrInvalidSeatCount = errors.New("seat count must be at least 1")

// CalculatePrice computes the payable amount for booking seatCount
// seats under the given plan.  The computation is deterministic:
//
//  1. resolve the per-seat price (base, shift override or zone
//     override, in that priority order),
//  2. apply the plan discount when now falls inside its validity
//     window, clamping the per-seat price at zero,
//  3. multiply by seatCount.
//
// Missing optional fields (shift, zone, override maps, discount)
// skip their step; every input combination yields a number.  No
// rounding is imposed here — callers display currency-rounded
// values.
func CalculatePrice(plan *model.FeePlan, seatCount int, shift, zone string, now time.Time) float64 {
	unit := ResolveRule(plan, shift, zone).Price
	if plan.Discount.ActiveAt(now) {
		unit = applyDiscount(unit, plan.Discount)
	}
	return unit * float64(seatCount)
}

// applyDiscount subtracts the discount from the per-seat price.  The
// result is clamped at zero so no combination of base price and
// discount yields a negative charge.
func applyDiscount(price float64, d *model.Discount) float64 {
	switch d.Type {
	case model.DiscountPercentage:
		price -= price * d.Value / 100
	case model.DiscountFixed:
		price -= d.Value
	}
	if price < 0 {
		return 0
	}
	return price
}

// Selection captures one transient, session-scoped booking choice: a
// plan, an optional shift and zone, and how many seats.  It is never
// persisted; the booking flow rebuilds it per request.
type Selection struct {
	Plan      *model.FeePlan
	Shift     string
	Zone      string
	SeatCount int
}

// QuoteResult reports the computed amount together with the rule
// that produced the per-seat price and whether the plan discount was
// in effect, so the checkout screen can itemize the total.
type QuoteResult struct {
	Rule            Rule
	UnitPrice       float64
	DiscountApplied bool
	SeatCount       int
	Total           float64
}

// Quote validates a selection and prices it.  It enforces the
// invariant that non-active plans are never priced and that at least
// one seat is requested; beyond that it delegates to CalculatePrice.
func Quote(sel Selection, now time.Time) (QuoteResult, error) {
	if sel.Plan.Status != model.PlanActive {
		return QuoteResult{}, ErrPlanNotActive
	}
	if sel.SeatCount < 1 {
		return QuoteResult{}, ErrInvalidSeatCount
	}
	rule := ResolveRule(sel.Plan, sel.Shift, sel.Zone)
	unit := rule.Price
	discounted := sel.Plan.Discount.ActiveAt(now)
	if discounted {
		unit = applyDiscount(unit, sel.Plan.Discount)
	}
	return QuoteResult{
		Rule:            rule,
		UnitPrice:       unit,
		DiscountApplied: discounted,
		SeatCount:       sel.SeatCount,
		Total:           unit * float64(sel.SeatCount),
	}, nil
}

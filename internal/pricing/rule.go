// Package pricing implements the fee computation for seat bookings.
// It is a pure function layer: given a fee plan, a seat/shift/zone
// selection and a reference time it produces a payable amount.  It
// performs no I/O and never panics on missing optional plan fields.
package pricing

import "github.com/iliyamo/library-seat-booking/internal/model"

// RuleKind identifies which pricing rule produced the per-seat price.
// Exactly one rule applies per computation: a shift override beats a
// zone override beats the base price.
type RuleKind int

const (
	// RuleBase means the plan's base price applies unmodified.
	RuleBase RuleKind = iota
	// RuleShiftOverride means the plan defines a full price override
	// for the requested shift.
	RuleShiftOverride
	// RuleZoneOverride means the plan defines a full price override
	// for the requested zone and no shift override matched.
	RuleZoneOverride
)

// String returns a short name for the rule kind, used in quote
// responses and logs.
func (k RuleKind) String() string {
	switch k {
	case RuleShiftOverride:
		return "shift_override"
	case RuleZoneOverride:
		return "zone_override"
	default:
		return "base"
	}
}

// Rule is the resolved pricing rule for one plan/shift/zone
// combination: the kind that matched, the shift or zone name that
// triggered it (empty for RuleBase) and the per-seat price before
// any discount.
type Rule struct {
	Kind  RuleKind
	Name  string
	Price float64
}

// ResolveRule performs the prioritized lookup over a plan's override
// maps.  Overrides replace the base price entirely, they are not
// additive.  A shift override wins when both shift and zone resolve.
// Missing maps or unknown keys simply fall through to the next rule.
func ResolveRule(plan *model.FeePlan, shift, zone string) Rule {
	if shift != "" && plan.ShiftPricing != nil {
		if p, ok := plan.ShiftPricing[shift]; ok {
			return Rule{Kind: RuleShiftOverride, Name: shift, Price: p}
		}
	}
	if zone != "" && plan.ZonePricing != nil {
		if p, ok := plan.ZonePricing[zone]; ok {
			return Rule{Kind: RuleZoneOverride, Name: zone, Price: p}
		}
	}
	return Rule{Kind: RuleBase, Price: plan.BasePrice}
}

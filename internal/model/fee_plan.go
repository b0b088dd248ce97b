package model

import "time"

// Fee plan billing periods.  Combo plans bundle several periods
// (e.g. monthly with a weekly locker add-on) and are priced by
// their base price like any other plan.
const (
	PlanHourly    = "hourly"
	PlanDaily     = "daily"
	PlanWeekly    = "weekly"
	PlanMonthly   = "monthly"
	PlanQuarterly = "quarterly"
	PlanAnnual    = "annual"
	PlanCombo     = "combo"
)

// Fee plan statuses.  Only ACTIVE plans may be offered to a booking
// flow; DRAFT plans are visible to their owner only and INACTIVE
// plans are retired.
const (
	PlanActive   = "active"
	PlanInactive = "inactive"
	PlanDraft    = "draft"
)

// Discount types supported on a fee plan.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Discount is a time-boxed promotional adjustment attached to a fee
// plan.  Absent bounds leave the window open on that side; both
// bounds are inclusive.
//
// Fields:
//  Type      – percentage or fixed.
//  Value     – percent (0–100) or flat amount to subtract.
//  ValidFrom – start of the validity window (nullable).
//  ValidTo   – end of the validity window (nullable).
type Discount struct {
	Type      string     `json:"type"`
	Value     float64    `json:"value"`
	ValidFrom *time.Time `json:"valid_from,omitempty"`
	ValidTo   *time.Time `json:"valid_to,omitempty"`
}

// ActiveAt reports whether the discount window contains the given
// instant.  Bounds are inclusive; a nil bound is unbounded on that
// side.
func (d *Discount) ActiveAt(now time.Time) bool {
	if d == nil {
		return false
	}
	if d.ValidFrom != nil && now.Before(*d.ValidFrom) {
		return false
	}
	if d.ValidTo != nil && now.After(*d.ValidTo) {
		return false
	}
	return true
}

// FeePlan is a pricing template offered by a library.  ShiftPricing
// and ZonePricing hold full price overrides keyed by shift or zone
// name; when a key is absent the base price applies.  The maps,
// discount and features are stored as JSON columns in the
// `fee_plans` table.
//
// Fields:
//  ID           – primary key identifier.
//  LibraryID    – library offering this plan.
//  Name         – display name of the plan.
//  Description  – marketing copy shown to students.
//  Type         – billing period (hourly ... combo).
//  BasePrice    – default per-seat price.
//  ShiftPricing – optional per-shift override prices.
//  ZonePricing  – optional per-zone override prices.
//  Discount     – optional time-boxed discount.
//  Features     – ordered list of included-amenity labels (display only).
//  Status       – active, inactive or draft.
//  IsPopular    – UI hint, no pricing effect.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type FeePlan struct {
	ID           uint64             // fee_plans.id
	LibraryID    uint64             // fee_plans.library_id
	Name         string             // fee_plans.name
	Description  string             // fee_plans.description
	Type         string             // fee_plans.plan_type
	BasePrice    float64            // fee_plans.base_price
	ShiftPricing map[string]float64 // fee_plans.shift_pricing (JSON)
	ZonePricing  map[string]float64 // fee_plans.zone_pricing (JSON)
	Discount     *Discount          // fee_plans.discount (JSON)
	Features     []string           // fee_plans.features (JSON)
	Status       string             // fee_plans.status
	IsPopular    bool               // fee_plans.is_popular
	CreatedAt    time.Time          // fee_plans.created_at
	UpdatedAt    time.Time          // fee_plans.updated_at
}

package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

func tp(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func basePlan() *model.FeePlan {
	return &model.FeePlan{
		ID:        1,
		Name:      "Monthly Standard",
		Type:      model.PlanMonthly,
		BasePrice: 300,
		Status:    model.PlanActive,
	}
}

func TestCalculatePriceBaseline(t *testing.T) {
	now := time.Now().UTC()
	plan := basePlan()
	// No shift, zone or discount: one seat costs exactly the base price.
	assert.Equal(t, 300.0, CalculatePrice(plan, 1, "", "", now))
}

func TestCalculatePriceSeatMultiplication(t *testing.T) {
	now := time.Now().UTC()
	plan := basePlan()
	plan.ShiftPricing = map[string]float64{model.ShiftEvening: 180}
	for _, n := range []int{1, 2, 3, 7, 50} {
		got := CalculatePrice(plan, n, model.ShiftEvening, "", now)
		want := float64(n) * CalculatePrice(plan, 1, model.ShiftEvening, "", now)
		assert.Equalf(t, want, got, "seatCount=%d", n)
	}
}

func TestResolveRulePrecedence(t *testing.T) {
	plan := basePlan()
	plan.ShiftPricing = map[string]float64{model.ShiftMorning: 150}
	plan.ZonePricing = map[string]float64{model.ZoneAC: 200}

	tests := []struct {
		name  string
		shift string
		zone  string
		kind  RuleKind
		price float64
	}{
		{"shift wins over zone", model.ShiftMorning, model.ZoneAC, RuleShiftOverride, 150},
		{"zone applies without shift match", model.ShiftNight, model.ZoneAC, RuleZoneOverride, 200},
		{"zone applies without shift", "", model.ZoneAC, RuleZoneOverride, 200},
		{"unknown keys fall back to base", model.ShiftNight, model.ZoneQuiet, RuleBase, 300},
		{"no selection uses base", "", "", RuleBase, 300},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := ResolveRule(plan, tc.shift, tc.zone)
			assert.Equal(t, tc.kind, r.Kind)
			assert.Equal(t, tc.price, r.Price)
		})
	}
}

func TestDiscountWindowBoundaries(t *testing.T) {
	plan := basePlan()
	plan.Discount = &model.Discount{
		Type:      model.DiscountPercentage,
		Value:     10,
		ValidFrom: tp("2024-11-01"),
		ValidTo:   tp("2024-11-30"),
	}

	tests := []struct {
		name    string
		now     time.Time
		applied bool
	}{
		{"before window", *tp("2024-10-31"), false},
		{"at lower bound", *tp("2024-11-01"), true},
		{"inside window", *tp("2024-11-15"), true},
		{"at upper bound", *tp("2024-11-30"), true},
		{"after window", *tp("2024-12-01"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculatePrice(plan, 1, "", "", tc.now)
			if tc.applied {
				assert.Equal(t, 270.0, got)
			} else {
				assert.Equal(t, 300.0, got)
			}
		})
	}
}

func TestDiscountUnboundedSides(t *testing.T) {
	plan := basePlan()
	// Only an upper bound: active for any time up to and including it.
	plan.Discount = &model.Discount{Type: model.DiscountFixed, Value: 50, ValidTo: tp("2024-11-30")}
	assert.Equal(t, 250.0, CalculatePrice(plan, 1, "", "", *tp("2020-01-01")))
	assert.Equal(t, 300.0, CalculatePrice(plan, 1, "", "", *tp("2024-12-01")))

	// No bounds at all: always active.
	plan.Discount = &model.Discount{Type: model.DiscountFixed, Value: 50}
	assert.Equal(t, 250.0, CalculatePrice(plan, 1, "", "", time.Now().UTC()))
}

func TestPercentageDiscountArithmetic(t *testing.T) {
	plan := basePlan()
	plan.Discount = &model.Discount{Type: model.DiscountPercentage, Value: 10}
	// 10% off 300 is exactly 270 per seat.
	assert.Equal(t, 270.0, CalculatePrice(plan, 1, "", "", time.Now().UTC()))
}

func TestDiscountClampsAtZero(t *testing.T) {
	now := time.Now().UTC()
	plan := basePlan()
	plan.BasePrice = 100
	plan.Discount = &model.Discount{Type: model.DiscountFixed, Value: 500}
	assert.Equal(t, 0.0, CalculatePrice(plan, 3, "", "", now))

	plan.Discount = &model.Discount{Type: model.DiscountPercentage, Value: 150}
	assert.Equal(t, 0.0, CalculatePrice(plan, 1, "", "", now))
}

func TestCalculatePriceEndToEnd(t *testing.T) {
	plan := basePlan()
	plan.ShiftPricing = map[string]float64{model.ShiftMorning: 150}
	plan.Discount = &model.Discount{
		Type:      model.DiscountPercentage,
		Value:     10,
		ValidFrom: tp("2024-11-01"),
		ValidTo:   tp("2024-11-30"),
	}
	// 2 seats at the morning override with 10% off: 2 * (150 - 15) = 270.
	got := CalculatePrice(plan, 2, model.ShiftMorning, "", *tp("2024-11-15"))
	assert.Equal(t, 270.0, got)
}

func TestQuoteRejectsNonActivePlans(t *testing.T) {
	now := time.Now().UTC()
	for _, status := range []string{model.PlanDraft, model.PlanInactive} {
		plan := basePlan()
		plan.Status = status
		_, err := Quote(Selection{Plan: plan, SeatCount: 1}, now)
		assert.ErrorIs(t, err, ErrPlanNotActive)
	}
}

func TestQuoteRejectsZeroSeats(t *testing.T) {
	_, err := Quote(Selection{Plan: basePlan(), SeatCount: 0}, time.Now().UTC())
	assert.ErrorIs(t, err, ErrInvalidSeatCount)
}

func TestQuoteItemization(t *testing.T) {
	plan := basePlan()
	plan.ShiftPricing = map[string]float64{model.ShiftMorning: 150}
	plan.Discount = &model.Discount{Type: model.DiscountPercentage, Value: 10}

	res, err := Quote(Selection{Plan: plan, Shift: model.ShiftMorning, SeatCount: 2}, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, RuleShiftOverride, res.Rule.Kind)
	assert.Equal(t, 135.0, res.UnitPrice)
	assert.True(t, res.DiscountApplied)
	assert.Equal(t, 270.0, res.Total)
}

func TestApplyAddOns(t *testing.T) {
	addons := []AddOn{
		{Name: "locker", Price: 100},                 // once per booking
		{Name: "snacks", Price: 20, PerSeat: true},   // per seat
		{Name: "premium-wifi", Price: 5, PerSeat: true},
	}
	// 2 seats at 270 total: 270 + 100 + 2*20 + 2*5 = 420.
	assert.Equal(t, 420.0, ApplyAddOns(270, 2, addons))
	// No add-ons leaves the total untouched.
	assert.Equal(t, 270.0, ApplyAddOns(270, 2, nil))
}

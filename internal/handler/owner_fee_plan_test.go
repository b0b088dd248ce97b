package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

func TestValidatePlanReq_Defaults(t *testing.T) {
	req := feePlanReq{Name: "  Monthly Basic ", Type: model.PlanMonthly, BasePrice: 1500}
	plan, msg := validatePlanReq(&req)
	assert.Empty(t, msg)
	assert.Equal(t, "Monthly Basic", plan.Name)
	assert.Equal(t, model.PlanDraft, plan.Status, "status defaults to draft")
}

func TestValidatePlanReq_Rejections(t *testing.T) {
	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	cases := []struct {
		name string
		req  feePlanReq
		want string
	}{
		{"empty name", feePlanReq{Type: model.PlanDaily}, "name required"},
		{"bad type", feePlanReq{Name: "x", Type: "biweekly"}, "invalid plan type"},
		{"negative price", feePlanReq{Name: "x", Type: model.PlanDaily, BasePrice: -1}, "base_price must be >= 0"},
		{"unknown shift key", feePlanReq{Name: "x", Type: model.PlanDaily,
			ShiftPricing: map[string]float64{"midnight": 10}}, "unknown shift in shift_pricing: midnight"},
		{"unknown zone key", feePlanReq{Name: "x", Type: model.PlanDaily,
			ZonePricing: map[string]float64{"balcony": 10}}, "unknown zone in zone_pricing: balcony"},
		{"bad discount type", feePlanReq{Name: "x", Type: model.PlanDaily,
			Discount: &model.Discount{Type: "bogo", Value: 1}}, "discount type must be percentage or fixed"},
		{"percentage over 100", feePlanReq{Name: "x", Type: model.PlanDaily,
			Discount: &model.Discount{Type: model.DiscountPercentage, Value: 150}}, "invalid discount value"},
		{"inverted window", feePlanReq{Name: "x", Type: model.PlanDaily,
			Discount: &model.Discount{Type: model.DiscountFixed, Value: 5, ValidFrom: &from, ValidTo: &to}},
			"discount window ends before it starts"},
		{"bad status", feePlanReq{Name: "x", Type: model.PlanDaily, Status: "archived"}, "invalid status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, msg := validatePlanReq(&tc.req)
			assert.Equal(t, tc.want, msg)
		})
	}
}

func TestWireSeatStatus(t *testing.T) {
	assert.Equal(t, "available", wireSeatStatus(model.SeatAvailable))
	assert.Equal(t, "occupied", wireSeatStatus(model.SeatOccupied))
	assert.Equal(t, "blocked", wireSeatStatus(model.SeatBlocked))
}

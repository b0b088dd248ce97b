package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/model"
)

type feePlanReq struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Type         string             `json:"type"`
	BasePrice    float64            `json:"base_price"`
	ShiftPricing map[string]float64 `json:"shift_pricing,omitempty"`
	ZonePricing  map[string]float64 `json:"zone_pricing,omitempty"`
	Discount     *model.Discount    `json:"discount,omitempty"`
	Features     []string           `json:"features,omitempty"`
	Status       string             `json:"status"`
	IsPopular    bool               `json:"is_popular"`
}

type feePlanResp struct {
	ID           uint64             `json:"id"`
	LibraryID    uint64             `json:"library_id"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Type         string             `json:"type"`
	BasePrice    float64            `json:"base_price"`
	ShiftPricing map[string]float64 `json:"shift_pricing,omitempty"`
	ZonePricing  map[string]float64 `json:"zone_pricing,omitempty"`
	Discount     *model.Discount    `json:"discount,omitempty"`
	Features     []string           `json:"features,omitempty"`
	Status       string             `json:"status"`
	IsPopular    bool               `json:"is_popular"`
}

func toFeePlanResp(p *model.FeePlan) feePlanResp {
	return feePlanResp{
		ID:           p.ID,
		LibraryID:    p.LibraryID,
		Name:         p.Name,
		Description:  p.Description,
		Type:         p.Type,
		BasePrice:    p.BasePrice,
		ShiftPricing: p.ShiftPricing,
		ZonePricing:  p.ZonePricing,
		Discount:     p.Discount,
		Features:     p.Features,
		Status:       p.Status,
		IsPopular:    p.IsPopular,
	}
}

func validPlanType(t string) bool {
	switch t {
	case model.PlanHourly, model.PlanDaily, model.PlanWeekly, model.PlanMonthly,
		model.PlanQuarterly, model.PlanAnnual, model.PlanCombo:
		return true
	}
	return false
}

func validPlanStatus(s string) bool {
	switch s {
	case model.PlanActive, model.PlanInactive, model.PlanDraft:
		return true
	}
	return false
}

// validatePlanReq checks a create/update body and normalizes it into
// a model.FeePlan.  Override maps are validated against the known
// shift and zone vocabularies so a typoed key cannot silently never
// match at quote time.
func validatePlanReq(req *feePlanReq) (model.FeePlan, string) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return model.FeePlan{}, "name required"
	}
	if !validPlanType(req.Type) {
		return model.FeePlan{}, "invalid plan type"
	}
	if req.BasePrice < 0 {
		return model.FeePlan{}, "base_price must be >= 0"
	}
	for shift := range req.ShiftPricing {
		if !model.ValidShift(shift) {
			return model.FeePlan{}, "unknown shift in shift_pricing: " + shift
		}
	}
	for zone := range req.ZonePricing {
		if !model.ValidZone(zone) {
			return model.FeePlan{}, "unknown zone in zone_pricing: " + zone
		}
	}
	if d := req.Discount; d != nil {
		if d.Type != model.DiscountPercentage && d.Type != model.DiscountFixed {
			return model.FeePlan{}, "discount type must be percentage or fixed"
		}
		if d.Value < 0 || (d.Type == model.DiscountPercentage && d.Value > 100) {
			return model.FeePlan{}, "invalid discount value"
		}
		if d.ValidFrom != nil && d.ValidTo != nil && d.ValidTo.Before(*d.ValidFrom) {
			return model.FeePlan{}, "discount window ends before it starts"
		}
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status == "" {
		status = model.PlanDraft
	}
	if !validPlanStatus(status) {
		return model.FeePlan{}, "invalid status"
	}
	return model.FeePlan{
		Name:         req.Name,
		Description:  strings.TrimSpace(req.Description),
		Type:         req.Type,
		BasePrice:    req.BasePrice,
		ShiftPricing: req.ShiftPricing,
		ZonePricing:  req.ZonePricing,
		Discount:     req.Discount,
		Features:     req.Features,
		Status:       status,
		IsPopular:    req.IsPopular,
	}, ""
}

// CreatePlan adds a fee plan to the owner's library.
func (h *OwnerHandler) CreatePlan(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	libID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid library id"})
	}
	var req feePlanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	plan, msg := validatePlanReq(&req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Libraries.GetByIDAndOwner(ctx, libID, ownerID); err != nil {
		return ownerLookupError(c, err)
	}
	plan.LibraryID = libID
	if err := h.Plans.Create(ctx, &plan); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create plan failed"})
	}
	return c.JSON(http.StatusCreated, toFeePlanResp(&plan))
}

// ListPlans returns every plan of the owner's library, drafts
// included.
func (h *OwnerHandler) ListPlans(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	libID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid library id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Libraries.GetByIDAndOwner(ctx, libID, ownerID); err != nil {
		return ownerLookupError(c, err)
	}
	plans, err := h.Plans.ListByLibrary(ctx, libID, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]feePlanResp, 0, len(plans))
	for _, p := range plans {
		out = append(out, toFeePlanResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"plans": out})
}

// UpdatePlan rewrites a plan's fields.
func (h *OwnerHandler) UpdatePlan(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	libID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid library id"})
	}
	planID, ok := pathID(c, "planID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
	}
	var req feePlanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	plan, msg := validatePlanReq(&req)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Libraries.GetByIDAndOwner(ctx, libID, ownerID); err != nil {
		return ownerLookupError(c, err)
	}
	existing, err := h.Plans.GetByID(ctx, planID)
	if err != nil || existing.LibraryID != libID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
	}
	plan.ID = planID
	plan.LibraryID = libID
	if err := h.Plans.Update(ctx, &plan); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update plan failed"})
	}
	return c.JSON(http.StatusOK, toFeePlanResp(&plan))
}

type planStatusReq struct {
	Status string `json:"status"`
}

// SetPlanStatus activates, deactivates or re-drafts a plan.
func (h *OwnerHandler) SetPlanStatus(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	libID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid library id"})
	}
	planID, ok := pathID(c, "planID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid plan id"})
	}
	var req planStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !validPlanStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Libraries.GetByIDAndOwner(ctx, libID, ownerID); err != nil {
		return ownerLookupError(c, err)
	}
	existing, err := h.Plans.GetByID(ctx, planID)
	if err != nil || existing.LibraryID != libID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
	}
	if err := h.Plans.SetStatus(ctx, planID, status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": status})
}

package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/repository"
)

// BrowseHandler serves the public, unauthenticated browse endpoints.
// These sit behind the Redis response cache; live freshness comes
// from the push channel, not from this surface.
type BrowseHandler struct {
	Libraries *repository.LibraryRepo
	Seats     *repository.SeatRepo
	Plans     *repository.FeePlanRepo
}

func NewBrowseHandler(libraries *repository.LibraryRepo, seats *repository.SeatRepo, plans *repository.FeePlanRepo) *BrowseHandler {
	return &BrowseHandler{Libraries: libraries, Seats: seats, Plans: plans}
}

// ListLibraries returns every library, optionally filtered by city.
func (h *BrowseHandler) ListLibraries(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	libs, err := h.Libraries.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	city := strings.ToLower(strings.TrimSpace(c.QueryParam("city")))
	out := make([]libraryResp, 0, len(libs))
	for i := range libs {
		if city != "" && strings.ToLower(libs[i].City) != city {
			continue
		}
		out = append(out, toLibraryResp(&libs[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"libraries": out})
}

// GetLibrary returns one library with its seat map.  ?status=available
// filters to bookable seats only.
func (h *BrowseHandler) GetLibrary(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid library id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	lib, err := h.Libraries.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrLibraryNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "library not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	statusFilter := ""
	if strings.EqualFold(c.QueryParam("status"), "available") {
		statusFilter = model.SeatAvailable
	}
	seats, err := h.Seats.ListByLibrary(ctx, id, statusFilter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	seatOut := make([]seatResp, 0, len(seats))
	for _, s := range seats {
		seatOut = append(seatOut, seatResp{ID: s.ID, Label: s.Label, Zone: s.Zone, Status: s.Status})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"library": toLibraryResp(lib),
		"seats":   seatOut,
	})
}

// ListLibraryPlans returns the active fee plans of a library.  Draft
// and inactive plans are visible to the owner only.
func (h *BrowseHandler) ListLibraryPlans(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid library id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Libraries.GetByID(ctx, id); err != nil {
		if err == repository.ErrLibraryNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "library not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	plans, err := h.Plans.ListByLibrary(ctx, id, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]feePlanResp, 0, len(plans))
	for _, p := range plans {
		out = append(out, toFeePlanResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"plans": out})
}

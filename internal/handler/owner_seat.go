package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/realtime"
	"github.com/iliyamo/library-seat-booking/internal/repository"
)

type createSeatsReq struct {
	Zone   string   `json:"zone"`
	Labels []string `json:"labels"`
}

type seatResp struct {
	ID     uint64 `json:"id"`
	Label  string `json:"label"`
	Zone   string `json:"zone"`
	Status string `json:"status"`
}

// CreateSeats bulk-adds seats to a library in one zone.  New seats
// start AVAILABLE.
func (h *OwnerHandler) CreateSeats(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	libID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid library id"})
	}
	var req createSeatsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !model.ValidZone(req.Zone) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid zone"})
	}
	seats := make([]model.Seat, 0, len(req.Labels))
	for _, raw := range req.Labels {
		label := strings.TrimSpace(raw)
		if label == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "empty seat label"})
		}
		seats = append(seats, model.Seat{Zone: req.Zone, Label: label})
	}
	if len(seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "labels required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Libraries.GetByIDAndOwner(ctx, libID, ownerID); err != nil {
		return ownerLookupError(c, err)
	}
	if err := h.Seats.CreateBulk(ctx, libID, seats); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "duplicate seat label"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seats failed"})
	}

	if fresh, err := h.Libraries.GetByID(ctx, libID); err == nil {
		h.Hub.LibraryUpdated(realtime.LibraryUpdate{
			LibraryID:      fresh.ID,
			Name:           fresh.Name,
			AvailableSeats: fresh.AvailableSeats,
			TotalSeats:     fresh.TotalSeats,
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{"created": len(seats)})
}

// ListSeats returns every active seat of the owner's library.
func (h *OwnerHandler) ListSeats(c echo.Context) error {
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
	seats, err := h.Seats.ListByLibrary(ctx, libID, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]seatResp, 0, len(seats))
	for _, s := range seats {
		out = append(out, seatResp{ID: s.ID, Label: s.Label, Zone: s.Zone, Status: s.Status})
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": out})
}

type seatStatusReq struct {
	Status string `json:"status"` // AVAILABLE | BLOCKED
}

// SetSeatStatus blocks or unblocks a seat and pushes the resulting
// availability delta to the library room.  OCCUPIED belongs to the
// booking flow and cannot be set here.
func (h *OwnerHandler) SetSeatStatus(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	libID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid library id"})
	}
	seatID, ok := pathID(c, "seatID")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	var req seatStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status != model.SeatAvailable && status != model.SeatBlocked {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be AVAILABLE or BLOCKED"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Libraries.GetByIDAndOwner(ctx, libID, ownerID); err != nil {
		return ownerLookupError(c, err)
	}
	seat, err := h.Seats.GetByID(ctx, seatID)
	if err != nil || seat.LibraryID != libID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	}
	if seat.Status == model.SeatOccupied {
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat is occupied"})
	}
	if err := h.Seats.SetStatus(ctx, seatID, status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if fresh, err := h.Libraries.GetByID(ctx, libID); err == nil {
		h.Hub.SeatAvailability(libID, []realtime.SeatDelta{{
			SeatID:         seatID,
			LibraryID:      libID,
			Status:         wireSeatStatus(status),
			AvailableSeats: fresh.AvailableSeats,
			TotalSeats:     fresh.TotalSeats,
		}})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

// ownerLookupError maps library ownership lookup errors to responses.
func ownerLookupError(c echo.Context, err error) error {
	switch err {
	case repository.ErrLibraryNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "library not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
}

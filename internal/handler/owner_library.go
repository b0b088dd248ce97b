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

type libraryReq struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
}

type libraryResp struct {
	ID             uint64 `json:"id"`
	Name           string `json:"name"`
	City           string `json:"city"`
	Address        string `json:"address"`
	TotalSeats     uint32 `json:"total_seats"`
	AvailableSeats uint32 `json:"available_seats"`
}

func toLibraryResp(l *model.Library) libraryResp {
	return libraryResp{
		ID:             l.ID,
		Name:           l.Name,
		City:           l.City,
		Address:        l.Address,
		TotalSeats:     l.TotalSeats,
		AvailableSeats: l.AvailableSeats,
	}
}

// CreateLibrary registers a new library for the authenticated owner.
func (h *OwnerHandler) CreateLibrary(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req libraryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" || req.City == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/city required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l := &model.Library{OwnerID: ownerID, Name: req.Name, City: req.City, Address: strings.TrimSpace(req.Address)}
	if err := h.Libraries.Create(ctx, l); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "library name already used"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create library failed"})
	}
	return c.JSON(http.StatusCreated, toLibraryResp(l))
}

// ListMyLibraries returns the owner's libraries with capacity counters.
func (h *OwnerHandler) ListMyLibraries(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	libs, err := h.Libraries.ListByOwner(ctx, ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]libraryResp, 0, len(libs))
	for i := range libs {
		out = append(out, toLibraryResp(&libs[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"libraries": out})
}

// UpdateLibrary changes library metadata and pushes a library:updated
// event so dashboards refresh.
func (h *OwnerHandler) UpdateLibrary(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid library id"})
	}
	var req libraryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" || req.City == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/city required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l := &model.Library{ID: id, OwnerID: ownerID, Name: req.Name, City: req.City, Address: strings.TrimSpace(req.Address)}
	if err := h.Libraries.Update(ctx, l); err != nil {
		switch err {
		case repository.ErrLibraryNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "library not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	fresh, err := h.Libraries.GetByID(ctx, id)
	if err == nil {
		h.Hub.LibraryUpdated(realtime.LibraryUpdate{
			LibraryID:      fresh.ID,
			Name:           fresh.Name,
			AvailableSeats: fresh.AvailableSeats,
			TotalSeats:     fresh.TotalSeats,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": true})
}

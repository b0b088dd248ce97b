package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/hub"
	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/realtime"
	"github.com/iliyamo/library-seat-booking/internal/repository"
)

// OwnerHandler bundles the repositories owners use to manage their
// libraries, seats and fee plans, plus the hub for pushing changes to
// connected clients.
type OwnerHandler struct {
	Libraries *repository.LibraryRepo
	Seats     *repository.SeatRepo
	Plans     *repository.FeePlanRepo
	Hub       *hub.Hub
}

// NewOwnerHandler constructs an OwnerHandler; nil repositories are a
// programming error and panic at wiring time.
func NewOwnerHandler(libraries *repository.LibraryRepo, seats *repository.SeatRepo, plans *repository.FeePlanRepo, h *hub.Hub) *OwnerHandler {
	if libraries == nil || seats == nil || plans == nil || h == nil {
		panic("nil dependency passed to NewOwnerHandler")
	}
	return &OwnerHandler{Libraries: libraries, Seats: seats, Plans: plans, Hub: h}
}

// getUserID extracts the user_id stored in context by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// wireSeatStatus maps a seats.status value to the lowercase status
// names used on the push channel.
func wireSeatStatus(status string) string {
	switch status {
	case model.SeatOccupied:
		return realtime.StatusOccupied
	case model.SeatBlocked:
		return realtime.StatusBlocked
	default:
		return realtime.StatusAvailable
	}
}

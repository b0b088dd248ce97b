package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-booking/internal/hub"
	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/pricing"
	"github.com/iliyamo/library-seat-booking/internal/queue"
	"github.com/iliyamo/library-seat-booking/internal/realtime"
	"github.com/iliyamo/library-seat-booking/internal/repository"
	queue_publisher "github.com/iliyamo/library-seat-booking/internal/service"
)

// BookingHandler serves the student booking flow: price quotes,
// booking creation, listing and cancellation.  Creation and
// cancellation run in a single DB transaction with the seat status
// flips; availability deltas go out on the push channel after commit.
type BookingHandler struct {
	Libraries *repository.LibraryRepo
	Seats     *repository.SeatRepo
	Plans     *repository.FeePlanRepo
	Bookings  *repository.BookingRepo
	Hub       *hub.Hub
}

func NewBookingHandler(libraries *repository.LibraryRepo, seats *repository.SeatRepo, plans *repository.FeePlanRepo, bookings *repository.BookingRepo, h *hub.Hub) *BookingHandler {
	if libraries == nil || seats == nil || plans == nil || bookings == nil || h == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Libraries: libraries, Seats: seats, Plans: plans, Bookings: bookings, Hub: h}
}

// ----- quote -----

type addOnReq struct {
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	PerSeat bool    `json:"per_seat"`
}

type quoteReq struct {
	LibraryID uint64     `json:"library_id"`
	PlanID    uint64     `json:"plan_id"`
	Shift     string     `json:"shift,omitempty"`
	Zone      string     `json:"zone,omitempty"`
	SeatCount int        `json:"seat_count"`
	AddOns    []addOnReq `json:"addons,omitempty"`
}

type quoteResp struct {
	Rule            string  `json:"rule"`
	RuleName        string  `json:"rule_name,omitempty"`
	UnitPrice       float64 `json:"unit_price"`
	DiscountApplied bool    `json:"discount_applied"`
	SeatCount       int     `json:"seat_count"`
	SeatTotal       float64 `json:"seat_total"`
	Total           float64 `json:"total"`
}

// Quote prices a prospective selection without touching any seat.
func (h *BookingHandler) Quote(c echo.Context) error {
	var req quoteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Shift != "" && !model.ValidShift(req.Shift) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift"})
	}
	if req.Zone != "" && !model.ValidZone(req.Zone) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid zone"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plan, err := h.Plans.GetByID(ctx, req.PlanID)
	if err != nil {
		if err == repository.ErrPlanNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if req.LibraryID != 0 && plan.LibraryID != req.LibraryID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plan does not belong to library"})
	}

	result, err := pricing.Quote(pricing.Selection{
		Plan:      plan,
		Shift:     req.Shift,
		Zone:      req.Zone,
		SeatCount: req.SeatCount,
	}, time.Now().UTC())
	if err != nil {
		switch err {
		case pricing.ErrPlanNotActive:
			return c.JSON(http.StatusConflict, echo.Map{"error": "plan is not active"})
		case pricing.ErrInvalidSeatCount:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_count must be >= 1"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "quote failed"})
	}

	total := result.Total
	if len(req.AddOns) > 0 {
		addons := make([]pricing.AddOn, 0, len(req.AddOns))
		for _, a := range req.AddOns {
			if a.Price < 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "addon price must be >= 0"})
			}
			addons = append(addons, pricing.AddOn{Name: a.Name, Price: a.Price, PerSeat: a.PerSeat})
		}
		total = pricing.ApplyAddOns(result.Total, result.SeatCount, addons)
	}

	return c.JSON(http.StatusOK, quoteResp{
		Rule:            result.Rule.Kind.String(),
		RuleName:        result.Rule.Name,
		UnitPrice:       result.UnitPrice,
		DiscountApplied: result.DiscountApplied,
		SeatCount:       result.SeatCount,
		SeatTotal:       result.Total,
		Total:           total,
	})
}

// ----- create -----

type createBookingReq struct {
	LibraryID     uint64   `json:"library_id"`
	PlanID        uint64   `json:"plan_id"`
	BookingDate   string   `json:"booking_date"` // YYYY-MM-DD
	Shift         string   `json:"shift"`
	SeatIDs       []uint64 `json:"seat_ids"`
	PaymentMethod string   `json:"payment_method"`
}

type bookingResp struct {
	Reference   string   `json:"reference"`
	LibraryID   uint64   `json:"library_id"`
	PlanID      uint64   `json:"plan_id"`
	BookingDate string   `json:"booking_date"`
	Shift       string   `json:"shift"`
	Status      string   `json:"status"`
	TotalAmount float64  `json:"total_amount"`
	SeatIDs     []uint64 `json:"seat_ids,omitempty"`
}

// CreateBooking books the requested seats atomically: seats are
// row-locked, verified AVAILABLE, priced per seat (shift override
// beats zone override beats base price) and flipped to OCCUPIED in
// one transaction.  After commit the confirmation event is published
// and availability deltas are pushed to the library room.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids required"})
	}
	if !model.ValidShift(req.Shift) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift"})
	}
	bookingDate, err := time.Parse("2006-01-02", req.BookingDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_date must be YYYY-MM-DD"})
	}
	seen := make(map[uint64]bool, len(req.SeatIDs))
	for _, id := range req.SeatIDs {
		if id == 0 || seen[id] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate or invalid seat id"})
		}
		seen[id] = true
	}
	payment := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if payment == "" {
		payment = "upi"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	lib, err := h.Libraries.GetByID(ctx, req.LibraryID)
	if err != nil {
		if err == repository.ErrLibraryNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "library not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	plan, err := h.Plans.GetByID(ctx, req.PlanID)
	if err != nil || plan.LibraryID != lib.ID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "plan not found"})
	}
	if plan.Status != model.PlanActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "plan is not active"})
	}

	now := time.Now().UTC()
	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	seats, err := h.Seats.LockForUpdateTx(ctx, tx, lib.ID, req.SeatIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lock seats failed"})
	}
	if len(seats) != len(req.SeatIDs) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown seat in selection"})
	}
	for _, s := range seats {
		if s.Status != model.SeatAvailable {
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat " + s.Label + " is not available"})
		}
	}

	// Per-seat pricing: each seat resolves its own rule by zone, the
	// shift applies to all of them.
	var total float64
	bookingSeats := make([]model.BookingSeat, 0, len(seats))
	seatLabels := make([]string, 0, len(seats))
	for _, s := range seats {
		unit := pricing.CalculatePrice(plan, 1, req.Shift, s.Zone, now)
		total += unit
		bookingSeats = append(bookingSeats, model.BookingSeat{SeatID: s.ID, UnitPrice: unit})
		seatLabels = append(seatLabels, s.Label)
	}

	booking := &model.Booking{
		Reference:     uuid.NewString(),
		UserID:        userID,
		LibraryID:     lib.ID,
		PlanID:        plan.ID,
		BookingDate:   bookingDate,
		Shift:         req.Shift,
		Status:        model.BookingConfirmed,
		TotalAmount:   total,
		PaymentMethod: payment,
	}
	if err := h.Bookings.CreateTx(ctx, tx, booking); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}
	if err := h.Bookings.CreateSeatsBulkTx(ctx, tx, booking.ID, bookingSeats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking seats failed"})
	}
	if err := h.Seats.UpdateStatusBulkTx(ctx, tx, req.SeatIDs, model.SeatAvailable, model.SeatOccupied); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat no longer available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve seats failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	// Post-commit side effects are best-effort.
	go func() {
		ev := queue.BookingConfirmedEvent{
			BookingID:   booking.ID,
			Reference:   booking.Reference,
			UserID:      userID,
			LibraryID:   lib.ID,
			LibraryName: lib.Name,
			PlanID:      plan.ID,
			PlanName:    plan.Name,
			BookingDate: req.BookingDate,
			Shift:       req.Shift,
			SeatLabels:  seatLabels,
			TotalAmount: total,
			ConfirmedAt: now.Format(time.RFC3339),
		}
		pctx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pcancel()
		if err := queue_publisher.PublishBookingConfirmed(pctx, ev); err != nil {
			log.Printf("booking: publish confirmed event failed: %v", err)
		}
	}()
	h.pushSeatDeltas(ctx, lib.ID, req.SeatIDs, realtime.StatusOccupied)

	return c.JSON(http.StatusCreated, bookingResp{
		Reference:   booking.Reference,
		LibraryID:   lib.ID,
		PlanID:      plan.ID,
		BookingDate: req.BookingDate,
		Shift:       req.Shift,
		Status:      booking.Status,
		TotalAmount: total,
		SeatIDs:     req.SeatIDs,
	})
}

// ----- list -----

// ListMyBookings returns the student's bookings, newest first.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Bookings.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bookingResp, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingResp{
			Reference:   b.Reference,
			LibraryID:   b.LibraryID,
			PlanID:      b.PlanID,
			BookingDate: b.BookingDate.Format("2006-01-02"),
			Shift:       b.Shift,
			Status:      b.Status,
			TotalAmount: b.TotalAmount,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// ListLibraryBookings returns every booking of the owner's library,
// newest first.
func (h *BookingHandler) ListLibraryBookings(c echo.Context) error {
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
	bookings, err := h.Bookings.ListByLibrary(ctx, libID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bookingResp, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingResp{
			Reference:   b.Reference,
			LibraryID:   b.LibraryID,
			PlanID:      b.PlanID,
			BookingDate: b.BookingDate.Format("2006-01-02"),
			Shift:       b.Shift,
			Status:      b.Status,
			TotalAmount: b.TotalAmount,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// ----- cancel -----

// CancelBooking moves a CONFIRMED booking to CANCELLED and releases
// its seats, then pushes the freed-seat deltas.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reference := strings.TrimSpace(c.Param("reference"))
	if reference == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reference required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := h.Bookings.GetForUserTx(ctx, tx, reference, userID)
	if err != nil {
		switch err {
		case repository.ErrBookingNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	// Cancellation closes at midnight UTC of the booked date.
	if !time.Now().UTC().Before(booking.BookingDate) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking date already started"})
	}
	if err := h.Bookings.CancelTx(ctx, tx, booking.ID); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	seatIDs, err := h.Bookings.SeatIDsTx(ctx, tx, booking.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	// Release only the seats still OCCUPIED: a seat the owner has
	// BLOCKED since the booking stays blocked, and the cancellation
	// must not fail because of it.
	released, err := h.Seats.ReleaseBulkTx(ctx, tx, seatIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release seats failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	go func() {
		ev := queue.BookingCancelledEvent{
			BookingID:   booking.ID,
			Reference:   booking.Reference,
			UserID:      userID,
			LibraryID:   booking.LibraryID,
			CancelledAt: time.Now().UTC().Format(time.RFC3339),
		}
		pctx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pcancel()
		if err := queue_publisher.PublishBookingCancelled(pctx, ev); err != nil {
			log.Printf("booking: publish cancelled event failed: %v", err)
		}
	}()
	h.pushSeatDeltas(ctx, booking.LibraryID, released, realtime.StatusAvailable)

	return c.JSON(http.StatusOK, echo.Map{"cancelled": true})
}

// pushSeatDeltas reads the library's fresh capacity counters and
// pushes one delta per seat, in order.
func (h *BookingHandler) pushSeatDeltas(ctx context.Context, libraryID uint64, seatIDs []uint64, status string) {
	fresh, err := h.Libraries.GetByID(ctx, libraryID)
	if err != nil {
		log.Printf("booking: refresh library %d for deltas failed: %v", libraryID, err)
		return
	}
	deltas := make([]realtime.SeatDelta, 0, len(seatIDs))
	for _, id := range seatIDs {
		deltas = append(deltas, realtime.SeatDelta{
			SeatID:         id,
			LibraryID:      libraryID,
			Status:         status,
			AvailableSeats: fresh.AvailableSeats,
			TotalSeats:     fresh.TotalSeats,
		})
	}
	h.Hub.SeatAvailability(libraryID, deltas)
	h.Hub.LibraryUpdated(realtime.LibraryUpdate{
		LibraryID:      libraryID,
		Name:           fresh.Name,
		AvailableSeats: fresh.AvailableSeats,
		TotalSeats:     fresh.TotalSeats,
	})
}

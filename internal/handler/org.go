package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/reserve-my-spot/internal/booking"
	"github.com/iliyamo/reserve-my-spot/internal/middleware"
	"github.com/iliyamo/reserve-my-spot/internal/model"
	"github.com/iliyamo/reserve-my-spot/internal/repository"
)

// OrgHandler serves the organization dashboard.  Every route acts on the
// organization named by the access token.
type OrgHandler struct {
	Orgs      OrganizationStore
	Slots     SlotStore
	Bookings  BookingQueries
	Ledger    *booking.Ledger
	Inventory *booking.Inventory
	Clock     booking.Clock
	Loc       *time.Location
}

type createSlotReq struct {
	Name       string          `json:"name"`
	SlotType   string          `json:"slot_type"`
	TotalSlots int             `json:"total_slots"`
	Price      decimal.Decimal `json:"price"`
	Features   []string        `json:"features"`
	Location   string          `json:"location"`
	Distance   string          `json:"distance"`
	Address    string          `json:"address"`
}

type updateSlotReq struct {
	TotalSlots *int             `json:"total_slots"`
	Price      *decimal.Decimal `json:"price"`
	Features   []string         `json:"features"`
	IsActive   *bool            `json:"is_active"`
}

func (h *OrgHandler) loc() *time.Location {
	if h.Loc == nil {
		return time.UTC
	}
	return h.Loc
}

func orgID(c echo.Context) (uint64, bool) {
	id, err := middleware.PrincipalID(c)
	return id, err == nil
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// ListSlots returns the organization's slots, inactive ones included.
func (h *OrgHandler) ListSlots(c echo.Context) error {
	org, ok := orgID(c)
	if !ok {
		return unauthorized(c)
	}
	slots, err := h.Slots.ListSlotsByOrganization(c.Request().Context(), org)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	now := h.Clock.Now()
	out := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotView(s, h.Inventory.Available(s, now)))
	}
	return c.JSON(http.StatusOK, out)
}

// CreateSlot adds a slot to the organization.
func (h *OrgHandler) CreateSlot(c echo.Context) error {
	org, ok := orgID(c)
	if !ok {
		return unauthorized(c)
	}
	var req createSlotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	vt, ok := model.ParseVehicleType(req.SlotType)
	switch {
	case strings.TrimSpace(req.Name) == "":
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required", "field": "name"})
	case !ok:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_type must be 2W or 4W", "field": "slot_type"})
	case req.TotalSlots < 1:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_slots must be at least 1", "field": "total_slots"})
	case req.Price.IsNegative():
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must not be negative", "field": "price"})
	}
	s := &model.Slot{
		OrganizationID: org,
		Name:           strings.TrimSpace(req.Name),
		VehicleType:    vt,
		TotalCapacity:  req.TotalSlots,
		HourlyRate:     req.Price,
		Features:       req.Features,
		Location:       req.Location,
		Distance:       req.Distance,
		Address:        req.Address,
		IsActive:       true,
	}
	ctx := c.Request().Context()
	if err := h.Slots.CreateSlot(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create slot failed"})
	}
	created, err := h.Slots.GetSlot(ctx, s.ID)
	if err != nil {
		created = s
	}
	return c.JSON(http.StatusCreated, slotView(*created, created.TotalCapacity))
}

// UpdateSlot changes capacity, rate, features or the active flag of one
// of the organization's slots.  Lowering capacity never evicts existing
// bookings; it only limits new admissions.
func (h *OrgHandler) UpdateSlot(c echo.Context) error {
	org, ok := orgID(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateSlotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TotalSlots != nil && *req.TotalSlots < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_slots must be at least 1", "field": "total_slots"})
	}
	if req.Price != nil && req.Price.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must not be negative", "field": "price"})
	}
	s, err := h.Slots.UpdateSlot(c.Request().Context(), org, id, model.SlotUpdate{
		TotalCapacity: req.TotalSlots,
		HourlyRate:    req.Price,
		Features:      req.Features,
		IsActive:      req.IsActive,
	})
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update slot failed"})
	}
	return c.JSON(http.StatusOK, slotView(*s, h.Inventory.Available(*s, h.Clock.Now())))
}

// ListBookings returns the bookings on the organization's slots.
func (h *OrgHandler) ListBookings(c echo.Context) error {
	org, ok := orgID(c)
	if !ok {
		return unauthorized(c)
	}
	bs, err := h.Bookings.ListBookingsByOrganization(c.Request().Context(), org)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, bookingViews(bs, h.loc()))
}

// ownedBooking loads a booking and checks that its slot belongs to org.
// Bookings of other organizations are reported as not found.
func (h *OrgHandler) ownedBooking(c echo.Context, org uint64) (*model.Booking, error) {
	id, ok := pathID(c)
	if !ok {
		return nil, &booking.ValidationError{Field: "id", Reason: "invalid id"}
	}
	ctx := c.Request().Context()
	b, err := h.Ledger.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s, err := h.Slots.GetSlot(ctx, b.SlotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, booking.ErrNotFound
		}
		return nil, &booking.StoreError{Op: "get slot", Err: err}
	}
	if s.OrganizationID != org {
		return nil, booking.ErrNotFound
	}
	return b, nil
}

// CheckIn records the vehicle's arrival at the gate.
func (h *OrgHandler) CheckIn(c echo.Context) error {
	org, ok := orgID(c)
	if !ok {
		return unauthorized(c)
	}
	b, err := h.ownedBooking(c, org)
	if err != nil {
		return writeError(c, err)
	}
	b, err = h.Ledger.CheckIn(c.Request().Context(), b.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, bookingView(*b, h.loc()))
}

// Cancel cancels one of the organization's bookings.
func (h *OrgHandler) Cancel(c echo.Context) error {
	org, ok := orgID(c)
	if !ok {
		return unauthorized(c)
	}
	b, err := h.ownedBooking(c, org)
	if err != nil {
		return writeError(c, err)
	}
	ctx := c.Request().Context()
	if err := h.Ledger.CancelBooking(ctx, b.ID); err != nil {
		return writeError(c, err)
	}
	b, err = h.Ledger.Get(ctx, b.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, bookingView(*b, h.loc()))
}

// DashboardStats summarises the organization: declared slot totals,
// bookings still running, units free right now and revenue of bookings
// starting this month.
func (h *OrgHandler) DashboardStats(c echo.Context) error {
	org, ok := orgID(c)
	if !ok {
		return unauthorized(c)
	}
	ctx := c.Request().Context()
	o, err := h.Orgs.GetOrganization(ctx, org)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "organization not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	now := h.Clock.Now()
	slots, err := h.Slots.ListSlotsByOrganization(ctx, org)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	available := 0
	for _, s := range slots {
		if !s.IsActive {
			continue
		}
		available += h.Inventory.Available(s, now)
	}
	active, err := h.Bookings.CountActiveBookings(ctx, org, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	local := now.In(h.loc())
	from := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, h.loc())
	revenue, err := h.Bookings.RevenueBetween(ctx, org, from, from.AddDate(0, 1, 0))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, model.DashboardStats{
		OrganizationName: o.Name,
		TotalSlots:       o.TotalSlots(),
		ActiveBookings:   active,
		AvailableSlots:   available,
		MonthlyRevenue:   revenue.StringFixed(2),
	})
}

package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/skip2/go-qrcode"

	"github.com/iliyamo/reserve-my-spot/internal/booking"
)

// DateTimeLayout is how the booking form sends dates and times joined by
// a space.
const DateTimeLayout = "2006-01-02 15:04"

// BookingHandler serves the customer booking flow.
type BookingHandler struct {
	Ledger   *booking.Ledger
	Verifier *booking.Verifier
	Loc      *time.Location // zone of startDate/startTime; UTC when nil
}

// createBookingReq mirrors the booking form.  A client-supplied totalCost
// is accepted but ignored; the cost is always computed server side.
type createBookingReq struct {
	Slot          uint64 `json:"slot"`
	CustomerName  string `json:"customerName"`
	PhoneNumber   string `json:"phoneNumber"`
	Email         string `json:"email"`
	VehicleType   string `json:"vehicleType"`
	VehicleNumber string `json:"vehicleNumber"`
	VehicleBrand  string `json:"vehicleBrand"`
	StartDate     string `json:"startDate"`
	StartTime     string `json:"startTime"`
	EndDate       string `json:"endDate"`
	EndTime       string `json:"endTime"`
}

type createBookingResp struct {
	ID        uint64      `json:"id"`
	Token     string      `json:"token"`
	PIN       string      `json:"pin"`
	TotalCost string      `json:"total_cost"`
	Status    string      `json:"status"`
	Booking   BookingView `json:"booking"`
}

type codesReq struct {
	Token string `json:"token"`
	PIN   string `json:"pin"`
}

type verifyReq struct {
	Method string `json:"method"` // token | pin
	Value  string `json:"value"`
}

type verifyResp struct {
	Valid      bool        `json:"valid"`
	ValidUntil time.Time   `json:"valid_until"`
	Booking    BookingView `json:"booking"`
}

func (h *BookingHandler) loc() *time.Location {
	if h.Loc == nil {
		return time.UTC
	}
	return h.Loc
}

func parseDateTime(loc *time.Location, date, clock string) (time.Time, bool) {
	t, err := time.ParseInLocation(DateTimeLayout, strings.TrimSpace(date)+" "+strings.TrimSpace(clock), loc)
	return t, err == nil
}

// Create books a slot and returns the access codes.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Slot == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot is required", "field": "slot"})
	}
	start, ok := parseDateTime(h.loc(), req.StartDate, req.StartTime)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start datetime", "field": "startDate"})
	}
	end, ok := parseDateTime(h.loc(), req.EndDate, req.EndTime)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end datetime", "field": "endDate"})
	}

	b, err := h.Ledger.CreateBooking(c.Request().Context(), booking.CreateBookingRequest{
		SlotID:        req.Slot,
		CustomerName:  req.CustomerName,
		Phone:         req.PhoneNumber,
		Email:         req.Email,
		VehicleType:   req.VehicleType,
		VehicleNumber: req.VehicleNumber,
		VehicleBrand:  req.VehicleBrand,
		Start:         start,
		End:           end,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, createBookingResp{
		ID:        b.ID,
		Token:     b.Token,
		PIN:       b.PIN,
		TotalCost: b.TotalCost.StringFixed(2),
		Status:    string(b.Status),
		Booking:   bookingView(*b, h.loc()),
	})
}

// Cancel lets a customer cancel with the token and PIN they received.
func (h *BookingHandler) Cancel(c echo.Context) error {
	var req codesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if _, err := h.Ledger.CancelWithCodes(c.Request().Context(), req.Token, req.PIN); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Verify resolves a token or PIN presented at the gate.
func (h *BookingHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	method := booking.Method(strings.ToLower(strings.TrimSpace(req.Method)))
	res, err := h.Verifier.Resolve(c.Request().Context(), method, req.Value)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, verifyResp{
		Valid:      res.Valid,
		ValidUntil: res.ValidUntil.In(h.loc()),
		Booking:    bookingView(res.Booking, h.loc()),
	})
}

// QR renders the token and PIN as a PNG for the confirmation page.
func (h *BookingHandler) QR(c echo.Context) error {
	token := booking.NormalizeToken(c.QueryParam("token"))
	pin := strings.TrimSpace(c.QueryParam("pin"))
	if len(token) != booking.TokenLength || !booking.ValidPIN(pin) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and pin are required"})
	}
	png, err := qrcode.Encode(fmt.Sprintf("Token: %s\nPIN: %s", token, pin), qrcode.Medium, 256)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Blob(http.StatusOK, "image/png", png)
}

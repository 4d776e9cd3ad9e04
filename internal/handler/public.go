// Package handler exposes the HTTP handlers.  This file holds the public
// slot listing and range availability used by the booking page.
package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reserve-my-spot/internal/booking"
)

// PublicHandler serves unauthenticated browsing.
type PublicHandler struct {
	Slots     SlotStore
	Inventory *booking.Inventory
	Clock     booking.Clock
	Loc       *time.Location // zone of the availability query; UTC when nil
}

type availabilityResp struct {
	Slot       uint64 `json:"slot"`
	Available  bool   `json:"available"`
	TotalSlots int    `json:"total_slots"`
	Booked     int    `json:"booked"`
	Free       int    `json:"free"`
	TotalCost  string `json:"total_cost"`
}

// ListSlots returns every active slot with the number of units free right
// now.
func (h *PublicHandler) ListSlots(c echo.Context) error {
	slots, err := h.Slots.ListActiveSlots(c.Request().Context())
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

// Availability answers whether a range can still be booked on one slot and
// quotes its cost.  The answer is advisory; only booking creation admits.
func (h *PublicHandler) Availability(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	loc := h.Loc
	if loc == nil {
		loc = time.UTC
	}
	start, ok := parseDateTime(loc, c.QueryParam("startDate"), c.QueryParam("startTime"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start datetime", "field": "startDate"})
	}
	end, ok := parseDateTime(loc, c.QueryParam("endDate"), c.QueryParam("endTime"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end datetime", "field": "endDate"})
	}
	rng, err := booking.NewTimeRange(start, end)
	if err != nil {
		return writeError(c, err)
	}
	ctx := c.Request().Context()
	av, err := h.Inventory.CheckAvailability(ctx, id, rng)
	if err != nil {
		return writeError(c, err)
	}
	slot, err := h.Slots.GetSlot(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	cost, err := booking.ComputeCost(rng, slot.HourlyRate)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, availabilityResp{
		Slot:       id,
		Available:  av.Admit,
		TotalSlots: av.Capacity,
		Booked:     av.InUse,
		Free:       av.Free(),
		TotalCost:  cost.StringFixed(2),
	})
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	defaultAdminLimit = 200
	maxAdminLimit     = 1000
)

// AdminHandler serves the platform administrator's lists.
type AdminHandler struct {
	Orgs     OrganizationStore
	Bookings BookingQueries
	Loc      *time.Location
}

// ListOrganizations returns every registered organization.
func (h *AdminHandler) ListOrganizations(c echo.Context) error {
	orgs, err := h.Orgs.ListOrganizations(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]OrganizationView, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, organizationView(o))
	}
	return c.JSON(http.StatusOK, out)
}

// ListBookings returns the most recent bookings across all organizations.
// ?limit= caps the result (default 200, max 1000).
func (h *AdminHandler) ListBookings(c echo.Context) error {
	limit := defaultAdminLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = min(n, maxAdminLimit)
	}
	bs, err := h.Bookings.ListBookings(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	loc := h.Loc
	if loc == nil {
		loc = time.UTC
	}
	return c.JSON(http.StatusOK, bookingViews(bs, loc))
}

package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reserve-my-spot/internal/booking"
)

// writeError maps a booking error to its HTTP response.  Unknown errors
// are logged and reported as 500 without detail.
func writeError(c echo.Context, err error) error {
	var (
		verr *booking.ValidationError
		terr *booking.TransitionError
	)
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Reason, "field": verr.Field})
	case errors.Is(err, booking.ErrInvalidRange):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end must be after start and in the future", "reason": string(booking.ReasonInvalidRange)})
	case errors.Is(err, booking.ErrSlotFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no capacity left for that time range", "reason": string(booking.ReasonSlotFull)})
	case errors.Is(err, booking.ErrSlotUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot is not accepting bookings", "reason": string(booking.ReasonSlotUnavailable)})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.As(err, &terr):
		return c.JSON(http.StatusConflict, echo.Map{"error": terr.Error(), "status": terr.From})
	case errors.Is(err, booking.ErrOutsideWindow):
		return c.JSON(http.StatusConflict, echo.Map{"error": "outside the booking window"})
	case errors.Is(err, booking.ErrCodeSpaceExhausted):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "no access codes available, try again later"})
	case errors.Is(err, booking.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable"})
	}
	log.Printf("handler: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

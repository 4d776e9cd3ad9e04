package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reserve-my-spot/internal/config"
	"github.com/iliyamo/reserve-my-spot/internal/middleware"
)

// RegisterBooking registers the customer booking flow.  State-changing
// routes require the CSRF header, are rate limited per client and purge
// the slot listing cache on success.
func RegisterBooking(e *echo.Echo, d Deps) {
	create := middleware.NewTokenBucket(config.LoadRateLimitConfig("BOOKING"), d.Redis)
	verify := middleware.NewTokenBucket(config.LoadRateLimitConfig("VERIFY"), d.Redis)
	purge := middleware.InvalidateCache(d.Cache, d.Redis)

	g := e.Group("/api")
	g.POST("/bookings/", d.Booking.Create, csrf(d.Cfg), create, purge)
	g.POST("/bookings/cancel/", d.Booking.Cancel, csrf(d.Cfg), create, purge)
	g.GET("/bookings/qr", d.Booking.QR)
	g.POST("/verify/", d.Booking.Verify, verify)
}

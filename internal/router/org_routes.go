package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reserve-my-spot/internal/middleware"
)

// RegisterOrganization registers the organization dashboard endpoints.
// All routes require a valid JWT with the organization role.  Writes purge
// the public slot listing cache.
func RegisterOrganization(e *echo.Echo, d Deps) {
	g := e.Group(
		"/api",
		middleware.JWTAuth(d.Cfg.JWTSecret),
		middleware.RequireRole(middleware.RoleOrganization),
	)
	purge := middleware.InvalidateCache(d.Cache, d.Redis)

	g.GET("/org-slots/", d.Org.ListSlots)
	g.POST("/org-slots/", d.Org.CreateSlot, purge)
	g.PATCH("/org-slots/:id/", d.Org.UpdateSlot, purge)
	g.GET("/org-bookings/", d.Org.ListBookings)
	g.POST("/org-bookings/:id/check-in/", d.Org.CheckIn)
	g.POST("/org-bookings/:id/cancel/", d.Org.Cancel, purge)
	g.GET("/org-dashboard-stats/", d.Org.DashboardStats)
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/reserve-my-spot/internal/middleware"
)

// RegisterAdmin registers the platform administrator's read-only lists.
func RegisterAdmin(e *echo.Echo, d Deps) {
	jwt := middleware.JWTAuth(d.Cfg.JWTSecret)
	admin := middleware.RequireRole(middleware.RoleAdmin)

	e.GET("/api/organizations/", d.Admin.ListOrganizations, jwt, admin)
	e.GET("/api/admin/bookings/", d.Admin.ListBookings, jwt, admin)
}

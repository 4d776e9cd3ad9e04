package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/reserve-my-spot/internal/config"
	"github.com/iliyamo/reserve-my-spot/internal/handler"
	"github.com/iliyamo/reserve-my-spot/internal/middleware"
)

// Deps carries everything the routes need.  Redis may be nil, which turns
// rate limiting and caching into pass-throughs.
type Deps struct {
	Cfg     config.Config
	Cache   config.CacheConfig
	Redis   *redis.Client
	Health  *handler.HealthHandler
	Public  *handler.PublicHandler
	Booking *handler.BookingHandler
	Auth    *handler.AuthHandler
	Org     *handler.OrgHandler
	Admin   *handler.AdminHandler
}

// RegisterRoutes registers every route group on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", d.Health.Health)
	e.GET("/readyz", d.Health.Ready)

	RegisterPublic(e, d)
	RegisterBooking(e, d)
	RegisterAuth(e, d)
	RegisterOrganization(e, d)
	RegisterAdmin(e, d)
}

// csrf mirrors the booking form's contract: the token is issued in the
// csrftoken cookie and echoed back in the X-CSRFToken header.  Safe
// methods pass and set the cookie.
func csrf(cfg config.Config) echo.MiddlewareFunc {
	if !cfg.CSRFEnabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		TokenLookup:    "header:X-CSRFToken",
		CookieName:     "csrftoken",
		CookiePath:     "/",
		CookieHTTPOnly: false,
		CookieSameSite: http.SameSiteLaxMode,
	})
}

// RegisterPublic registers the unauthenticated, cached slot listing and the
// uncached range availability query.  A GET on the listing also hands out
// the CSRF cookie used by the booking form.
func RegisterPublic(e *echo.Echo, d Deps) {
	e.GET("/api/slots/", d.Public.ListSlots, csrf(d.Cfg), middleware.NewRedisCache(d.Cache, d.Redis))
	e.GET("/api/slots/:id/availability", d.Public.Availability)
}

// RegisterAuth registers organization signup and operator login.
func RegisterAuth(e *echo.Echo, d Deps) {
	login := middleware.NewTokenBucket(config.LoadRateLimitConfig("LOGIN"), d.Redis)
	e.POST("/api/organizations/", d.Auth.RegisterOrganization, csrf(d.Cfg))
	e.POST("/api/auth/login/", d.Auth.Login, login)
}

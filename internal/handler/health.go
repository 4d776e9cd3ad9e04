package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"net/http" // net/http provides status codes and response helpers
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.  DB is nil when the
// in-memory store is in use.
type HealthHandler struct {
	DB Pinger
}

// Health is a simple liveness endpoint used by load balancers and
// monitoring systems.  It returns a plain text "ok" with 200.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Ready additionally pings the database and answers 503 when it is
// unreachable.
func (h *HealthHandler) Ready(c echo.Context) error {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "database unavailable"})
		}
	}
	return c.String(http.StatusOK, "ready")
}

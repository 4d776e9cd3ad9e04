package middleware

// identity.go holds helpers shared by handlers and middleware for reading
// the authenticated principal stored by JWTAuth.

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ErrNoPrincipal is returned when the context carries no usable subject.
var ErrNoPrincipal = errors.New("invalid principal in context")

// PrincipalID returns the numeric subject of the access token.  JSON
// numbers decode as float64, so every numeric form is accepted.
func PrincipalID(c echo.Context) (uint64, error) {
	switch t := c.Get(CtxPrincipalID).(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		if t > 0 {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, ErrNoPrincipal
}

// Role returns the role claim, or "" when unauthenticated.
func Role(c echo.Context) string {
	s, _ := c.Get(CtxRole).(string)
	return s
}

// principalKey identifies the caller for rate limiting: the principal
// when authenticated, otherwise "anon".
func principalKey(c echo.Context) string {
	if id, err := PrincipalID(c); err == nil {
		return Role(c) + "-" + strconv.FormatUint(id, 10)
	}
	return "anon"
}

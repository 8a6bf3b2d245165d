package middleware

import (
	"net/http"
	"strings"

	"makono-backend/internal/domain/identity"

	"github.com/labstack/echo/v4"
)

const userContextKey = "makono.user"

// Identity trusts the gateway-supplied Ax-User-Id / Ax-User-Role headers.
// A missing role means a regular user.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header
			userID := strings.TrimSpace(h.Get(HeaderUserID))
			if userID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing " + HeaderUserID})
			}
			if !reUserID.MatchString(userID) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid " + HeaderUserID})
			}
			role := identity.Role(strings.ToLower(strings.TrimSpace(h.Get(HeaderUserRole))))
			if role == "" {
				role = identity.RoleUser
			}
			if !role.Valid() {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid " + HeaderUserRole})
			}
			c.Set(userContextKey, identity.User{ID: userID, Role: role})
			return next(c)
		}
	}
}

// UserFrom returns the caller stored by Identity, or the zero User.
func UserFrom(c echo.Context) identity.User {
	u, _ := c.Get(userContextKey).(identity.User)
	return u
}

// WithUser stores u on the context; handlers under test use it in place of Identity.
func WithUser(c echo.Context, u identity.User) {
	c.Set(userContextKey, u)
}

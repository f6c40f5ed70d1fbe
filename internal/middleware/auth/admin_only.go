package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/honestybar/internal/logging"
	"github.com/Skotchmaster/honestybar/internal/policy"
)

// Require lets the request through only when the principal may perform
// action. It must run after RequireAuth.
func Require(action policy.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", "UNAUTHORIZED"))
			}
			if !policy.CanAccess(*p, "", action) {
				logging.FromContext(c.Request().Context()).
					Warn("access_denied", "status", http.StatusForbidden, "user_id", p.ID, "action", string(action))
				return c.JSON(http.StatusForbidden, errorBody("forbidden", "FORBIDDEN"))
			}
			return next(c)
		}
	}
}

func RequireAdmin() echo.MiddlewareFunc {
	return Require(policy.ActionManageUsers)
}

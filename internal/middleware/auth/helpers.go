package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/honestybar/internal/models"
	"github.com/Skotchmaster/honestybar/internal/transport"
)

const principalKey = "principal"

// PrincipalFrom returns the identity RequireAuth stored on c.
func PrincipalFrom(c echo.Context) (*models.Principal, bool) {
	p, ok := c.Get(principalKey).(*models.Principal)
	if !ok || p == nil || p.ID == "" {
		return nil, false
	}
	return p, true
}

func errorBody(msg, code string) transport.ErrorResponse {
	return transport.ErrorResponse{Error: msg, Code: code}
}

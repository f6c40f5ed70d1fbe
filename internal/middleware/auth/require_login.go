package auth

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/honestybar/internal/logging"
	"github.com/Skotchmaster/honestybar/internal/tokens"
)

type Middleware struct {
	Issuer *tokens.Issuer
}

func New(issuer *tokens.Issuer) *Middleware {
	return &Middleware{Issuer: issuer}
}

// RequireAuth accepts "Authorization: Bearer <token>" and stores the verified
// principal on the context. Missing, malformed, expired and forged tokens all
// get the same 401.
func (m *Middleware) RequireAuth() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  principalKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return m.Issuer.Verify(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logging.FromContext(c.Request().Context()).
				Warn("auth_error", "status", http.StatusUnauthorized, "error", err)
			return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", "UNAUTHORIZED"))
		},
	})
}

package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/honestybar/internal/middleware/auth"
	"github.com/Skotchmaster/honestybar/internal/models"
	"github.com/Skotchmaster/honestybar/internal/tokens"
)

func principal(c echo.Context) (models.Principal, error) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		return models.Principal{}, tokens.ErrUnauthorized
	}
	return *p, nil
}

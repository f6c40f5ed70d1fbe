package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/honestybar/internal/logging"
	"github.com/Skotchmaster/honestybar/internal/service"
	"github.com/Skotchmaster/honestybar/internal/transport"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "login_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, l, "login_error", "name and password are required", err)
	}

	res, err := h.Svc.Login(ctx, req.Name, req.Password)
	if err != nil {
		return respondError(c, l, "login_error", err)
	}

	l.Info("user logged in")
	return c.JSON(http.StatusOK, res)
}

func (h *UserHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.create")

	var req transport.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "create_user_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, l, "create_user_error", "name and password are required, role must be admin or user", err)
	}

	user, err := h.Svc.Create(ctx, req)
	if err != nil {
		return respondError(c, l, "create_user_error", err)
	}

	return c.JSON(http.StatusCreated, user)
}

func (h *UserHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete")

	id := c.Param("id")
	if err := h.Svc.Delete(ctx, id); err != nil {
		return respondError(c, l, "delete_user_error", err)
	}

	l.Info("user deleted", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.me")

	p, err := principal(c)
	if err != nil {
		return respondError(c, l, "get_profile_error", err)
	}

	user, err := h.Svc.Profile(ctx, p.ID)
	if err != nil {
		return respondError(c, l, "get_profile_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/honestybar/internal/domain"
	"github.com/Skotchmaster/honestybar/internal/tokens"
	"github.com/Skotchmaster/honestybar/internal/transport"
)

type errorKind struct {
	status  int
	code    string
	message string
}

// classify maps a service error to the response the client sees. Unknown
// errors are internal and their text is never sent.
func classify(err error) errorKind {
	switch {
	case errors.Is(err, domain.ErrCheckoutIncomplete):
		return errorKind{http.StatusInternalServerError, "CHECKOUT_INCOMPLETE", "purchase recorded but cart was not cleared"}
	case errors.Is(err, domain.ErrValidation):
		return errorKind{http.StatusBadRequest, "VALIDATION_ERROR", err.Error()}
	case errors.Is(err, domain.ErrEmptyCart):
		return errorKind{http.StatusBadRequest, "EMPTY_CART", "cart is empty"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return errorKind{http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials"}
	case errors.Is(err, tokens.ErrUnauthorized):
		return errorKind{http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"}
	case errors.Is(err, domain.ErrForbidden):
		return errorKind{http.StatusForbidden, "FORBIDDEN", "forbidden"}
	case errors.Is(err, domain.ErrNotFound):
		return errorKind{http.StatusNotFound, "NOT_FOUND", "not found"}
	case errors.Is(err, domain.ErrConflict):
		return errorKind{http.StatusConflict, "CONFLICT", err.Error()}
	default:
		return errorKind{http.StatusInternalServerError, "INTERNAL", "internal server error"}
	}
}

func respondError(c echo.Context, l *slog.Logger, event string, err error) error {
	k := classify(err)
	if k.status >= http.StatusInternalServerError {
		l.Error(event, "status", k.status, "code", k.code, "error", err)
	} else {
		l.Warn(event, "status", k.status, "code", k.code, "error", err)
	}
	return c.JSON(k.status, transport.ErrorResponse{Error: k.message, Code: k.code})
}

func badRequest(c echo.Context, l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return c.JSON(http.StatusBadRequest, transport.ErrorResponse{Error: reason, Code: "BAD_REQUEST"})
}

var statusCodes = map[int]string{
	http.StatusBadRequest:            "BAD_REQUEST",
	http.StatusUnauthorized:          "UNAUTHORIZED",
	http.StatusForbidden:             "FORBIDDEN",
	http.StatusNotFound:              "NOT_FOUND",
	http.StatusMethodNotAllowed:      "METHOD_NOT_ALLOWED",
	http.StatusConflict:              "CONFLICT",
	http.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
	http.StatusTooManyRequests:       "RATE_LIMITED",
}

// ErrorHandler renders errors that escape handlers (unknown routes, rate
// limiting, panics turned into errors) in the same body shape as handler
// errors.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := http.StatusText(status)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(status)
		}
	}

	code, ok := statusCodes[status]
	if !ok {
		code = "INTERNAL"
		if status < http.StatusInternalServerError {
			code = "ERROR"
		}
	}
	if status >= http.StatusInternalServerError {
		msg = "internal server error"
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, transport.ErrorResponse{Error: msg, Code: code})
	}
	if werr != nil {
		c.Logger().Error(werr)
	}
}

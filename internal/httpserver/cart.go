package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/honestybar/internal/domain"
	"github.com/Skotchmaster/honestybar/internal/logging"
	"github.com/Skotchmaster/honestybar/internal/models"
	"github.com/Skotchmaster/honestybar/internal/transport"
)

// CartService is implemented by *service.CartService.
type CartService interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error)
	Clear(ctx context.Context, p models.Principal, userID string) (*models.Cart, error)
	Checkout(ctx context.Context, userID string) (*models.Purchase, error)
	History(ctx context.Context, p models.Principal, userID string) ([]models.Purchase, error)
}

type CartHTTP struct {
	Svc CartService
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	p, err := principal(c)
	if err != nil {
		return respondError(c, l, "get_cart_error", err)
	}

	cart, err := h.Svc.Get(ctx, p.ID)
	if err != nil {
		return respondError(c, l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	p, err := principal(c)
	if err != nil {
		return respondError(c, l, "add_to_cart_error", err)
	}

	var req transport.AddItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "add_to_cart_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, l, "add_to_cart_error", "productId is required", err)
	}

	cart, err := h.Svc.AddItem(ctx, p.ID, req.ProductID, req.Qty())
	if err != nil {
		return respondError(c, l, "add_to_cart_error", err)
	}

	l.Info("item added to cart", "product_id", req.ProductID)
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	p, err := principal(c)
	if err != nil {
		return respondError(c, l, "remove_from_cart_error", err)
	}

	cart, err := h.Svc.RemoveItem(ctx, p.ID, c.Param("productId"))
	if err != nil {
		return respondError(c, l, "remove_from_cart_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}

// Clear empties the caller's cart, or the cart named by :userId.
func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	p, err := principal(c)
	if err != nil {
		return respondError(c, l, "clear_cart_error", err)
	}

	target := c.Param("userId")
	if target == "" {
		target = p.ID
	}

	cart, err := h.Svc.Clear(ctx, p, target)
	if err != nil {
		return respondError(c, l, "clear_cart_error", err)
	}

	l.Info("cart cleared", "user_id", target)
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	p, err := principal(c)
	if err != nil {
		return respondError(c, l, "checkout_error", err)
	}

	purchase, err := h.Svc.Checkout(ctx, p.ID)
	if errors.Is(err, domain.ErrCheckoutIncomplete) && purchase != nil {
		l.Error("checkout_error", "status", http.StatusInternalServerError, "purchase_id", purchase.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, transport.ErrorResponse{
			Error: "purchase " + purchase.ID + " recorded but cart was not cleared",
			Code:  "CHECKOUT_INCOMPLETE",
		})
	}
	if err != nil {
		return respondError(c, l, "checkout_error", err)
	}

	return c.JSON(http.StatusOK, purchase)
}

// History lists the caller's purchases, or those of :userId.
func (h *CartHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.history")

	p, err := principal(c)
	if err != nil {
		return respondError(c, l, "get_history_error", err)
	}

	target := c.Param("userId")
	if target == "" {
		target = p.ID
	}

	history, err := h.Svc.History(ctx, p, target)
	if err != nil {
		return respondError(c, l, "get_history_error", err)
	}
	return c.JSON(http.StatusOK, history)
}

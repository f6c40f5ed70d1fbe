package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/honestybar/internal/logging"
	"github.com/Skotchmaster/honestybar/internal/service"
	"github.com/Skotchmaster/honestybar/internal/transport"
)

type ProductHTTP struct {
	Svc *service.CatalogService
}

func (h *ProductHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	p, err := principal(c)
	if err != nil {
		return respondError(c, l, "list_products_error", err)
	}

	products, err := h.Svc.List(ctx, p)
	if err != nil {
		return respondError(c, l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	p, err := principal(c)
	if err != nil {
		return respondError(c, l, "get_product_error", err)
	}

	product, err := h.Svc.Get(ctx, p, c.Param("id"))
	if err != nil {
		return respondError(c, l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "create_product_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, l, "create_product_error", "name is required, cost and price must be non-negative", err)
	}

	product, err := h.Svc.Create(ctx, req)
	if err != nil {
		return respondError(c, l, "create_product_error", err)
	}

	l.Info("product created", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, l, "update_product_error", "invalid body", err)
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, l, "update_product_error", "name cannot be empty, cost and price must be non-negative", err)
	}

	product, err := h.Svc.Update(ctx, c.Param("id"), req)
	if err != nil {
		return respondError(c, l, "update_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id := c.Param("id")
	if _, err := h.Svc.Delete(ctx, id); err != nil {
		return respondError(c, l, "delete_product_error", err)
	}

	l.Info("product retired", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

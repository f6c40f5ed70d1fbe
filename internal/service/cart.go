package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/honestybar/internal/domain"
	"github.com/Skotchmaster/honestybar/internal/logging"
	"github.com/Skotchmaster/honestybar/internal/models"
	"github.com/Skotchmaster/honestybar/internal/policy"
	"github.com/Skotchmaster/honestybar/internal/repo"
)

type CartService struct {
	Repo     *repo.CartRepo
	Products *repo.ProductRepo
}

func (s *CartService) Get(ctx context.Context, userID string) (*models.Cart, error) {
	return s.Repo.Get(ctx, userID)
}

// AddItem puts quantity units of productID in the user's cart. Retired
// products cannot be added.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	if productID == "" {
		return nil, fmt.Errorf("productId is required: %w", domain.ErrValidation)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", domain.ErrValidation)
	}

	prod, err := s.Products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !prod.Active() {
		return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}

	return s.Repo.AddItem(ctx, userID, *prod, quantity)
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	return s.Repo.RemoveItem(ctx, userID, productID)
}

func (s *CartService) Clear(ctx context.Context, p models.Principal, userID string) (*models.Cart, error) {
	if !policy.CanAccess(p, userID, policy.ActionClearCart) {
		return nil, domain.ErrForbidden
	}
	return s.Repo.Clear(ctx, userID)
}

func (s *CartService) Checkout(ctx context.Context, userID string) (*models.Purchase, error) {
	l := logging.FromContext(ctx).With("svc", "cart.checkout", "user_id", userID)

	purchase, err := s.Repo.Checkout(ctx, userID)
	if errors.Is(err, domain.ErrCheckoutIncomplete) {
		l.Error("checkout_incomplete", "purchase_id", purchase.ID, "error", err)
		return purchase, err
	}
	if err != nil {
		return nil, err
	}

	l.Info("checkout completed", "purchase_id", purchase.ID, "items", len(purchase.Items))
	return purchase, nil
}

func (s *CartService) History(ctx context.Context, p models.Principal, userID string) ([]models.Purchase, error) {
	if !policy.CanAccess(p, userID, policy.ActionReadHistory) {
		return nil, domain.ErrForbidden
	}
	return s.Repo.History(ctx, userID)
}

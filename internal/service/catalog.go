package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/honestybar/internal/domain"
	"github.com/Skotchmaster/honestybar/internal/models"
	"github.com/Skotchmaster/honestybar/internal/policy"
	"github.com/Skotchmaster/honestybar/internal/repo"
	"github.com/Skotchmaster/honestybar/internal/transport"
)

type CatalogService struct {
	Repo *repo.ProductRepo
}

// List returns the products p may see: everything for admins, only active
// products for everyone else.
func (s *CatalogService) List(ctx context.Context, p models.Principal) ([]models.Product, error) {
	products, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if policy.CanAccess(p, "", policy.ActionViewInactiveProducts) {
		return products, nil
	}

	active := make([]models.Product, 0, len(products))
	for _, prod := range products {
		if prod.Active() {
			active = append(active, prod)
		}
	}
	return active, nil
}

// Get hides retired products from non-admins behind the same NotFound an
// unknown id produces.
func (s *CatalogService) Get(ctx context.Context, p models.Principal, id string) (*models.Product, error) {
	prod, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !prod.Active() && !policy.CanAccess(p, "", policy.ActionViewInactiveProducts) {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return prod, nil
}

func (s *CatalogService) Create(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if req.Cost < 0 || req.Price < 0 {
		return nil, fmt.Errorf("cost and price cannot be negative: %w", domain.ErrValidation)
	}

	prod := &models.Product{
		Name:  name,
		Cost:  req.Cost,
		Price: req.Price,
		Image: req.Image,
	}
	if err := s.Repo.Create(ctx, prod); err != nil {
		return nil, err
	}
	return prod, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, patch transport.PatchProductRequest) (*models.Product, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", domain.ErrValidation)
		}
		patch.Name = &name
	}
	if (patch.Cost != nil && *patch.Cost < 0) || (patch.Price != nil && *patch.Price < 0) {
		return nil, fmt.Errorf("cost and price cannot be negative: %w", domain.ErrValidation)
	}
	return s.Repo.Update(ctx, id, patch)
}

func (s *CatalogService) Delete(ctx context.Context, id string) (*models.Product, error) {
	return s.Repo.Delete(ctx, id)
}

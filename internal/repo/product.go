package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/honestybar/internal/domain"
	"github.com/Skotchmaster/honestybar/internal/filestore"
	"github.com/Skotchmaster/honestybar/internal/models"
	"github.com/Skotchmaster/honestybar/internal/transport"
)

type ProductRepo struct {
	fs   *filestore.Store
	path string
	now  func() time.Time
}

func NewProductRepo(fs *filestore.Store) *ProductRepo {
	return &ProductRepo{fs: fs, path: fs.Path("products.json"), now: now}
}

func (r *ProductRepo) Init(ctx context.Context) error {
	unlock, err := r.fs.Lock(ctx, r.path)
	if err != nil {
		return err
	}
	defer unlock()

	return filestore.EnsureJSON(r.path, []models.Product{})
}

// List returns every product, retired ones included.
func (r *ProductRepo) List(ctx context.Context) ([]models.Product, error) {
	return loadCollection[models.Product](r.path)
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*models.Product, error) {
	products, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
}

func (r *ProductRepo) Create(ctx context.Context, p *models.Product) error {
	unlock, err := r.fs.Lock(ctx, r.path)
	if err != nil {
		return err
	}
	defer unlock()

	products, err := loadCollection[models.Product](r.path)
	if err != nil {
		return err
	}

	ts := r.now()
	p.ID = uuid.NewString()
	p.IsActive = true
	p.CreatedAt = ts
	p.UpdatedAt = ts

	products = append(products, *p)
	return filestore.WriteJSON(r.path, products)
}

func (r *ProductRepo) Update(ctx context.Context, id string, patch transport.PatchProductRequest) (*models.Product, error) {
	return r.mutate(ctx, id, func(p *models.Product) {
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Cost != nil {
			p.Cost = *patch.Cost
		}
		if patch.Price != nil {
			p.Price = *patch.Price
		}
		if patch.Image != nil {
			p.Image = *patch.Image
		}
		if patch.IsActive != nil {
			p.IsActive = *patch.IsActive
		}
	})
}

// Delete retires the product. The record stays so carts and history that
// reference it remain valid.
func (r *ProductRepo) Delete(ctx context.Context, id string) (*models.Product, error) {
	return r.mutate(ctx, id, func(p *models.Product) {
		p.IsActive = false
	})
}

func (r *ProductRepo) mutate(ctx context.Context, id string, fn func(*models.Product)) (*models.Product, error) {
	unlock, err := r.fs.Lock(ctx, r.path)
	if err != nil {
		return nil, err
	}
	defer unlock()

	products, err := loadCollection[models.Product](r.path)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range products {
		if products[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}

	fn(&products[idx])
	products[idx].UpdatedAt = r.now()

	if err := filestore.WriteJSON(r.path, products); err != nil {
		return nil, err
	}
	out := products[idx]
	return &out, nil
}

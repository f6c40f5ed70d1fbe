package repo

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/honestybar/internal/domain"
	"github.com/Skotchmaster/honestybar/internal/filestore"
	"github.com/Skotchmaster/honestybar/internal/models"
)

const historySuffix = "_history"

type CartRepo struct {
	fs    *filestore.Store
	dir   string
	now   func() time.Time
	write func(path string, v any) error
}

func NewCartRepo(fs *filestore.Store) *CartRepo {
	return &CartRepo{fs: fs, dir: fs.Path("carts"), now: now, write: filestore.WriteJSON}
}

func (r *CartRepo) Init(ctx context.Context) error {
	return filestore.EnsureDir(r.dir)
}

// checkUserID also rejects ids ending in the history suffix: carts and
// histories share a directory, so "u1_history" as a cart would be u1's
// history file.
func checkUserID(userID string) error {
	if err := checkID(userID); err != nil {
		return err
	}
	if strings.HasSuffix(userID, historySuffix) {
		return fmt.Errorf("%w: reserved user id %q", domain.ErrValidation, userID)
	}
	return nil
}

func (r *CartRepo) cartPath(userID string) (string, error) {
	if err := checkUserID(userID); err != nil {
		return "", err
	}
	return r.fs.Path("carts", userID+".json"), nil
}

func (r *CartRepo) historyPath(userID string) (string, error) {
	if err := checkUserID(userID); err != nil {
		return "", err
	}
	return r.fs.Path("carts", userID+historySuffix+".json"), nil
}

func (r *CartRepo) load(path, userID string) (*models.Cart, error) {
	var cart models.Cart
	found, err := filestore.ReadJSON(path, &cart)
	if err != nil {
		return nil, err
	}
	if !found {
		return models.NewCart(userID, r.now()), nil
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}

// Get returns the user's cart. A user without a cart file gets a fresh empty
// cart that is not persisted.
func (r *CartRepo) Get(ctx context.Context, userID string) (*models.Cart, error) {
	path, err := r.cartPath(userID)
	if err != nil {
		return nil, err
	}
	return r.load(path, userID)
}

// AddItem adds quantity of p to the cart, merging with an existing line for
// the same product. Name, price and image are snapshotted from p.
func (r *CartRepo) AddItem(ctx context.Context, userID string, p models.Product, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1: %w", domain.ErrValidation)
	}

	var overflow bool
	cart, err := r.update(ctx, userID, func(cart *models.Cart) bool {
		for i := range cart.Items {
			if cart.Items[i].ProductID == p.ID {
				if cart.Items[i].Quantity > math.MaxInt-quantity {
					overflow = true
					return false
				}
				cart.Items[i].Quantity += quantity
				return true
			}
		}
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     p.Image,
			Quantity:  quantity,
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	if overflow {
		return nil, fmt.Errorf("quantity for product %s is too large: %w", p.ID, domain.ErrValidation)
	}
	return cart, nil
}

// RemoveItem drops the line for productID. A missing line leaves the cart
// untouched.
func (r *CartRepo) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	return r.update(ctx, userID, func(cart *models.Cart) bool {
		kept := make([]models.CartItem, 0, len(cart.Items))
		for _, it := range cart.Items {
			if it.ProductID != productID {
				kept = append(kept, it)
			}
		}
		if len(kept) == len(cart.Items) {
			return false
		}
		cart.Items = kept
		return true
	})
}

func (r *CartRepo) Clear(ctx context.Context, userID string) (*models.Cart, error) {
	path, err := r.cartPath(userID)
	if err != nil {
		return nil, err
	}

	unlock, err := r.fs.Lock(ctx, path)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return r.clearLocked(path, userID)
}

func (r *CartRepo) clearLocked(path, userID string) (*models.Cart, error) {
	cart := models.NewCart(userID, r.now())
	if err := r.write(path, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Checkout appends the cart to the user's history and clears it. The cart
// lock is held across both writes; the history lock is taken second.
//
// If the history append fails nothing has changed. If clearing fails after
// the append, the recorded purchase is returned with ErrCheckoutIncomplete.
func (r *CartRepo) Checkout(ctx context.Context, userID string) (*models.Purchase, error) {
	cartPath, err := r.cartPath(userID)
	if err != nil {
		return nil, err
	}
	histPath, err := r.historyPath(userID)
	if err != nil {
		return nil, err
	}

	unlock, err := r.fs.Lock(ctx, cartPath)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err := r.load(cartPath, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	purchase := models.Purchase{
		ID:          uuid.NewString(),
		Cart:        *cart,
		PurchasedAt: r.now(),
	}
	if err := r.appendHistory(ctx, histPath, purchase); err != nil {
		return nil, err
	}

	if _, err := r.clearLocked(cartPath, userID); err != nil {
		return &purchase, fmt.Errorf("%w: %w", domain.ErrCheckoutIncomplete, err)
	}
	return &purchase, nil
}

func (r *CartRepo) appendHistory(ctx context.Context, path string, p models.Purchase) error {
	unlock, err := r.fs.Lock(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()

	var history []models.Purchase
	if _, err := filestore.ReadJSON(path, &history); err != nil {
		return err
	}
	history = append(history, p)

	return r.write(path, history)
}

// History lists purchases oldest first. No history file means no purchases.
func (r *CartRepo) History(ctx context.Context, userID string) ([]models.Purchase, error) {
	path, err := r.historyPath(userID)
	if err != nil {
		return nil, err
	}

	var history []models.Purchase
	if _, err := filestore.ReadJSON(path, &history); err != nil {
		return nil, err
	}
	if history == nil {
		history = []models.Purchase{}
	}
	return history, nil
}

// update runs fn on the cart under its lock and persists the result when fn
// reports a change.
func (r *CartRepo) update(ctx context.Context, userID string, fn func(*models.Cart) bool) (*models.Cart, error) {
	path, err := r.cartPath(userID)
	if err != nil {
		return nil, err
	}

	unlock, err := r.fs.Lock(ctx, path)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cart, err := r.load(path, userID)
	if err != nil {
		return nil, err
	}
	if !fn(cart) {
		return cart, nil
	}

	cart.UpdatedAt = r.now()
	if err := r.write(path, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/honestybar/internal/domain"
	"github.com/Skotchmaster/honestybar/internal/filestore"
	"github.com/Skotchmaster/honestybar/internal/models"
)

type UserRepo struct {
	fs   *filestore.Store
	path string
}

func NewUserRepo(fs *filestore.Store) *UserRepo {
	return &UserRepo{fs: fs, path: fs.Path("users.json")}
}

func (r *UserRepo) Init(ctx context.Context) error {
	unlock, err := r.fs.Lock(ctx, r.path)
	if err != nil {
		return err
	}
	defer unlock()

	return filestore.EnsureJSON(r.path, []models.User{})
}

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	return loadCollection[models.User](r.path)
}

func (r *UserRepo) FindByName(ctx context.Context, name string) (*models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Name == name {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", name, domain.ErrNotFound)
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
}

// Create assigns an id and persists u. Names are unique; the check runs
// under the same lock as the write.
func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	unlock, err := r.fs.Lock(ctx, r.path)
	if err != nil {
		return err
	}
	defer unlock()

	users, err := loadCollection[models.User](r.path)
	if err != nil {
		return err
	}
	for _, existing := range users {
		if existing.Name == u.Name {
			return fmt.Errorf("user %q already exists: %w", u.Name, domain.ErrConflict)
		}
	}

	u.ID = uuid.NewString()
	users = append(users, *u)

	return filestore.WriteJSON(r.path, users)
}

// Delete removes the user with id. Unknown ids are a no-op.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	unlock, err := r.fs.Lock(ctx, r.path)
	if err != nil {
		return err
	}
	defer unlock()

	users, err := loadCollection[models.User](r.path)
	if err != nil {
		return err
	}

	kept := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(users) {
		return nil
	}

	return filestore.WriteJSON(r.path, kept)
}

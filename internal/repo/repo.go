package repo

import (
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/honestybar/internal/domain"
	"github.com/Skotchmaster/honestybar/internal/filestore"
)

// ErrNotInitialized is returned when a collection file is missing; Init
// must run before the store is used.
var ErrNotInitialized = errors.New("store not initialized")

func now() time.Time {
	return time.Now().UTC()
}

func checkID(id string) error {
	if err := filestore.ValidName(id); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// loadCollection reads a whole collection file. Missing files are an error
// so an absent store never looks like an empty one.
func loadCollection[T any](path string) ([]T, error) {
	var items []T
	found, err := filestore.ReadJSON(path, &items)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", path, ErrNotInitialized)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

package transport

import (
	"time"

	"github.com/Skotchmaster/honestybar/internal/models"
)

type LoginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type CreateUserRequest struct {
	Name     string      `json:"name" validate:"required,max=64"`
	Email    string      `json:"email" validate:"omitempty,email"`
	Password string      `json:"password" validate:"required,max=72"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=admin user"`
}

type CreateProductRequest struct {
	Name  string  `json:"name" validate:"required"`
	Cost  float64 `json:"cost" validate:"gte=0"`
	Price float64 `json:"price" validate:"gte=0"`
	Image string  `json:"image"`
}

// PatchProductRequest carries only the fields to change; nil means keep.
type PatchProductRequest struct {
	Name     *string  `json:"name" validate:"omitempty,min=1"`
	Cost     *float64 `json:"cost" validate:"omitempty,gte=0"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
	Image    *string  `json:"image"`
	IsActive *bool    `json:"isActive"`
}

// AddItemRequest defaults Quantity to 1 when it is omitted.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitempty,max=1000"`
}

func (r AddItemRequest) Qty() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

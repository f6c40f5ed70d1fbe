package domain

import "errors"

var (
	ErrValidation         = errors.New("validation")
	ErrNotFound           = errors.New("not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	// ErrCheckoutIncomplete means the purchase was recorded but the cart
	// could not be cleared afterwards.
	ErrCheckoutIncomplete = errors.New("checkout incomplete")
)

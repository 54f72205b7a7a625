package inventory

import "errors"

var (
	ErrInvalidCode         = errors.New("product code must be positive")
	ErrEmptyName           = errors.New("product name must not be empty")
	ErrNegativePrice       = errors.New("price must not be negative")
	ErrNegativeQuantity    = errors.New("quantity must not be negative")
	ErrNonPositiveQuantity = errors.New("quantity must be greater than zero")
	ErrBelowReserved       = errors.New("quantity cannot drop below reserved stock")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrProductNotFound     = errors.New("product not found")
	ErrDuplicateCode       = errors.New("product code already exists")
)

package order

import "errors"

var (
	ErrMissingCustomer      = errors.New("order must have a customer")
	ErrNoItems              = errors.New("order must have at least one item")
	ErrNilItem              = errors.New("order item must not be nil")
	ErrNilProduct           = errors.New("order item must reference a product")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrNegativeQuantity     = errors.New("quantity must not be negative")
	ErrQuantityOutOfRange   = errors.New("quantity is outside the requested range")
	ErrItemAlreadyProcessed = errors.New("item quantity cannot change after reservation")
	ErrInvalidTransition    = errors.New("order status transition not allowed")
)

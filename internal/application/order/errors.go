package order

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrOrderClosed   = errors.New("order is already fulfilled or canceled")
	ErrOrderNotReady = errors.New("order is not ready to be delivered")
)

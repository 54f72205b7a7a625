package restock

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrMissingID       = errors.New("delivery id is required")
	ErrInvalidProduct  = errors.New("delivery product code must be positive")
	ErrInvalidQuantity = errors.New("delivery quantity must be greater than zero")
)

// Delivery is one batch of goods received from a supplier.
type Delivery struct {
	ID          string    `json:"id"`
	ProductCode int       `json:"product_code"`
	Quantity    int       `json:"quantity"`
	Supplier    string    `json:"supplier,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
}

func (d Delivery) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return ErrMissingID
	}
	if d.ProductCode <= 0 {
		return ErrInvalidProduct
	}
	if d.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

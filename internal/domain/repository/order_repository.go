package repository

import (
	"context"

	"retailhub/internal/domain/inventory"
	"retailhub/internal/domain/order"
	"retailhub/internal/domain/sale"
)

// OrderRepository stores the read-side copy of orders built from events.
type OrderRepository interface {
	Save(ctx context.Context, o order.View) error
	FindByID(ctx context.Context, id int64) (*order.View, error)
}

type SaleRepository interface {
	Save(ctx context.Context, s sale.View) error
	ListByCustomer(ctx context.Context, customerID int) ([]sale.View, error)
}

type ProductRepository interface {
	Save(ctx context.Context, p inventory.View) error
	FindByCode(ctx context.Context, code int) (*inventory.View, error)
}

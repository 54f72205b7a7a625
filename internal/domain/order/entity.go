package order

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"retailhub/internal/domain/customer"
	"retailhub/internal/domain/inventory"
)

// Order groups the lines one customer asked for.
//
// The embedded mutex guards status and the lines' reservation split. When an
// operation also touches products, the products are locked first.
type Order struct {
	sync.Mutex

	id        int64
	customer  *customer.Customer
	items     []*Item
	createdAt time.Time
	status    Status
}

// View is an immutable copy of an Order.
type View struct {
	ID           int64           `json:"id"`
	CustomerID   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Items        []ItemView      `json:"items"`
}

func New(id int64, c *customer.Customer, items []*Item, createdAt time.Time) (*Order, error) {
	if c == nil {
		return nil, ErrMissingCustomer
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for _, it := range items {
		if it == nil {
			return nil, ErrNilItem
		}
	}

	lines := make([]*Item, len(items))
	copy(lines, items)

	return &Order{
		id:        id,
		customer:  c,
		items:     lines,
		createdAt: createdAt,
		status:    StatusPending,
	}, nil
}

func (o *Order) ID() int64                    { return o.id }
func (o *Order) Customer() *customer.Customer { return o.customer }
func (o *Order) CreatedAt() time.Time         { return o.createdAt }
func (o *Order) Status() Status               { return o.status }

// Items returns a copy of the line list. The lines themselves are shared.
func (o *Order) Items() []*Item {
	out := make([]*Item, len(o.items))
	copy(out, o.items)
	return out
}

// Products lists the products referenced by the order, one entry per line.
func (o *Order) Products() []*inventory.Product {
	out := make([]*inventory.Product, 0, len(o.items))
	for _, it := range o.items {
		out = append(out, it.product)
	}
	return out
}

func (o *Order) HasBackorderedItems() bool {
	for _, it := range o.items {
		if it.IsPending() {
			return true
		}
	}
	return false
}

func (o *Order) IsFullyReserved() bool {
	for _, it := range o.items {
		if !it.IsFullyReserved() {
			return false
		}
	}
	return true
}

// TotalValue bills every line on its requested quantity.
func (o *Order) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.items {
		total = total.Add(it.Total())
	}
	return total
}

// DeriveStatus computes the non-terminal status the lines currently justify.
func (o *Order) DeriveStatus() Status {
	switch {
	case o.IsFullyReserved():
		return StatusReadyToBeDelivered
	case o.HasBackorderedItems():
		return StatusPartiallyFulfilled
	default:
		return StatusPending
	}
}

// Transition moves the order to s. Terminal orders cannot move.
func (o *Order) Transition(s Status) error {
	if !s.Valid() {
		return ErrInvalidTransition
	}
	if o.status.IsTerminal() && s != o.status {
		return ErrInvalidTransition
	}
	o.status = s
	return nil
}

// Snapshot locks the order and copies it.
func (o *Order) Snapshot() View {
	o.Lock()
	defer o.Unlock()
	return o.View()
}

// View copies the order without locking; the caller holds the lock.
func (o *Order) View() View {
	lines := make([]ItemView, 0, len(o.items))
	for _, it := range o.items {
		lines = append(lines, it.View())
	}
	return View{
		ID:           o.id,
		CustomerID:   o.customer.ID,
		CustomerName: o.customer.Name,
		Status:       o.status,
		CreatedAt:    o.createdAt,
		TotalValue:   o.TotalValue(),
		Items:        lines,
	}
}

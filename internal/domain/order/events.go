package order

import (
	"time"

	"github.com/shopspring/decimal"

	"retailhub/internal/domain/inventory"
)

type EventType string

const (
	EventCreated   EventType = "order.created"
	EventReserved  EventType = "order.reserved"
	EventAllocated EventType = "order.allocated"
	EventCanceled  EventType = "order.canceled"
	EventDelivered EventType = "order.delivered"
)

// Event records a state change of one order. Items carry the line split as
// it stood right after the change; Stock holds the touched products.
type Event struct {
	Type         EventType
	OrderID      int64
	CustomerID   int
	CustomerName string
	Status       Status
	TotalValue   decimal.Decimal
	Items        []ItemView
	Stock        []inventory.View
	SaleID       int64
	OccurredAt   time.Time
}

// NewEvent builds an event from a view taken while the order was locked.
func NewEvent(t EventType, v View, at time.Time) Event {
	items := make([]ItemView, len(v.Items))
	copy(items, v.Items)
	return Event{
		Type:         t,
		OrderID:      v.ID,
		CustomerID:   v.CustomerID,
		CustomerName: v.CustomerName,
		Status:       v.Status,
		TotalValue:   v.TotalValue,
		Items:        items,
		OccurredAt:   at,
	}
}

package projection

import (
	"context"
	"fmt"
	"time"

	"retailhub/internal/domain/inventory"
	domain "retailhub/internal/domain/order"
	"retailhub/internal/domain/repository"
	"retailhub/internal/domain/sale"
	"retailhub/pkg/logger"
)

type Metrics interface {
	EventProjected(eventType string, lagSeconds float64)
}

// Service writes the read-side copy of orders, sales and stock levels from
// order events and catalog changes.
type Service struct {
	orders   repository.OrderRepository
	sales    repository.SaleRepository
	products repository.ProductRepository
	metrics  Metrics
	log      logger.Logger
	now      func() time.Time
}

func NewService(
	orders repository.OrderRepository,
	sales repository.SaleRepository,
	products repository.ProductRepository,
	metrics Metrics,
	log logger.Logger,
) *Service {
	return &Service{
		orders:   orders,
		sales:    sales,
		products: products,
		metrics:  metrics,
		log:      log,
		now:      time.Now,
	}
}

// ProjectEvent applies one order event. Replaying an event is harmless: every
// write is an upsert keyed by order, sale or product.
func (s *Service) ProjectEvent(ctx context.Context, ev domain.Event) error {
	if ev.OrderID <= 0 {
		return fmt.Errorf("event %s has no order id", ev.Type)
	}

	createdAt := ev.OccurredAt
	if ev.Type != domain.EventCreated {
		existing, err := s.orders.FindByID(ctx, ev.OrderID)
		if err != nil {
			return fmt.Errorf("load order %d: %w", ev.OrderID, err)
		}
		if existing != nil {
			createdAt = existing.CreatedAt
		}
	}

	view := domain.View{
		ID:           ev.OrderID,
		CustomerID:   ev.CustomerID,
		CustomerName: ev.CustomerName,
		Status:       ev.Status,
		CreatedAt:    createdAt,
		TotalValue:   ev.TotalValue,
		Items:        ev.Items,
	}
	if err := s.orders.Save(ctx, view); err != nil {
		return fmt.Errorf("save order %d: %w", ev.OrderID, err)
	}

	for _, p := range ev.Stock {
		if err := s.products.Save(ctx, p); err != nil {
			return fmt.Errorf("save product %d: %w", p.Code, err)
		}
	}

	if ev.Type == domain.EventDelivered && ev.SaleID > 0 {
		if err := s.sales.Save(ctx, saleFromEvent(ev)); err != nil {
			return fmt.Errorf("save sale %d: %w", ev.SaleID, err)
		}
	}

	s.metrics.EventProjected(string(ev.Type), s.now().Sub(ev.OccurredAt).Seconds())
	s.log.Debug("event projected",
		logger.String("type", string(ev.Type)),
		logger.Int64("order_id", ev.OrderID),
		logger.String("status", ev.Status.String()),
	)
	return nil
}

// StockChanged keeps the product table current for changes that do not go
// through an order, such as restocks and manual adjustments.
func (s *Service) StockChanged(ctx context.Context, p inventory.View) {
	if err := s.products.Save(ctx, p); err != nil {
		s.log.Warn("project stock level failed", logger.Int("code", p.Code), logger.Error(err))
	}
}

func saleFromEvent(ev domain.Event) sale.View {
	lines := make([]sale.Line, 0, len(ev.Items))
	for _, it := range ev.Items {
		lines = append(lines, sale.Line{
			ProductCode: it.ProductCode,
			ProductName: it.ProductName,
			Quantity:    it.RequestedQty,
			UnitPrice:   it.PriceAtSale,
		})
	}
	return sale.View{
		ID:           ev.SaleID,
		OrderID:      ev.OrderID,
		CustomerID:   ev.CustomerID,
		CustomerName: ev.CustomerName,
		Total:        ev.TotalValue,
		SoldAt:       ev.OccurredAt,
		Lines:        lines,
	}
}

// PublishEvent projects synchronously. It lets the service stand in for the
// broker when Kafka is disabled.
func (s *Service) PublishEvent(ctx context.Context, ev domain.Event) error {
	return s.ProjectEvent(ctx, ev)
}

package restock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"retailhub/internal/domain/inventory"
	domain "retailhub/internal/domain/restock"
	"retailhub/pkg/logger"
)

type StockIncreaser interface {
	IncreaseStock(ctx context.Context, code, qty int) (inventory.View, error)
}

type BackorderAllocator interface {
	AllocateBackorderedItems(ctx context.Context, code int) (int, error)
}

type Metrics interface {
	RestockApplied(units int)
	RestockRejected()
}

// Receiver applies deliveries: it adds the stock and then hands the new units
// to waiting backorders. Redelivered messages with a known id are ignored.
type Receiver struct {
	stock     StockIncreaser
	allocator BackorderAllocator
	metrics   Metrics
	log       logger.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewReceiver(stock StockIncreaser, allocator BackorderAllocator, metrics Metrics, log logger.Logger) *Receiver {
	return &Receiver{
		stock:     stock,
		allocator: allocator,
		metrics:   metrics,
		log:       log,
		seen:      make(map[string]struct{}),
	}
}

// ApplyDelivery returns an error only for failures worth retrying. Deliveries
// for products the catalog does not know are counted and dropped.
func (r *Receiver) ApplyDelivery(ctx context.Context, d domain.Delivery) error {
	if err := d.Validate(); err != nil {
		r.metrics.RestockRejected()
		r.log.Warn("rejecting delivery", logger.String("delivery_id", d.ID), logger.Error(err))
		return nil
	}

	r.mu.Lock()
	if _, dup := r.seen[d.ID]; dup {
		r.mu.Unlock()
		r.log.Debug("duplicate delivery ignored", logger.String("delivery_id", d.ID))
		return nil
	}
	r.seen[d.ID] = struct{}{}
	r.mu.Unlock()

	v, err := r.stock.IncreaseStock(ctx, d.ProductCode, d.Quantity)
	if err != nil {
		if errors.Is(err, inventory.ErrProductNotFound) {
			r.metrics.RestockRejected()
			r.log.Warn("delivery for unknown product",
				logger.String("delivery_id", d.ID),
				logger.Int("code", d.ProductCode),
			)
			return nil
		}
		r.forget(d.ID)
		return fmt.Errorf("increase stock of %d: %w", d.ProductCode, err)
	}
	r.metrics.RestockApplied(d.Quantity)

	// The stock is in; a failed sweep is left for the next delivery or a
	// manual allocate call.
	allocated, err := r.allocator.AllocateBackorderedItems(ctx, d.ProductCode)
	if err != nil {
		r.log.Error("allocate backorders failed", logger.Int("code", d.ProductCode), logger.Error(err))
	}

	r.log.Info("delivery applied",
		logger.String("delivery_id", d.ID),
		logger.Int("code", d.ProductCode),
		logger.Int("quantity", d.Quantity),
		logger.Int("allocated", allocated),
		logger.Int("available", v.Available-allocated),
	)
	return nil
}

func (r *Receiver) forget(id string) {
	r.mu.Lock()
	delete(r.seen, id)
	r.mu.Unlock()
}

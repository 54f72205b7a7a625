package inventory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	domain "retailhub/internal/domain/inventory"
	"retailhub/pkg/logger"
)

// StockObserver is told about every product state the catalog produces.
type StockObserver interface {
	StockChanged(ctx context.Context, v domain.View)
}

// Catalog holds every product known to the store, keyed by code.
type Catalog struct {
	mu       sync.RWMutex
	products map[int]*domain.Product

	observer StockObserver
	log      logger.Logger
}

type AddProductCommand struct {
	Code     int             `json:"code" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func NewCatalog(log logger.Logger) *Catalog {
	return &Catalog{
		products: make(map[int]*domain.Product),
		log:      log,
	}
}

// SetObserver must be called before the catalog is shared.
func (c *Catalog) SetObserver(o StockObserver) {
	c.observer = o
}

func (c *Catalog) Add(ctx context.Context, cmd AddProductCommand) (domain.View, error) {
	p, err := domain.NewProduct(cmd.Code, cmd.Name, cmd.Price, cmd.Quantity)
	if err != nil {
		return domain.View{}, err
	}

	c.mu.Lock()
	if _, ok := c.products[cmd.Code]; ok {
		c.mu.Unlock()
		return domain.View{}, domain.ErrDuplicateCode
	}
	c.products[cmd.Code] = p
	c.mu.Unlock()

	v := p.Snapshot()
	c.log.WithContext(ctx).Info("product added",
		logger.Int("code", v.Code),
		logger.String("name", v.Name),
		logger.Int("quantity", v.Quantity),
	)
	c.notify(ctx, v)
	return v, nil
}

// Product returns the live product. Callers must follow the product locking
// rules before touching it.
func (c *Catalog) Product(code int) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[code]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}

func (c *Catalog) Get(code int) (domain.View, error) {
	p, err := c.Product(code)
	if err != nil {
		return domain.View{}, err
	}
	return p.Snapshot(), nil
}

// List returns every product ordered by code.
func (c *Catalog) List() []domain.View {
	return c.collect(func(*domain.Product) bool { return true })
}

// Search matches an exact code or a case-insensitive name fragment.
func (c *Catalog) Search(query string) []domain.View {
	return c.collect(func(p *domain.Product) bool {
		p.Lock()
		defer p.Unlock()
		return p.MatchesQuery(query)
	})
}

func (c *Catalog) collect(keep func(*domain.Product) bool) []domain.View {
	c.mu.RLock()
	products := make([]*domain.Product, 0, len(c.products))
	for _, p := range c.products {
		products = append(products, p)
	}
	c.mu.RUnlock()

	sort.Slice(products, func(i, j int) bool { return products[i].Code() < products[j].Code() })

	out := make([]domain.View, 0, len(products))
	for _, p := range products {
		if keep(p) {
			out = append(out, p.Snapshot())
		}
	}
	return out
}

// IncreaseStock records received goods. It does not run the backorder
// sweep; callers that want waiting orders served run it afterwards.
func (c *Catalog) IncreaseStock(ctx context.Context, code, qty int) (domain.View, error) {
	return c.mutate(ctx, code, "stock increased", qty, func(p *domain.Product) error {
		return p.AddStock(qty)
	})
}

// DecreaseStock writes off stock that is not reserved.
func (c *Catalog) DecreaseStock(ctx context.Context, code, qty int) (domain.View, error) {
	return c.mutate(ctx, code, "stock decreased", qty, func(p *domain.Product) error {
		return p.RemoveStock(qty)
	})
}

func (c *Catalog) mutate(ctx context.Context, code int, msg string, qty int, fn func(*domain.Product) error) (domain.View, error) {
	p, err := c.Product(code)
	if err != nil {
		return domain.View{}, err
	}

	p.Lock()
	if err := fn(p); err != nil {
		p.Unlock()
		return domain.View{}, err
	}
	v := p.View()
	p.Unlock()

	c.log.WithContext(ctx).Info(msg,
		logger.Int("code", code),
		logger.Int("delta", qty),
		logger.Int("quantity", v.Quantity),
		logger.Int("available", v.Available),
	)
	c.notify(ctx, v)
	return v, nil
}

// Delete removes the product from the catalog. Outstanding reservations are
// not checked; lines that already reference the product keep their pointer.
func (c *Catalog) Delete(ctx context.Context, code int) error {
	c.mu.Lock()
	if _, ok := c.products[code]; !ok {
		c.mu.Unlock()
		return domain.ErrProductNotFound
	}
	delete(c.products, code)
	c.mu.Unlock()

	c.log.WithContext(ctx).Info("product deleted", logger.Int("code", code))
	return nil
}

func (c *Catalog) notify(ctx context.Context, v domain.View) {
	if c.observer != nil {
		c.observer.StockChanged(ctx, v)
	}
}

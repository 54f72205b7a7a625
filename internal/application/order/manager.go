package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"retailhub/internal/domain/customer"
	"retailhub/internal/domain/inventory"
	domain "retailhub/internal/domain/order"
	"retailhub/internal/domain/sale"
	"retailhub/pkg/idgen"
	"retailhub/pkg/logger"
)

const tracerName = "retailhub/order"

// ProductLookup resolves product codes to the shared ledger entries.
type ProductLookup interface {
	Product(code int) (*inventory.Product, error)
}

type SaleRecorder interface {
	Record(s *sale.Sale)
}

type IDGenerator interface {
	Next() (int64, error)
}

// Publisher ships order events out of the process. It is called after all
// locks are released.
type Publisher interface {
	PublishEvent(ctx context.Context, ev domain.Event) error
}

type Metrics interface {
	OrderCreated(status string)
	FulfillAttempted(result string)
	BackorderAllocated(units int)
	OrderCanceled()
	SaleRecorded(total float64)
}

type Dependencies struct {
	Products  ProductLookup
	Sales     SaleRecorder
	OrderIDs  IDGenerator
	SaleIDs   IDGenerator
	Publisher Publisher
	Metrics   Metrics
	Tracer    trace.Tracer
	Logger    logger.Logger
	Clock     func() time.Time
}

// Manager owns every order and is the only writer of order status and of the
// reservation split of their lines.
//
// Locking: products in ascending code order, then the order. The collection
// lock is never held while taking either.
type Manager struct {
	mu     sync.RWMutex
	orders []*domain.Order
	byID   map[int64]*domain.Order

	products  ProductLookup
	sales     SaleRecorder
	orderIDs  IDGenerator
	saleIDs   IDGenerator
	publisher Publisher
	metrics   Metrics
	tracer    trace.Tracer
	log       logger.Logger
	now       func() time.Time
}

func NewManager(d Dependencies) *Manager {
	m := &Manager{
		byID:      make(map[int64]*domain.Order),
		products:  d.Products,
		sales:     d.Sales,
		orderIDs:  d.OrderIDs,
		saleIDs:   d.SaleIDs,
		publisher: d.Publisher,
		metrics:   d.Metrics,
		tracer:    d.Tracer,
		log:       d.Logger,
		now:       d.Clock,
	}
	if m.orderIDs == nil {
		m.orderIDs = idgen.NewCounter(1001)
	}
	if m.saleIDs == nil {
		m.saleIDs = idgen.NewCounter(1)
	}
	if m.publisher == nil {
		m.publisher = nopPublisher{}
	}
	if m.metrics == nil {
		m.metrics = nopMetrics{}
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer(tracerName)
	}
	if m.log == nil {
		m.log = logger.NewNop()
	}
	if m.now == nil {
		m.now = func() time.Time { return time.Now().UTC() }
	}
	return m
}

// CreateOrder builds an order from fresh lines and reserves what stock
// allows. Without backorder the shortfall is kept as unmet demand on the line.
func (m *Manager) CreateOrder(ctx context.Context, c *customer.Customer, items []*domain.Item, allowBackorder bool) (*domain.Order, error) {
	ctx, span := m.tracer.Start(ctx, "order.create")
	defer span.End()

	if c == nil {
		return nil, m.fail(span, domain.ErrMissingCustomer)
	}
	if err := validateFreshItems(items); err != nil {
		return nil, m.fail(span, err)
	}

	id, err := m.orderIDs.Next()
	if err != nil {
		return nil, m.fail(span, fmt.Errorf("next order id: %w", err))
	}
	o, err := domain.New(id, c, items, m.now())
	if err != nil {
		return nil, m.fail(span, err)
	}
	ctx = logger.ContextWithOrderID(ctx, id)

	unlock := lockOrder(o)
	for _, it := range o.Items() {
		got, err := it.Product().Reserve(it.RequestedQty())
		if err == nil {
			err = it.Evaluate(got, allowBackorder)
		}
		if err != nil {
			unlock()
			return nil, m.fail(span, fmt.Errorf("reserve line %d: %w", it.ProductCode(), err))
		}
	}
	_ = o.Transition(o.DeriveStatus())
	ev := m.event(domain.EventCreated, o)
	unlock()

	m.mu.Lock()
	m.orders = append(m.orders, o)
	m.byID[id] = o
	m.mu.Unlock()

	span.SetAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", ev.Status.String()),
		attribute.Bool("order.allow_backorder", allowBackorder),
	)
	m.metrics.OrderCreated(ev.Status.String())
	m.log.WithContext(ctx).Info("order created",
		logger.Int("customer_id", c.ID),
		logger.Int("lines", len(ev.Items)),
		logger.String("status", ev.Status.String()),
	)
	m.publish(ctx, ev)
	return o, nil
}

func validateFreshItems(items []*domain.Item) error {
	if len(items) == 0 {
		return domain.ErrNoItems
	}
	seen := make(map[*domain.Item]struct{}, len(items))
	for _, it := range items {
		if it == nil {
			return domain.ErrNilItem
		}
		if _, dup := seen[it]; dup || it.IsProcessed() {
			return domain.ErrItemAlreadyProcessed
		}
		seen[it] = struct{}{}
	}
	return nil
}

// FulfillOrder retries reservation of every line's shortfall against the
// stock available now.
func (m *Manager) FulfillOrder(ctx context.Context, id int64) domain.FulfillResult {
	ctx, span := m.tracer.Start(ctx, "order.fulfill", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()
	ctx = logger.ContextWithOrderID(ctx, id)

	result, ev, changed := m.fulfill(id)

	span.SetAttributes(attribute.String("order.fulfill_result", result.String()))
	m.metrics.FulfillAttempted(result.String())
	m.log.WithContext(ctx).Info("fulfillment attempted", logger.String("result", result.String()))
	if changed {
		m.publish(ctx, ev)
	}
	return result
}

func (m *Manager) fulfill(id int64) (domain.FulfillResult, domain.Event, bool) {
	o := m.find(id)
	if o == nil {
		return domain.FulfillNotFound, domain.Event{}, false
	}

	unlock := lockOrder(o)
	defer unlock()

	before := o.Status()
	if before.IsTerminal() {
		return domain.FulfillClosed, domain.Event{}, false
	}

	progress := false
	for _, it := range o.Items() {
		short := it.Shortfall()
		if short <= 0 {
			continue
		}
		got, _ := it.Product().Reserve(short)
		if got > 0 {
			_ = it.Commit(got)
			progress = true
		}
	}

	var result domain.FulfillResult
	switch {
	case o.IsFullyReserved():
		_ = o.Transition(domain.StatusReadyToBeDelivered)
		result = domain.FulfillReady
	case progress || before == domain.StatusPartiallyFulfilled:
		_ = o.Transition(domain.StatusPartiallyFulfilled)
		result = domain.FulfillPartial
	default:
		_ = o.Transition(domain.StatusPending)
		result = domain.FulfillNoProgress
	}

	changed := progress || o.Status() != before
	return result, m.event(domain.EventReserved, o), changed
}

// CancelOrder gives every reserved unit back to its product.
func (m *Manager) CancelOrder(ctx context.Context, id int64) error {
	ctx, span := m.tracer.Start(ctx, "order.cancel", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()
	ctx = logger.ContextWithOrderID(ctx, id)

	o := m.find(id)
	if o == nil {
		return m.fail(span, ErrOrderNotFound)
	}

	unlock := lockOrder(o)
	if o.Status().IsTerminal() {
		unlock()
		return m.fail(span, ErrOrderClosed)
	}
	released := 0
	for _, it := range o.Items() {
		n := it.Release()
		_ = it.Product().Unreserve(n)
		released += n
	}
	_ = o.Transition(domain.StatusCanceled)
	ev := m.event(domain.EventCanceled, o)
	unlock()

	span.SetAttributes(attribute.Int("order.released_units", released))
	m.metrics.OrderCanceled()
	m.log.WithContext(ctx).Info("order canceled", logger.Int("released", released))
	m.publish(ctx, ev)
	return nil
}

// AllocateBackorderedItems hands the product's available stock to waiting
// lines in order creation sequence. Orders created while the sweep runs are
// not visited.
func (m *Manager) AllocateBackorderedItems(ctx context.Context, code int) (int, error) {
	ctx, span := m.tracer.Start(ctx, "order.allocate_backorders", trace.WithAttributes(attribute.Int("product.code", code)))
	defer span.End()

	p, err := m.products.Product(code)
	if err != nil {
		return 0, m.fail(span, fmt.Errorf("allocate backorders for %d: %w", code, err))
	}

	orders := m.snapshot()

	var (
		total  int
		events []domain.Event
	)
	p.Lock()
	for _, o := range orders {
		if p.Available() <= 0 {
			break
		}
		n, ev := m.allocateInto(o, p)
		if n > 0 {
			total += n
			events = append(events, ev)
		}
	}
	p.Unlock()

	span.SetAttributes(
		attribute.Int("allocation.units", total),
		attribute.Int("allocation.orders", len(events)),
	)
	if total > 0 {
		m.metrics.BackorderAllocated(total)
	}
	m.log.WithContext(ctx).Info("backorders allocated",
		logger.Int("code", code),
		logger.Int("units", total),
		logger.Int("orders", len(events)),
	)
	for _, ev := range events {
		m.publish(ctx, ev)
	}
	return total, nil
}

// allocateInto runs with p locked.
func (m *Manager) allocateInto(o *domain.Order, p *inventory.Product) (int, domain.Event) {
	o.Lock()
	defer o.Unlock()

	switch o.Status() {
	case domain.StatusCanceled, domain.StatusFulfilled, domain.StatusReadyToBeDelivered:
		return 0, domain.Event{}
	}

	allocated := 0
	for _, it := range o.Items() {
		if it.Product() != p || it.BackorderedQty() <= 0 {
			continue
		}
		avail := p.Available()
		if avail <= 0 {
			break
		}
		moved, _ := it.Allocate(min(it.BackorderedQty(), avail))
		_, _ = p.Reserve(moved)
		allocated += moved
	}
	if allocated == 0 {
		return 0, domain.Event{}
	}

	_ = o.Transition(o.DeriveStatus())
	return allocated, m.eventWithStock(domain.EventAllocated, o, []*inventory.Product{p})
}

// DeliverOrder ships a READY order: stock leaves the warehouse and one Sale
// is recorded.
func (m *Manager) DeliverOrder(ctx context.Context, id int64) (*sale.Sale, error) {
	ctx, span := m.tracer.Start(ctx, "order.deliver", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()
	ctx = logger.ContextWithOrderID(ctx, id)

	o := m.find(id)
	if o == nil {
		return nil, m.fail(span, ErrOrderNotFound)
	}

	saleID, err := m.saleIDs.Next()
	if err != nil {
		return nil, m.fail(span, fmt.Errorf("next sale id: %w", err))
	}

	unlock := lockOrder(o)
	switch {
	case o.Status().IsTerminal():
		unlock()
		return nil, m.fail(span, ErrOrderClosed)
	case o.Status() != domain.StatusReadyToBeDelivered:
		unlock()
		return nil, m.fail(span, ErrOrderNotReady)
	}

	s, err := newSale(saleID, o, m.now())
	if err != nil {
		unlock()
		return nil, m.fail(span, err)
	}
	for _, it := range o.Items() {
		_, _ = it.Product().FulfillAndRelease(it.RequestedQty())
	}
	_ = o.Transition(domain.StatusFulfilled)
	ev := m.event(domain.EventDelivered, o)
	unlock()

	ev.SaleID = s.ID()
	m.recordSale(ctx, span, s)
	m.log.WithContext(ctx).Info("order delivered",
		logger.Int64("sale_id", s.ID()),
		logger.String("total", s.Total().StringFixed(2)),
	)
	m.publish(ctx, ev)
	return s, nil
}

// RecordDirectSale sells available stock on the spot. It creates an order
// that is born FULFILLED and never enters the reservation flow.
func (m *Manager) RecordDirectSale(ctx context.Context, c *customer.Customer, code, qty int) (*sale.Sale, error) {
	ctx, span := m.tracer.Start(ctx, "order.direct_sale", trace.WithAttributes(
		attribute.Int("product.code", code),
		attribute.Int("sale.quantity", qty),
	))
	defer span.End()

	if c == nil {
		return nil, m.fail(span, domain.ErrMissingCustomer)
	}
	p, err := m.products.Product(code)
	if err != nil {
		return nil, m.fail(span, err)
	}
	it, err := domain.NewItem(p, qty)
	if err != nil {
		return nil, m.fail(span, err)
	}

	orderID, err := m.orderIDs.Next()
	if err != nil {
		return nil, m.fail(span, fmt.Errorf("next order id: %w", err))
	}
	saleID, err := m.saleIDs.Next()
	if err != nil {
		return nil, m.fail(span, fmt.Errorf("next sale id: %w", err))
	}
	o, err := domain.New(orderID, c, []*domain.Item{it}, m.now())
	if err != nil {
		return nil, m.fail(span, err)
	}
	ctx = logger.ContextWithOrderID(ctx, orderID)

	unlock := lockOrder(o)
	if p.Available() < qty {
		unlock()
		return nil, m.fail(span, inventory.ErrInsufficientStock)
	}
	got, _ := p.Reserve(qty)
	_ = it.Evaluate(got, false)
	s, err := newSale(saleID, o, m.now())
	if err != nil {
		_ = p.Unreserve(got)
		unlock()
		return nil, m.fail(span, err)
	}
	_, _ = p.FulfillAndRelease(got)
	_ = o.Transition(domain.StatusFulfilled)
	ev := m.event(domain.EventDelivered, o)
	unlock()

	m.mu.Lock()
	m.orders = append(m.orders, o)
	m.byID[orderID] = o
	m.mu.Unlock()

	ev.SaleID = s.ID()
	m.recordSale(ctx, span, s)
	m.log.WithContext(ctx).Info("direct sale recorded",
		logger.Int("code", code),
		logger.Int("quantity", qty),
		logger.Int64("sale_id", s.ID()),
	)
	m.publish(ctx, ev)
	return s, nil
}

// newSale runs with the order locked.
func newSale(id int64, o *domain.Order, at time.Time) (*sale.Sale, error) {
	items := o.Items()
	lines := make([]sale.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, sale.Line{
			ProductCode: it.ProductCode(),
			ProductName: it.ProductName(),
			Quantity:    it.RequestedQty(),
			UnitPrice:   it.PriceAtSale(),
		})
	}
	return sale.New(id, o.ID(), o.Customer().ID, o.Customer().Name, o.TotalValue(), at, lines)
}

func (m *Manager) recordSale(ctx context.Context, span trace.Span, s *sale.Sale) {
	if m.sales != nil {
		m.sales.Record(s)
	}
	total, _ := s.Total().Float64()
	m.metrics.SaleRecorded(total)
	span.SetAttributes(attribute.Int64("sale.id", s.ID()))
	span.SetStatus(codes.Ok, "sale recorded")
}

func (m *Manager) FindByID(id int64) (domain.View, error) {
	o := m.find(id)
	if o == nil {
		return domain.View{}, ErrOrderNotFound
	}
	return o.Snapshot(), nil
}

// AllOrders returns views in creation order.
func (m *Manager) AllOrders() []domain.View {
	orders := m.snapshot()
	out := make([]domain.View, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.Snapshot())
	}
	return out
}

func (m *Manager) OrdersForCustomer(customerID int) []domain.View {
	out := make([]domain.View, 0)
	for _, o := range m.snapshot() {
		if o.Customer().ID == customerID {
			out = append(out, o.Snapshot())
		}
	}
	return out
}

func (m *Manager) find(id int64) *domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byID[id]
}

func (m *Manager) snapshot() []*domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Order, len(m.orders))
	copy(out, m.orders)
	return out
}

func lockOrder(o *domain.Order) (unlock func()) {
	unlockProducts := inventory.LockAll(o.Products()...)
	o.Lock()
	return func() {
		o.Unlock()
		unlockProducts()
	}
}

// event runs with the order and all its products locked.
func (m *Manager) event(t domain.EventType, o *domain.Order) domain.Event {
	return m.eventWithStock(t, o, o.Products())
}

func (m *Manager) eventWithStock(t domain.EventType, o *domain.Order, products []*inventory.Product) domain.Event {
	ev := domain.NewEvent(t, o.View(), m.now())
	seen := make(map[*inventory.Product]struct{}, len(products))
	for _, p := range products {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		ev.Stock = append(ev.Stock, p.View())
	}
	return ev
}

func (m *Manager) publish(ctx context.Context, ev domain.Event) {
	if err := m.publisher.PublishEvent(ctx, ev); err != nil {
		m.log.WithContext(ctx).Error("publish order event failed",
			logger.String("type", string(ev.Type)),
			logger.Error(err),
		)
	}
}

func (m *Manager) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

type nopPublisher struct{}

func (nopPublisher) PublishEvent(context.Context, domain.Event) error { return nil }

type nopMetrics struct{}

func (nopMetrics) OrderCreated(string)     {}
func (nopMetrics) FulfillAttempted(string) {}
func (nopMetrics) BackorderAllocated(int)  {}
func (nopMetrics) OrderCanceled()          {}
func (nopMetrics) SaleRecorded(float64)    {}

package order

import (
	"github.com/shopspring/decimal"

	"retailhub/internal/domain/inventory"
)

// Item is one product line of an order.
//
// Once the line has been evaluated against stock, every unit requested sits
// in exactly one bucket: reserved (stock earmarked), backordered (waiting for
// stock) or unmet (shortfall the customer did not want backordered, or demand
// released by cancellation). Requested = Reserved + Backordered + Unmet.
type Item struct {
	product     *inventory.Product
	productCode int
	productName string
	requested   int
	reserved    int
	backordered int
	unmet       int
	priceAtSale decimal.Decimal
	processed   bool
}

// ItemView is a read-only copy of an Item.
type ItemView struct {
	ProductCode    int             `json:"product_code"`
	ProductName    string          `json:"product_name"`
	RequestedQty   int             `json:"requested_qty"`
	ReservedQty    int             `json:"reserved_qty"`
	BackorderedQty int             `json:"backordered_qty"`
	UnmetQty       int             `json:"unmet_qty"`
	PriceAtSale    decimal.Decimal `json:"price_at_sale"`
}

// NewItem snapshots the product's current name and price. It takes the
// product lock, so do not call it while holding that lock.
func NewItem(product *inventory.Product, requested int) (*Item, error) {
	if product == nil {
		return nil, ErrNilProduct
	}
	if requested <= 0 {
		return nil, ErrInvalidQuantity
	}
	view := product.Snapshot()
	return &Item{
		product:     product,
		productCode: view.Code,
		productName: view.Name,
		requested:   requested,
		priceAtSale: view.Price,
	}, nil
}

func (i *Item) Product() *inventory.Product  { return i.product }
func (i *Item) ProductCode() int             { return i.productCode }
func (i *Item) ProductName() string          { return i.productName }
func (i *Item) RequestedQty() int            { return i.requested }
func (i *Item) ReservedQty() int             { return i.reserved }
func (i *Item) BackorderedQty() int          { return i.backordered }
func (i *Item) UnmetQty() int                { return i.unmet }
func (i *Item) PriceAtSale() decimal.Decimal { return i.priceAtSale }
func (i *Item) IsFullyReserved() bool        { return i.reserved == i.requested }
func (i *Item) IsPending() bool              { return i.backordered > 0 }
func (i *Item) IsProcessed() bool            { return i.processed }

// Shortfall is what still needs reserving before the line can ship.
func (i *Item) Shortfall() int {
	return i.requested - i.reserved
}

// Total is the billed value of the line: requested units at the locked price.
func (i *Item) Total() decimal.Decimal {
	return i.priceAtSale.Mul(decimal.NewFromInt(int64(i.requested)))
}

// open is the part of the request that is either reserved or backordered.
func (i *Item) open() int {
	return i.requested - i.unmet
}

// SetReservedQuantity sets the reserved amount and recomputes the backorder
// so the line stays balanced.
func (i *Item) SetReservedQuantity(v int) error {
	if v < 0 || v > i.open() {
		return ErrQuantityOutOfRange
	}
	i.reserved = v
	i.backordered = i.open() - v
	i.processed = true
	return nil
}

// SetBackorderedQuantity is the mirror of SetReservedQuantity.
func (i *Item) SetBackorderedQuantity(v int) error {
	if v < 0 || v > i.open() {
		return ErrQuantityOutOfRange
	}
	i.backordered = v
	i.reserved = i.open() - v
	i.processed = true
	return nil
}

// AddQuantity raises the requested amount of a line that has not been
// evaluated yet. Processed lines are rejected: reservation is not re-run
// implicitly.
func (i *Item) AddQuantity(delta int) error {
	if delta <= 0 {
		return ErrInvalidQuantity
	}
	if i.processed {
		return ErrItemAlreadyProcessed
	}
	i.requested += delta
	return nil
}

// Allocate moves up to qty units from backordered to reserved and returns the
// amount moved.
func (i *Item) Allocate(qty int) (int, error) {
	if qty < 0 {
		return 0, ErrNegativeQuantity
	}
	n := min(qty, i.backordered)
	i.backordered -= n
	i.reserved += n
	return n, nil
}

// commit books n freshly reserved units against the line, drawing first from
// the backorder and then from unmet demand.
func (i *Item) commit(n int) {
	fromBackorder := min(n, i.backordered)
	i.backordered -= fromBackorder
	i.unmet -= min(n-fromBackorder, i.unmet)
	i.reserved += n
	i.processed = true
}

// Evaluate records the outcome of the first reservation attempt: reserved
// units and, when backorder is not allowed, the shortfall as unmet demand.
func (i *Item) Evaluate(reserved int, allowBackorder bool) error {
	if reserved < 0 || reserved > i.requested {
		return ErrQuantityOutOfRange
	}
	if i.processed {
		return ErrItemAlreadyProcessed
	}
	i.reserved = reserved
	if allowBackorder {
		i.backordered = i.requested - reserved
	} else {
		i.unmet = i.requested - reserved
	}
	i.processed = true
	return nil
}

// Commit records n additional reserved units (0 <= n <= Shortfall).
func (i *Item) Commit(n int) error {
	if n < 0 || n > i.Shortfall() {
		return ErrQuantityOutOfRange
	}
	i.commit(n)
	return nil
}

// Release empties the reserved and backordered buckets and returns how much
// was reserved, so the caller can hand it back to the product.
func (i *Item) Release() int {
	released := i.reserved
	i.reserved = 0
	i.backordered = 0
	i.unmet = i.requested
	i.processed = true
	return released
}

func (i *Item) View() ItemView {
	return ItemView{
		ProductCode:    i.productCode,
		ProductName:    i.productName,
		RequestedQty:   i.requested,
		ReservedQty:    i.reserved,
		BackorderedQty: i.backordered,
		UnmetQty:       i.unmet,
		PriceAtSale:    i.priceAtSale,
	}
}

package inventory

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Product is the stock record of one SKU.
//
// Quantity is the physical stock on hand; Reserved is the part of it
// earmarked for order lines that have not shipped yet. 0 <= Reserved <= Quantity
// holds after every method returns.
//
// Product carries its own mutex. Mutating methods do not lock: callers hold
// the lock (directly or through LockAll) for the whole read-modify-write.
type Product struct {
	sync.Mutex

	code     int
	name     string
	price    decimal.Decimal
	quantity int
	reserved int
}

// View is an immutable copy of a Product's state, safe to hand out.
type View struct {
	Code      int             `json:"code"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Reserved  int             `json:"reserved_quantity"`
	Available int             `json:"available_quantity"`
}

func NewProduct(code int, name string, price decimal.Decimal, quantity int) (*Product, error) {
	if code <= 0 {
		return nil, ErrInvalidCode
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if price.IsNegative() {
		return nil, ErrNegativePrice
	}
	if quantity < 0 {
		return nil, ErrNegativeQuantity
	}
	return &Product{
		code:     code,
		name:     name,
		price:    price,
		quantity: quantity,
	}, nil
}

func (p *Product) Code() int              { return p.code }
func (p *Product) Name() string           { return p.name }
func (p *Product) Price() decimal.Decimal { return p.price }
func (p *Product) Quantity() int          { return p.quantity }
func (p *Product) Reserved() int          { return p.reserved }

// Available is the stock that can still be committed to new lines.
func (p *Product) Available() int {
	return p.quantity - p.reserved
}

// Snapshot locks the product and copies its state.
func (p *Product) Snapshot() View {
	p.Lock()
	defer p.Unlock()
	return p.View()
}

// View copies the product without locking; the caller holds the lock.
func (p *Product) View() View {
	return View{
		Code:      p.code,
		Name:      p.name,
		Price:     p.price,
		Quantity:  p.quantity,
		Reserved:  p.reserved,
		Available: p.Available(),
	}
}

func (p *Product) SetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	p.name = name
	return nil
}

func (p *Product) SetPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrNegativePrice
	}
	p.price = price
	return nil
}

// SetQuantity overwrites the on-hand stock. It may not go below what is
// already reserved.
func (p *Product) SetQuantity(quantity int) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}
	if quantity < p.reserved {
		return ErrBelowReserved
	}
	p.quantity = quantity
	return nil
}

// AddStock records newly received goods.
func (p *Product) AddStock(qty int) error {
	if qty <= 0 {
		return ErrNonPositiveQuantity
	}
	p.quantity += qty
	return nil
}

// RemoveStock writes off unreserved stock (damage, manual correction).
func (p *Product) RemoveStock(qty int) error {
	if qty <= 0 {
		return ErrNonPositiveQuantity
	}
	if qty > p.quantity {
		return ErrInsufficientStock
	}
	if p.quantity-qty < p.reserved {
		return ErrBelowReserved
	}
	p.quantity -= qty
	return nil
}

// Reserve earmarks up to requested units and returns how many it got.
// Asking for more than is available is not an error; the caller must
// inspect the result.
func (p *Product) Reserve(requested int) (int, error) {
	if requested < 0 {
		return 0, ErrNegativeQuantity
	}
	n := min(requested, p.Available())
	if n > 0 {
		p.reserved += n
	}
	return n, nil
}

// Unreserve gives reserved stock back to availability, never below zero.
func (p *Product) Unreserve(qty int) error {
	if qty < 0 {
		return ErrNegativeQuantity
	}
	p.reserved -= min(qty, p.reserved)
	return nil
}

// FulfillAndRelease ships reserved stock: it leaves both the reserved and the
// on-hand quantity. This is the only way physical stock goes down through an
// order. Returns the amount shipped.
func (p *Product) FulfillAndRelease(qty int) (int, error) {
	if qty <= 0 {
		return 0, ErrNonPositiveQuantity
	}
	n := min(qty, p.reserved)
	p.reserved = max(0, p.reserved-n)
	p.quantity = max(0, p.quantity-n)
	return n, nil
}

// MatchesQuery reports whether q equals the code or is a case-insensitive
// substring of the name.
func (p *Product) MatchesQuery(q string) bool {
	q = strings.TrimSpace(q)
	if q == "" {
		return false
	}
	if strconv.Itoa(p.code) == q {
		return true
	}
	return strings.Contains(strings.ToLower(p.name), strings.ToLower(q))
}

// LockAll locks the given products in ascending code order and returns the
// matching unlock. Duplicates and nils are skipped.
func LockAll(products ...*Product) (unlock func()) {
	seen := make(map[int]struct{}, len(products))
	ordered := make([]*Product, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		if _, ok := seen[p.code]; ok {
			continue
		}
		seen[p.code] = struct{}{}
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].code < ordered[j].code })

	for _, p := range ordered {
		p.Lock()
	}
	return func() {
		for i := len(ordered) - 1; i >= 0; i-- {
			ordered[i].Unlock()
		}
	}
}

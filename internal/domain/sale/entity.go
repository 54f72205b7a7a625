package sale

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingOrder    = errors.New("sale must reference an order")
	ErrMissingCustomer = errors.New("sale must have a customer")
	ErrNoLines         = errors.New("sale must have at least one line")
	ErrNegativeTotal   = errors.New("sale total must not be negative")
)

// Line is one product sold, frozen at delivery time.
type Line struct {
	ProductCode int             `json:"product_code"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Sale is the immutable record written when goods leave the warehouse.
type Sale struct {
	id           int64
	orderID      int64
	customerID   int
	customerName string
	total        decimal.Decimal
	soldAt       time.Time
	lines        []Line
}

// View is the serialisable form of a Sale.
type View struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"order_id"`
	CustomerID   int             `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Total        decimal.Decimal `json:"total"`
	SoldAt       time.Time       `json:"sold_at"`
	Lines        []Line          `json:"lines"`
}

func New(id, orderID int64, customerID int, customerName string, total decimal.Decimal, soldAt time.Time, lines []Line) (*Sale, error) {
	if orderID <= 0 {
		return nil, ErrMissingOrder
	}
	if customerID <= 0 {
		return nil, ErrMissingCustomer
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	if total.IsNegative() {
		return nil, ErrNegativeTotal
	}

	copied := make([]Line, len(lines))
	copy(copied, lines)

	return &Sale{
		id:           id,
		orderID:      orderID,
		customerID:   customerID,
		customerName: customerName,
		total:        total,
		soldAt:       soldAt,
		lines:        copied,
	}, nil
}

func (s *Sale) ID() int64              { return s.id }
func (s *Sale) OrderID() int64         { return s.orderID }
func (s *Sale) CustomerID() int        { return s.customerID }
func (s *Sale) CustomerName() string   { return s.customerName }
func (s *Sale) Total() decimal.Decimal { return s.total }
func (s *Sale) SoldAt() time.Time      { return s.soldAt }

func (s *Sale) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Sale) View() View {
	return View{
		ID:           s.id,
		OrderID:      s.orderID,
		CustomerID:   s.customerID,
		CustomerName: s.customerName,
		Total:        s.total,
		SoldAt:       s.soldAt,
		Lines:        s.Lines(),
	}
}

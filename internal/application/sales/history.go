package sales

import (
	"sync"

	"retailhub/internal/domain/sale"
)

// History is the append-only list of sales in delivery order.
type History struct {
	mu    sync.RWMutex
	sales []*sale.Sale
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Record(s *sale.Sale) {
	h.mu.Lock()
	h.sales = append(h.sales, s)
	h.mu.Unlock()
}

func (h *History) List() []sale.View {
	return h.filter(func(*sale.Sale) bool { return true })
}

func (h *History) ForCustomer(customerID int) []sale.View {
	return h.filter(func(s *sale.Sale) bool { return s.CustomerID() == customerID })
}

func (h *History) ForOrder(orderID int64) (sale.View, bool) {
	matches := h.filter(func(s *sale.Sale) bool { return s.OrderID() == orderID })
	if len(matches) == 0 {
		return sale.View{}, false
	}
	return matches[0], true
}

func (h *History) filter(keep func(*sale.Sale) bool) []sale.View {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]sale.View, 0)
	for _, s := range h.sales {
		if keep(s) {
			out = append(out, s.View())
		}
	}
	return out
}

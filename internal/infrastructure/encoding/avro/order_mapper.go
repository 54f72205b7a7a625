package avro

import (
	"fmt"
	"time"

	"github.com/linkedin/goavro/v2"
	"github.com/shopspring/decimal"

	"retailhub/internal/domain/inventory"
	domain "retailhub/internal/domain/order"
)

// OrderEventToNative maps an order event to the goavro native form of
// OrderEventSchema.
func OrderEventToNative(ev domain.Event) map[string]interface{} {
	items := make([]interface{}, 0, len(ev.Items))
	for _, it := range ev.Items {
		items = append(items, map[string]interface{}{
			"product_code":    int64(it.ProductCode),
			"product_name":    it.ProductName,
			"requested_qty":   int32(it.RequestedQty),
			"reserved_qty":    int32(it.ReservedQty),
			"backordered_qty": int32(it.BackorderedQty),
			"unmet_qty":       int32(it.UnmetQty),
			"price_at_sale":   it.PriceAtSale.String(),
		})
	}

	stock := make([]interface{}, 0, len(ev.Stock))
	for _, p := range ev.Stock {
		stock = append(stock, map[string]interface{}{
			"code":     int64(p.Code),
			"name":     p.Name,
			"price":    p.Price.String(),
			"quantity": int32(p.Quantity),
			"reserved": int32(p.Reserved),
		})
	}

	var saleID interface{}
	if ev.SaleID != 0 {
		saleID = goavro.Union("long", ev.SaleID)
	}

	return map[string]interface{}{
		"type":          string(ev.Type),
		"order_id":      ev.OrderID,
		"customer_id":   int64(ev.CustomerID),
		"customer_name": ev.CustomerName,
		"status":        string(ev.Status),
		"total_value":   ev.TotalValue.String(),
		"sale_id":       saleID,
		"occurred_at":   ev.OccurredAt.UTC(),
		"items":         items,
		"stock":         stock,
	}
}

// OrderEventFromNative is the inverse of OrderEventToNative.
func OrderEventFromNative(native map[string]interface{}) (domain.Event, error) {
	r := reader{rec: native}
	ev := domain.Event{
		Type:         domain.EventType(r.str("type")),
		OrderID:      r.long("order_id"),
		CustomerID:   int(r.long("customer_id")),
		CustomerName: r.str("customer_name"),
		Status:       domain.Status(r.str("status")),
		TotalValue:   r.money("total_value"),
		SaleID:       r.optionalLong("sale_id"),
		OccurredAt:   r.timestamp("occurred_at"),
	}

	for _, raw := range r.records("items") {
		it := reader{rec: raw}
		ev.Items = append(ev.Items, domain.ItemView{
			ProductCode:    int(it.long("product_code")),
			ProductName:    it.str("product_name"),
			RequestedQty:   it.int("requested_qty"),
			ReservedQty:    it.int("reserved_qty"),
			BackorderedQty: it.int("backordered_qty"),
			UnmetQty:       it.int("unmet_qty"),
			PriceAtSale:    it.money("price_at_sale"),
		})
		if it.err != nil {
			return domain.Event{}, fmt.Errorf("order event items: %w", it.err)
		}
	}

	for _, raw := range r.records("stock") {
		s := reader{rec: raw}
		v := inventory.View{
			Code:     int(s.long("code")),
			Name:     s.str("name"),
			Price:    s.money("price"),
			Quantity: s.int("quantity"),
			Reserved: s.int("reserved"),
		}
		v.Available = v.Quantity - v.Reserved
		if s.err != nil {
			return domain.Event{}, fmt.Errorf("order event stock: %w", s.err)
		}
		ev.Stock = append(ev.Stock, v)
	}

	if r.err != nil {
		return domain.Event{}, fmt.Errorf("order event: %w", r.err)
	}
	return ev, nil
}

// reader pulls typed fields out of a goavro record and keeps the first error.
type reader struct {
	rec map[string]interface{}
	err error
}

func (r *reader) fail(field string, v interface{}) {
	if r.err == nil {
		r.err = fmt.Errorf("field %q has unexpected type %T", field, v)
	}
}

func (r *reader) str(field string) string {
	v, ok := r.rec[field].(string)
	if !ok {
		r.fail(field, r.rec[field])
	}
	return v
}

func (r *reader) long(field string) int64 {
	v, ok := r.rec[field].(int64)
	if !ok {
		r.fail(field, r.rec[field])
	}
	return v
}

func (r *reader) int(field string) int {
	v, ok := r.rec[field].(int32)
	if !ok {
		r.fail(field, r.rec[field])
	}
	return int(v)
}

func (r *reader) money(field string) decimal.Decimal {
	s := r.str(field)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("field %q: %w", field, err)
	}
	return d
}

func (r *reader) timestamp(field string) time.Time {
	v, ok := r.rec[field].(time.Time)
	if !ok {
		r.fail(field, r.rec[field])
	}
	return v.UTC()
}

func (r *reader) optionalLong(field string) int64 {
	switch v := r.rec[field].(type) {
	case nil:
		return 0
	case map[string]interface{}:
		n, ok := v["long"].(int64)
		if !ok {
			r.fail(field, v["long"])
		}
		return n
	default:
		r.fail(field, v)
		return 0
	}
}

func (r *reader) optionalString(field string) string {
	switch v := r.rec[field].(type) {
	case nil:
		return ""
	case map[string]interface{}:
		s, ok := v["string"].(string)
		if !ok {
			r.fail(field, v["string"])
		}
		return s
	default:
		r.fail(field, v)
		return ""
	}
}

func (r *reader) records(field string) []map[string]interface{} {
	raw, ok := r.rec[field].([]interface{})
	if !ok {
		if r.rec[field] != nil {
			r.fail(field, r.rec[field])
		}
		return nil
	}
	out := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			r.fail(field, item)
			continue
		}
		out = append(out, m)
	}
	return out
}

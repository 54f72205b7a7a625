package avro

import (
	"fmt"

	"github.com/linkedin/goavro/v2"

	"retailhub/internal/domain/restock"
)

func DeliveryToNative(d restock.Delivery) map[string]interface{} {
	var supplier interface{}
	if d.Supplier != "" {
		supplier = goavro.Union("string", d.Supplier)
	}
	return map[string]interface{}{
		"delivery_id":  d.ID,
		"product_code": int64(d.ProductCode),
		"quantity":     int32(d.Quantity),
		"supplier":     supplier,
		"received_at":  d.ReceivedAt.UTC(),
	}
}

func DeliveryFromNative(native map[string]interface{}) (restock.Delivery, error) {
	r := reader{rec: native}
	d := restock.Delivery{
		ID:          r.str("delivery_id"),
		ProductCode: int(r.long("product_code")),
		Quantity:    r.int("quantity"),
		Supplier:    r.optionalString("supplier"),
		ReceivedAt:  r.timestamp("received_at"),
	}
	if r.err != nil {
		return restock.Delivery{}, fmt.Errorf("restock delivery: %w", r.err)
	}
	return d, nil
}

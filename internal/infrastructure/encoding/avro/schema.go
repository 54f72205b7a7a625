package avro

// OrderEventSchema describes one order state change. Money travels as decimal
// strings so no precision is lost.
const OrderEventSchema = `{
	"type": "record",
	"name": "OrderEvent",
	"namespace": "retailhub.order",
	"fields": [
		{"name": "type", "type": "string"},
		{"name": "order_id", "type": "long"},
		{"name": "customer_id", "type": "long"},
		{"name": "customer_name", "type": "string"},
		{"name": "status", "type": "string"},
		{"name": "total_value", "type": "string"},
		{"name": "sale_id", "type": ["null", "long"], "default": null},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}},

		{"name": "items", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "OrderLine",
				"fields": [
					{"name": "product_code", "type": "long"},
					{"name": "product_name", "type": "string"},
					{"name": "requested_qty", "type": "int"},
					{"name": "reserved_qty", "type": "int"},
					{"name": "backordered_qty", "type": "int"},
					{"name": "unmet_qty", "type": "int", "default": 0},
					{"name": "price_at_sale", "type": "string"}
				]
			}
		}},

		{"name": "stock", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "StockLevel",
				"fields": [
					{"name": "code", "type": "long"},
					{"name": "name", "type": "string"},
					{"name": "price", "type": "string"},
					{"name": "quantity", "type": "int"},
					{"name": "reserved", "type": "int"}
				]
			}
		}, "default": []}
	]
}`

// RestockDeliverySchema describes goods received from a supplier.
const RestockDeliverySchema = `{
	"type": "record",
	"name": "RestockDelivery",
	"namespace": "retailhub.restock",
	"fields": [
		{"name": "delivery_id", "type": "string"},
		{"name": "product_code", "type": "long"},
		{"name": "quantity", "type": "int"},
		{"name": "supplier", "type": ["null", "string"], "default": null},
		{"name": "received_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS products (
		code INT PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC NOT NULL,
		quantity INT NOT NULL,
		reserved INT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS orders (
		id BIGINT PRIMARY KEY,
		customer_id INT NOT NULL,
		customer_name TEXT NOT NULL,
		status TEXT NOT NULL,
		total_value NUMERIC NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS order_items (
		order_id BIGINT NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		line_no INT NOT NULL,
		product_code INT NOT NULL,
		product_name TEXT NOT NULL,
		requested_qty INT NOT NULL,
		reserved_qty INT NOT NULL,
		backordered_qty INT NOT NULL,
		unmet_qty INT NOT NULL,
		price_at_sale NUMERIC NOT NULL,
		PRIMARY KEY (order_id, line_no)
	);

	CREATE TABLE IF NOT EXISTS sales (
		id BIGINT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		customer_id INT NOT NULL,
		customer_name TEXT NOT NULL,
		total NUMERIC NOT NULL,
		sold_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS sales_customer_idx ON sales (customer_id, id);

	CREATE TABLE IF NOT EXISTS sale_lines (
		sale_id BIGINT NOT NULL REFERENCES sales (id) ON DELETE CASCADE,
		line_no INT NOT NULL,
		product_code INT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INT NOT NULL,
		unit_price NUMERIC NOT NULL,
		PRIMARY KEY (sale_id, line_no)
	);
`

// tables creates the projection schema once per pool. A failed attempt is
// retried on the next call.
type tables struct {
	pool *pgxpool.Pool
	mu   sync.Mutex
	done bool
}

func (t *tables) ensure(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	if _, err := t.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure tables: %w", err)
	}
	t.done = true
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	domain "retailhub/internal/domain/order"
)

type OrderRepository struct {
	pool   *pgxpool.Pool
	tables *tables
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool, tables: &tables{pool: pool}}
}

// Save upserts the order row and replaces its lines in one transaction.
func (r *OrderRepository) Save(ctx context.Context, o domain.View) error {
	if o.ID <= 0 {
		return fmt.Errorf("order id is required")
	}
	if err := r.tables.ensure(ctx); err != nil {
		return err
	}

	const upsert = `
		INSERT INTO orders (id, customer_id, customer_name, status, total_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET customer_id = EXCLUDED.customer_id,
			customer_name = EXCLUDED.customer_name,
			status = EXCLUDED.status,
			total_value = EXCLUDED.total_value,
			created_at = EXCLUDED.created_at;
	`
	const insertItem = `
		INSERT INTO order_items (order_id, line_no, product_code, product_name,
			requested_qty, reserved_qty, backordered_qty, unmet_qty, price_at_sale)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsert,
			o.ID,
			o.CustomerID,
			o.CustomerName,
			string(o.Status),
			o.TotalValue.String(),
			o.CreatedAt,
		); err != nil {
			return fmt.Errorf("upsert order %d: %w", o.ID, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1;`, o.ID); err != nil {
			return fmt.Errorf("clear items of order %d: %w", o.ID, err)
		}

		batch := &pgx.Batch{}
		for i, it := range o.Items {
			batch.Queue(insertItem,
				o.ID,
				i,
				it.ProductCode,
				it.ProductName,
				it.RequestedQty,
				it.ReservedQty,
				it.BackorderedQty,
				it.UnmetQty,
				it.PriceAtSale.String(),
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert items of order %d: %w", o.ID, err)
		}
		return nil
	})
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.View, error) {
	if err := r.tables.ensure(ctx); err != nil {
		return nil, err
	}

	const query = `
		SELECT id, customer_id, customer_name, status, total_value::TEXT, created_at
		FROM orders
		WHERE id = $1;
	`
	var (
		o      domain.View
		status string
		total  string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.CustomerID,
		&o.CustomerName,
		&status,
		&total,
		&o.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	if o.TotalValue, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("order %d total: %w", id, err)
	}
	o.CreatedAt = o.CreatedAt.UTC()

	const items = `
		SELECT product_code, product_name, requested_qty, reserved_qty,
			backordered_qty, unmet_qty, price_at_sale::TEXT
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_no;
	`
	rows, err := r.pool.Query(ctx, items, id)
	if err != nil {
		return nil, err
	}
	o.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ItemView, error) {
		var (
			it    domain.ItemView
			price string
		)
		if err := row.Scan(
			&it.ProductCode,
			&it.ProductName,
			&it.RequestedQty,
			&it.ReservedQty,
			&it.BackorderedQty,
			&it.UnmetQty,
			&price,
		); err != nil {
			return it, err
		}
		it.PriceAtSale, err = decimal.NewFromString(price)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("order %d items: %w", id, err)
	}
	return &o, nil
}

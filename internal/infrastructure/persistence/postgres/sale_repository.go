package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"retailhub/internal/domain/sale"
)

type SaleRepository struct {
	pool   *pgxpool.Pool
	tables *tables
}

func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool, tables: &tables{pool: pool}}
}

// Save is idempotent: a sale that already exists is left untouched.
func (r *SaleRepository) Save(ctx context.Context, s sale.View) error {
	if s.ID <= 0 {
		return fmt.Errorf("sale id is required")
	}
	if err := r.tables.ensure(ctx); err != nil {
		return err
	}

	const insert = `
		INSERT INTO sales (id, order_id, customer_id, customer_name, total, sold_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING;
	`
	const insertLine = `
		INSERT INTO sale_lines (sale_id, line_no, product_code, product_name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sale_id, line_no) DO NOTHING;
	`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insert,
			s.ID,
			s.OrderID,
			s.CustomerID,
			s.CustomerName,
			s.Total.String(),
			s.SoldAt,
		); err != nil {
			return fmt.Errorf("insert sale %d: %w", s.ID, err)
		}

		batch := &pgx.Batch{}
		for i, l := range s.Lines {
			batch.Queue(insertLine, s.ID, i, l.ProductCode, l.ProductName, l.Quantity, l.UnitPrice.String())
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert lines of sale %d: %w", s.ID, err)
		}
		return nil
	})
}

func (r *SaleRepository) ListByCustomer(ctx context.Context, customerID int) ([]sale.View, error) {
	if err := r.tables.ensure(ctx); err != nil {
		return nil, err
	}

	const query = `
		SELECT s.id, s.order_id, s.customer_id, s.customer_name, s.total::TEXT, s.sold_at,
			l.product_code, l.product_name, l.quantity, l.unit_price::TEXT
		FROM sales s
		JOIN sale_lines l ON l.sale_id = s.id
		WHERE s.customer_id = $1
		ORDER BY s.id, l.line_no;
	`
	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sale.View
	for rows.Next() {
		var (
			s            sale.View
			l            sale.Line
			total, price string
		)
		if err := rows.Scan(
			&s.ID, &s.OrderID, &s.CustomerID, &s.CustomerName, &total, &s.SoldAt,
			&l.ProductCode, &l.ProductName, &l.Quantity, &price,
		); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("sale %d line price: %w", s.ID, err)
		}

		if n := len(out); n > 0 && out[n-1].ID == s.ID {
			out[n-1].Lines = append(out[n-1].Lines, l)
			continue
		}
		if s.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("sale %d total: %w", s.ID, err)
		}
		s.SoldAt = s.SoldAt.UTC()
		s.Lines = []sale.Line{l}
		out = append(out, s)
	}
	return out, rows.Err()
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"retailhub/internal/domain/inventory"
)

// ProductRepository keeps the latest stock level per product.
type ProductRepository struct {
	pool   *pgxpool.Pool
	tables *tables
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool, tables: &tables{pool: pool}}
}

func (r *ProductRepository) Save(ctx context.Context, p inventory.View) error {
	if err := r.tables.ensure(ctx); err != nil {
		return err
	}

	const query = `
		INSERT INTO products (code, name, price, quantity, reserved, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name,
			price = EXCLUDED.price,
			quantity = EXCLUDED.quantity,
			reserved = EXCLUDED.reserved,
			updated_at = EXCLUDED.updated_at;
	`
	if _, err := r.pool.Exec(ctx, query, p.Code, p.Name, p.Price.String(), p.Quantity, p.Reserved); err != nil {
		return fmt.Errorf("upsert product %d: %w", p.Code, err)
	}
	return nil
}

func (r *ProductRepository) FindByCode(ctx context.Context, code int) (*inventory.View, error) {
	if err := r.tables.ensure(ctx); err != nil {
		return nil, err
	}

	const query = `
		SELECT code, name, price::TEXT, quantity, reserved
		FROM products
		WHERE code = $1;
	`
	var (
		p     inventory.View
		price string
	)
	err := r.pool.QueryRow(ctx, query, code).Scan(&p.Code, &p.Name, &price, &p.Quantity, &p.Reserved)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("product %d price: %w", code, err)
	}
	p.Available = p.Quantity - p.Reserved
	return &p, nil
}

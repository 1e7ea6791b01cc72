package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Products is the Postgres-backed ProductStore.
type Products struct {
	pool *pgxpool.Pool
}

// NewProducts constructs a product store on the shared pool.
func NewProducts(pool *pgxpool.Pool) *Products {
	return &Products{pool: pool}
}

func (s *Products) Add(ctx context.Context, p Product) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO products (id, name, price) VALUES ($1, $2, $3)`,
		p.ID, p.Name, p.Price)
	return translateErr(err)
}

func (s *Products) GetByID(ctx context.Context, id string) (Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, price FROM products WHERE id = $1`,
		id).Scan(&p.ID, &p.Name, &p.Price)
	return p, translateErr(err)
}

func (s *Products) ListAll(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, price FROM products ORDER BY seq`)
	if err != nil {
		return nil, translateErr(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Product, error) {
		var p Product
		err := row.Scan(&p.ID, &p.Name, &p.Price)
		return p, err
	})
}

func (s *Products) Update(ctx context.Context, p Product) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET name = $2, price = $3 WHERE id = $1`,
		p.ID, p.Name, p.Price)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

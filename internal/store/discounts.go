package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductDiscounts is the Postgres-backed ProductDiscountStore.
type ProductDiscounts struct {
	pool *pgxpool.Pool
}

// NewProductDiscounts constructs a product discount store on the shared pool.
func NewProductDiscounts(pool *pgxpool.Pool) *ProductDiscounts {
	return &ProductDiscounts{pool: pool}
}

func (s *ProductDiscounts) Add(ctx context.Context, d ProductDiscount) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO product_discounts (id, product_id, discount) VALUES ($1, $2, $3)`,
		d.ID, d.ProductID, d.Discount)
	return translateErr(err)
}

func (s *ProductDiscounts) GetByID(ctx context.Context, id string) (ProductDiscount, error) {
	var d ProductDiscount
	err := s.pool.QueryRow(ctx,
		`SELECT id, product_id, discount FROM product_discounts WHERE id = $1`,
		id).Scan(&d.ID, &d.ProductID, &d.Discount)
	return d, translateErr(err)
}

func (s *ProductDiscounts) ListAll(ctx context.Context) ([]ProductDiscount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, product_id, discount FROM product_discounts ORDER BY seq`)
	if err != nil {
		return nil, translateErr(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ProductDiscount, error) {
		var d ProductDiscount
		err := row.Scan(&d.ID, &d.ProductID, &d.Discount)
		return d, err
	})
}

func (s *ProductDiscounts) Remove(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM product_discounts WHERE id = $1`, id)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReceiptDiscounts is the Postgres-backed ReceiptDiscountStore.
type ReceiptDiscounts struct {
	pool *pgxpool.Pool
}

// NewReceiptDiscounts constructs a receipt discount store on the shared pool.
func NewReceiptDiscounts(pool *pgxpool.Pool) *ReceiptDiscounts {
	return &ReceiptDiscounts{pool: pool}
}

func (s *ReceiptDiscounts) Add(ctx context.Context, d ReceiptDiscount) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO receipt_discounts (id, minimum_total, discount) VALUES ($1, $2, $3)`,
		d.ID, d.MinimumTotal, d.Discount)
	return translateErr(err)
}

func (s *ReceiptDiscounts) GetByID(ctx context.Context, id string) (ReceiptDiscount, error) {
	var d ReceiptDiscount
	err := s.pool.QueryRow(ctx,
		`SELECT id, minimum_total, discount FROM receipt_discounts WHERE id = $1`,
		id).Scan(&d.ID, &d.MinimumTotal, &d.Discount)
	return d, translateErr(err)
}

func (s *ReceiptDiscounts) ListAll(ctx context.Context) ([]ReceiptDiscount, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, minimum_total, discount FROM receipt_discounts ORDER BY seq`)
	if err != nil {
		return nil, translateErr(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ReceiptDiscount, error) {
		var d ReceiptDiscount
		err := row.Scan(&d.ID, &d.MinimumTotal, &d.Discount)
		return d, err
	})
}

func (s *ReceiptDiscounts) Remove(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM receipt_discounts WHERE id = $1`, id)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReceiptItems is the Postgres-backed ReceiptItemStore.
type ReceiptItems struct {
	pool *pgxpool.Pool
}

// NewReceiptItems constructs a receipt item store on the shared pool.
func NewReceiptItems(pool *pgxpool.Pool) *ReceiptItems {
	return &ReceiptItems{pool: pool}
}

func (s *ReceiptItems) Add(ctx context.Context, it ReceiptItem) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO receipt_items (id, receipt_id, product_id, quantity, price)
		 VALUES ($1, $2, $3, $4, $5)`,
		it.ID, it.ReceiptID, it.ProductID, it.Quantity, it.Price)
	return translateErr(err)
}

func (s *ReceiptItems) GetByID(ctx context.Context, id string) (ReceiptItem, error) {
	var it ReceiptItem
	err := s.pool.QueryRow(ctx,
		`SELECT id, receipt_id, product_id, quantity, price FROM receipt_items WHERE id = $1`,
		id).Scan(&it.ID, &it.ReceiptID, &it.ProductID, &it.Quantity, &it.Price)
	return it, translateErr(err)
}

func (s *ReceiptItems) ListByReceipt(ctx context.Context, receiptID string) ([]ReceiptItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, receipt_id, product_id, quantity, price
		 FROM receipt_items WHERE receipt_id = $1 ORDER BY seq`,
		receiptID)
	if err != nil {
		return nil, translateErr(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ReceiptItem, error) {
		var it ReceiptItem
		err := row.Scan(&it.ID, &it.ReceiptID, &it.ProductID, &it.Quantity, &it.Price)
		return it, err
	})
}

// Update rewrites the quantity of an existing line. The snapshotted price is
// deliberately left untouched.
func (s *ReceiptItems) Update(ctx context.Context, it ReceiptItem) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE receipt_items SET quantity = $2 WHERE id = $1`,
		it.ID, it.Quantity)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ReceiptItems) Remove(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM receipt_items WHERE id = $1`, id)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Receipts is the Postgres-backed ReceiptStore.
type Receipts struct {
	pool *pgxpool.Pool
}

// NewReceipts constructs a receipt store on the shared pool.
func NewReceipts(pool *pgxpool.Pool) *Receipts {
	return &Receipts{pool: pool}
}

func (s *Receipts) Add(ctx context.Context, r Receipt) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO receipts (id, open, paid, shift_id) VALUES ($1, $2, $3, $4)`,
		r.ID, r.Open, r.Paid, r.ShiftID)
	return translateErr(err)
}

func (s *Receipts) GetByID(ctx context.Context, id string) (Receipt, error) {
	var r Receipt
	err := s.pool.QueryRow(ctx,
		`SELECT id, open, paid, shift_id FROM receipts WHERE id = $1`,
		id).Scan(&r.ID, &r.Open, &r.Paid, &r.ShiftID)
	return r, translateErr(err)
}

func (s *Receipts) ListAll(ctx context.Context) ([]Receipt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, open, paid, shift_id FROM receipts ORDER BY seq`)
	if err != nil {
		return nil, translateErr(err)
	}
	return collectReceipts(rows)
}

func (s *Receipts) ListByShift(ctx context.Context, shiftID string) ([]Receipt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, open, paid, shift_id FROM receipts WHERE shift_id = $1 ORDER BY seq`,
		shiftID)
	if err != nil {
		return nil, translateErr(err)
	}
	return collectReceipts(rows)
}

// Close flips the receipt to closed and records the amount paid in the base
// currency. Closing an unknown receipt reports ErrNotFound.
func (s *Receipts) Close(ctx context.Context, id string, paid float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE receipts SET open = FALSE, paid = $2 WHERE id = $1`,
		id, paid)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectReceipts(rows pgx.Rows) ([]Receipt, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Receipt, error) {
		var r Receipt
		err := row.Scan(&r.ID, &r.Open, &r.Paid, &r.ShiftID)
		return r, err
	})
}

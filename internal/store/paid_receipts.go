package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaidReceipts is the Postgres-backed PaidReceiptStore. Rows are append-only;
// there is deliberately no update or remove.
type PaidReceipts struct {
	pool *pgxpool.Pool
}

// NewPaidReceipts constructs a paid receipt store on the shared pool.
func NewPaidReceipts(pool *pgxpool.Pool) *PaidReceipts {
	return &PaidReceipts{pool: pool}
}

func (s *PaidReceipts) Add(ctx context.Context, p PaidReceipt) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO paid_receipts (id, receipt_id, currency_name, paid)
		 VALUES ($1, $2, $3, $4)`,
		p.ID, p.ReceiptID, p.CurrencyName, p.Paid)
	return translateErr(err)
}

func (s *PaidReceipts) GetByID(ctx context.Context, id string) (PaidReceipt, error) {
	var p PaidReceipt
	err := s.pool.QueryRow(ctx,
		`SELECT id, receipt_id, currency_name, paid FROM paid_receipts WHERE id = $1`,
		id).Scan(&p.ID, &p.ReceiptID, &p.CurrencyName, &p.Paid)
	return p, translateErr(err)
}

func (s *PaidReceipts) ListAll(ctx context.Context) ([]PaidReceipt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, receipt_id, currency_name, paid FROM paid_receipts ORDER BY seq`)
	if err != nil {
		return nil, translateErr(err)
	}
	return collectPaidReceipts(rows)
}

func (s *PaidReceipts) ListByReceipt(ctx context.Context, receiptID string) ([]PaidReceipt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, receipt_id, currency_name, paid
		 FROM paid_receipts WHERE receipt_id = $1 ORDER BY seq`,
		receiptID)
	if err != nil {
		return nil, translateErr(err)
	}
	return collectPaidReceipts(rows)
}

func collectPaidReceipts(rows pgx.Rows) ([]PaidReceipt, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (PaidReceipt, error) {
		var p PaidReceipt
		err := row.Scan(&p.ID, &p.ReceiptID, &p.CurrencyName, &p.Paid)
		return p, err
	})
}

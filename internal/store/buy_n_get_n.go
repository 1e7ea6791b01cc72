package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BuyNGetNs is the Postgres-backed BuyNGetNStore.
type BuyNGetNs struct {
	pool *pgxpool.Pool
}

// NewBuyNGetNs constructs a buy-n-get-n store on the shared pool.
func NewBuyNGetNs(pool *pgxpool.Pool) *BuyNGetNs {
	return &BuyNGetNs{pool: pool}
}

func (s *BuyNGetNs) Add(ctx context.Context, b BuyNGetN) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO buy_n_get_ns (id, buy_product_id, buy_product_n, get_product_id, get_product_n)
		 VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.BuyProductID, b.BuyProductN, b.GetProductID, b.GetProductN)
	return translateErr(err)
}

func (s *BuyNGetNs) GetByID(ctx context.Context, id string) (BuyNGetN, error) {
	var b BuyNGetN
	err := s.pool.QueryRow(ctx,
		`SELECT id, buy_product_id, buy_product_n, get_product_id, get_product_n
		 FROM buy_n_get_ns WHERE id = $1`,
		id).Scan(&b.ID, &b.BuyProductID, &b.BuyProductN, &b.GetProductID, &b.GetProductN)
	return b, translateErr(err)
}

func (s *BuyNGetNs) ListAll(ctx context.Context) ([]BuyNGetN, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, buy_product_id, buy_product_n, get_product_id, get_product_n
		 FROM buy_n_get_ns ORDER BY seq`)
	if err != nil {
		return nil, translateErr(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (BuyNGetN, error) {
		var b BuyNGetN
		err := row.Scan(&b.ID, &b.BuyProductID, &b.BuyProductN, &b.GetProductID, &b.GetProductN)
		return b, err
	})
}

func (s *BuyNGetNs) Remove(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM buy_n_get_ns WHERE id = $1`, id)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

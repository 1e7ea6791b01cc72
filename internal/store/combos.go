package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Combos is the Postgres-backed ComboStore.
type Combos struct {
	pool *pgxpool.Pool
}

// NewCombos constructs a combo store on the shared pool.
func NewCombos(pool *pgxpool.Pool) *Combos {
	return &Combos{pool: pool}
}

func (s *Combos) Add(ctx context.Context, c Combo) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO combos (id, name, discount) VALUES ($1, $2, $3)`,
		c.ID, c.Name, c.Discount)
	return translateErr(err)
}

func (s *Combos) GetByID(ctx context.Context, id string) (Combo, error) {
	var c Combo
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, discount FROM combos WHERE id = $1`,
		id).Scan(&c.ID, &c.Name, &c.Discount)
	return c, translateErr(err)
}

func (s *Combos) ListAll(ctx context.Context) ([]Combo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, discount FROM combos ORDER BY seq`)
	if err != nil {
		return nil, translateErr(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Combo, error) {
		var c Combo
		err := row.Scan(&c.ID, &c.Name, &c.Discount)
		return c, err
	})
}

func (s *Combos) Remove(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM combos WHERE id = $1`, id)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ComboItems is the Postgres-backed ComboItemStore.
type ComboItems struct {
	pool *pgxpool.Pool
}

// NewComboItems constructs a combo item store on the shared pool.
func NewComboItems(pool *pgxpool.Pool) *ComboItems {
	return &ComboItems{pool: pool}
}

func (s *ComboItems) Add(ctx context.Context, it ComboItem) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO combo_items (id, combo_id, product_id, quantity) VALUES ($1, $2, $3, $4)`,
		it.ID, it.ComboID, it.ProductID, it.Quantity)
	return translateErr(err)
}

func (s *ComboItems) ListByCombo(ctx context.Context, comboID string) ([]ComboItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, combo_id, product_id, quantity
		 FROM combo_items WHERE combo_id = $1 ORDER BY seq`,
		comboID)
	if err != nil {
		return nil, translateErr(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ComboItem, error) {
		var it ComboItem
		err := row.Scan(&it.ID, &it.ComboID, &it.ProductID, &it.Quantity)
		return it, err
	})
}

func (s *ComboItems) Remove(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM combo_items WHERE id = $1`, id)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

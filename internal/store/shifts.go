package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Shifts is the Postgres-backed ShiftStore.
type Shifts struct {
	pool *pgxpool.Pool
}

// NewShifts constructs a shift store on the shared pool.
func NewShifts(pool *pgxpool.Pool) *Shifts {
	return &Shifts{pool: pool}
}

func (s *Shifts) Add(ctx context.Context, sh Shift) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO shifts (id, status, start_time, end_time) VALUES ($1, $2, $3, $4)`,
		sh.ID, sh.Status, sh.StartTime, sh.EndTime)
	return translateErr(err)
}

func (s *Shifts) GetByID(ctx context.Context, id string) (Shift, error) {
	var sh Shift
	err := s.pool.QueryRow(ctx,
		`SELECT id, status, start_time, end_time FROM shifts WHERE id = $1`,
		id).Scan(&sh.ID, &sh.Status, &sh.StartTime, &sh.EndTime)
	return sh, translateErr(err)
}

func (s *Shifts) ListAll(ctx context.Context) ([]Shift, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, status, start_time, end_time FROM shifts ORDER BY seq`)
	if err != nil {
		return nil, translateErr(err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Shift, error) {
		var sh Shift
		err := row.Scan(&sh.ID, &sh.Status, &sh.StartTime, &sh.EndTime)
		return sh, err
	})
}

func (s *Shifts) Update(ctx context.Context, sh Shift) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE shifts SET status = $2, start_time = $3, end_time = $4 WHERE id = $1`,
		sh.ID, sh.Status, sh.StartTime, sh.EndTime)
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

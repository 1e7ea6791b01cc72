// Package shift manages till shifts. Receipts are always opened against a
// shift; closing a shift does not touch its receipts.
package shift

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/store"
)

// Shift statuses.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Shift is a till shift as exposed to callers.
type Shift struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
}

// Service orchestrates shift lifecycle.
type Service struct {
	Shifts store.ShiftStore
	Now    func() time.Time
}

// Open starts a new shift.
func (s *Service) Open(ctx context.Context) (Shift, error) {
	rec := store.Shift{
		ID:        uuid.NewString(),
		Status:    StatusOpen,
		StartTime: s.now().Format(time.RFC3339),
	}
	if err := s.Shifts.Add(ctx, rec); err != nil {
		return Shift{}, err
	}
	return fromRecord(rec), nil
}

// Get returns a shift by id.
func (s *Service) Get(ctx context.Context, id string) (Shift, error) {
	rec, err := s.Shifts.GetByID(ctx, id)
	if err != nil {
		return Shift{}, s.translate(id, err)
	}
	return fromRecord(rec), nil
}

// List returns every shift.
func (s *Service) List(ctx context.Context) ([]Shift, error) {
	records, err := s.Shifts.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	shifts := make([]Shift, 0, len(records))
	for _, rec := range records {
		shifts = append(shifts, fromRecord(rec))
	}
	return shifts, nil
}

// Close ends a shift. Closing an already closed shift is a no-op returning
// the shift, mirroring receipt close semantics.
func (s *Service) Close(ctx context.Context, id string) (Shift, error) {
	rec, err := s.Shifts.GetByID(ctx, id)
	if err != nil {
		return Shift{}, s.translate(id, err)
	}
	if rec.Status == StatusClosed {
		return fromRecord(rec), nil
	}
	rec.Status = StatusClosed
	rec.EndTime = s.now().Format(time.RFC3339)
	if err := s.Shifts.Update(ctx, rec); err != nil {
		return Shift{}, s.translate(id, err)
	}
	return fromRecord(rec), nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) translate(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &common.AppError{
			Code: "SHIFT_NOT_FOUND", Message: fmt.Sprintf("shift %q not found", id),
			HTTPStatus: http.StatusNotFound, Err: err,
		}
	}
	return err
}

func fromRecord(rec store.Shift) Shift {
	return Shift{ID: rec.ID, Status: rec.Status, StartTime: rec.StartTime, EndTime: rec.EndTime}
}

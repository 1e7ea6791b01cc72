package shift_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/shift"
	"github.com/noah-isme/backend-pos/internal/store"
)

func fixedClock(t *testing.T) func() time.Time {
	t.Helper()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func TestShiftLifecycle(t *testing.T) {
	svc := &shift.Service{Shifts: store.NewMemShifts(), Now: fixedClock(t)}
	ctx := context.Background()

	opened, err := svc.Open(ctx)
	require.NoError(t, err)
	require.Equal(t, shift.StatusOpen, opened.Status)
	require.Equal(t, "2025-03-10T09:00:00Z", opened.StartTime)
	require.Empty(t, opened.EndTime)

	got, err := svc.Get(ctx, opened.ID)
	require.NoError(t, err)
	require.Equal(t, opened, got)

	closed, err := svc.Close(ctx, opened.ID)
	require.NoError(t, err)
	require.Equal(t, shift.StatusClosed, closed.Status)
	require.Equal(t, "2025-03-10T09:00:00Z", closed.EndTime)

	again, err := svc.Close(ctx, opened.ID)
	require.NoError(t, err)
	require.Equal(t, closed, again)
}

func TestShiftList(t *testing.T) {
	svc := &shift.Service{Shifts: store.NewMemShifts(), Now: fixedClock(t)}
	ctx := context.Background()

	first, err := svc.Open(ctx)
	require.NoError(t, err)
	second, err := svc.Open(ctx)
	require.NoError(t, err)

	shifts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	require.Equal(t, first.ID, shifts[0].ID)
	require.Equal(t, second.ID, shifts[1].ID)
}

func TestShiftNotFound(t *testing.T) {
	svc := &shift.Service{Shifts: store.NewMemShifts()}

	_, err := svc.Get(context.Background(), "missing")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "SHIFT_NOT_FOUND", appErr.Code)

	_, err = svc.Close(context.Background(), "missing")
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "SHIFT_NOT_FOUND", appErr.Code)
}

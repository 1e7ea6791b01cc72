package receipt_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/currency"
	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/receipt"
	"github.com/noah-isme/backend-pos/internal/store"
)

type fixture struct {
	svc              *receipt.Service
	products         *store.MemProducts
	shifts           *store.MemShifts
	paid             *store.MemPaidReceipts
	productDiscounts *store.MemProductDiscounts
	receiptDiscounts *store.MemReceiptDiscounts
	combos           *store.MemCombos
	comboItems       *store.MemComboItems
	offers           *store.MemBuyNGetNs
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		products:         store.NewMemProducts(),
		shifts:           store.NewMemShifts(),
		paid:             store.NewMemPaidReceipts(),
		productDiscounts: store.NewMemProductDiscounts(),
		receiptDiscounts: store.NewMemReceiptDiscounts(),
		combos:           store.NewMemCombos(),
		comboItems:       store.NewMemComboItems(),
		offers:           store.NewMemBuyNGetNs(),
	}
	f.svc = &receipt.Service{
		Receipts:     store.NewMemReceipts(),
		Items:        store.NewMemReceiptItems(),
		Shifts:       f.shifts,
		Products:     f.products,
		PaidReceipts: f.paid,
		Chain: pricing.Builder{
			ReceiptDiscounts: f.receiptDiscounts,
			ProductDiscounts: f.productDiscounts,
			Combos:           f.combos,
			ComboItems:       f.comboItems,
			BuyNGetNs:        f.offers,
		},
		Convert: currency.NewStatic().
			WithRate("GEL", "USD", 0.37).
			WithRate("GEL", "EUR", 0.34),
	}
	ctx := context.Background()
	require.NoError(t, f.shifts.Add(ctx, store.Shift{ID: "shift-1", Status: "open"}))
	require.NoError(t, f.products.Add(ctx, store.Product{ID: "p1", Name: "espresso", Price: 1.0}))
	require.NoError(t, f.products.Add(ctx, store.Product{ID: "p2", Name: "croissant", Price: 2.0}))
	return f
}

func requireAppErr(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code)
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)
	require.True(t, created.Open)
	require.Equal(t, "shift-1", created.ShiftID)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, created.ShiftID, got.ShiftID)
	require.Empty(t, got.Items)
}

func TestCreateUnknownShift(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), "missing")
	requireAppErr(t, err, "SHIFT_NOT_FOUND")
}

func TestAddProductSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)

	v, err := f.svc.AddProduct(ctx, rec.ID, "p1", 2)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	require.Equal(t, 2, v.Items[0].Quantity)
	require.InDelta(t, 1.0, v.Items[0].Price, 1e-9)

	// Catalog price changes must not touch the snapshotted line price.
	require.NoError(t, f.products.Update(ctx, store.Product{ID: "p1", Name: "espresso", Price: 9.0}))
	v, err = f.svc.AddProduct(ctx, rec.ID, "p1", 1)
	require.NoError(t, err)
	require.Equal(t, 3, v.Items[0].Quantity)
	require.InDelta(t, 1.0, v.Items[0].Price, 1e-9)
}

func TestAddProductNegativeDeltaClampsAndRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)

	_, err = f.svc.AddProduct(ctx, rec.ID, "p1", 2)
	require.NoError(t, err)
	v, err := f.svc.AddProduct(ctx, rec.ID, "p1", -5)
	require.NoError(t, err)
	require.Empty(t, v.Items)

	// A negative delta for a product not on the receipt adds nothing.
	v, err = f.svc.AddProduct(ctx, rec.ID, "p2", -1)
	require.NoError(t, err)
	require.Empty(t, v.Items)
}

func TestAddProductUnknownProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)

	_, err = f.svc.AddProduct(ctx, rec.ID, "missing", 1)
	requireAppErr(t, err, "PRODUCT_NOT_FOUND")
}

func TestRemoveProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, rec.ID, "p1", 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveProduct(ctx, rec.ID, "p1"))
	v, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Empty(t, v.Items)

	err = f.svc.RemoveProduct(ctx, rec.ID, "p1")
	requireAppErr(t, err, "RECEIPT_ITEM_NOT_FOUND")
}

func TestCostIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, rec.ID, "p1", 1)
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, rec.ID, "p2", 2)
	require.NoError(t, err)

	first, err := f.svc.Cost(ctx, rec.ID)
	require.NoError(t, err)
	second, err := f.svc.Cost(ctx, rec.ID)
	require.NoError(t, err)
	require.InDelta(t, 5.0, first, 1e-9)
	require.InDelta(t, first, second, 1e-9)
}

func TestDiscountAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.productDiscounts.Add(ctx, store.ProductDiscount{ID: "d1", ProductID: "p1", Discount: 0.1}))

	rec, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, rec.ID, "p1", 1)
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, rec.ID, "p2", 2)
	require.NoError(t, err)

	d, err := f.svc.DiscountAmount(ctx, rec.ID)
	require.NoError(t, err)
	require.InDelta(t, 4.9, d.FinalCost, 1e-9)
	require.InDelta(t, 0.1, d.Discount, 1e-9)
}

func TestCloseRecordsPaymentAndLocksReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, rec.ID, "p2", 2)
	require.NoError(t, err)

	closed, err := f.svc.Close(ctx, rec.ID, "USD")
	require.NoError(t, err)
	require.False(t, closed.Open)
	require.InDelta(t, 4.0, closed.Paid, 1e-9)

	payments, err := f.paid.ListByReceipt(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, "USD", payments[0].CurrencyName)
	require.InDelta(t, 4.0*0.37, payments[0].Paid, 1e-9)

	// Closed receipts ignore further mutation.
	v, err := f.svc.AddProduct(ctx, rec.ID, "p1", 3)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	require.NoError(t, f.svc.RemoveProduct(ctx, rec.ID, "p2"))
	v, err = f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
}

func TestCloseTwiceIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, rec.ID, "p1", 1)
	require.NoError(t, err)

	first, err := f.svc.Close(ctx, rec.ID, "GEL")
	require.NoError(t, err)
	second, err := f.svc.Close(ctx, rec.ID, "GEL")
	require.NoError(t, err)
	require.Equal(t, first, second)

	payments, err := f.paid.ListByReceipt(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
}

func TestCloseMaterialisesFreeItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.offers.Add(ctx, store.BuyNGetN{
		ID: "o1", BuyProductID: "p1", BuyProductN: 2, GetProductID: "p2", GetProductN: 1,
	}))

	rec, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, rec.ID, "p1", 5)
	require.NoError(t, err)

	closed, err := f.svc.Close(ctx, rec.ID, "GEL")
	require.NoError(t, err)
	require.False(t, closed.Open)
	// Free units land as a regular line; the price was computed before they
	// were added, so they cost nothing.
	require.Len(t, closed.Items, 2)
	var free receipt.ItemView
	for _, it := range closed.Items {
		if it.ProductID == "p2" {
			free = it
		}
	}
	require.Equal(t, 2, free.Quantity)
	require.InDelta(t, 5.0, closed.Paid, 1e-9)
}

func TestCloseConversionFailureLeavesReceiptOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, rec.ID, "p1", 1)
	require.NoError(t, err)

	_, err = f.svc.Close(ctx, rec.ID, "JPY")
	requireAppErr(t, err, "CONVERSION_FAILED")

	v, err := f.svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, v.Open)
	payments, err := f.paid.ListByReceipt(ctx, rec.ID)
	require.NoError(t, err)
	require.Empty(t, payments)
}

func TestQuotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, rec.ID, "p1", 1)
	require.NoError(t, err)
	_, err = f.svc.AddProduct(ctx, rec.ID, "p2", 2)
	require.NoError(t, err)

	quotes, err := f.svc.GetQuotes(ctx, rec.ID)
	require.NoError(t, err)
	require.InDelta(t, 5.0, quotes.Totals["GEL"], 1e-9)
	require.InDelta(t, 5.0*0.37, quotes.Totals["USD"], 1e-9)
	require.InDelta(t, 5.0*0.34, quotes.Totals["EUR"], 1e-9)
}

func TestListByShift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, "shift-1")
	require.NoError(t, err)

	views, err := f.svc.ListByShift(ctx, "shift-1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, a.ID, views[0].ID)
	require.Equal(t, b.ID, views[1].ID)

	_, err = f.svc.ListByShift(ctx, "missing")
	requireAppErr(t, err, "SHIFT_NOT_FOUND")
}

func TestGetUnknownReceipt(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Get(context.Background(), "missing")
	requireAppErr(t, err, "RECEIPT_NOT_FOUND")
}

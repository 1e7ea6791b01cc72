package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/store"
)

func TestBuilderEvaluatesReceiptDiscountsBeforeProductDiscounts(t *testing.T) {
	ctx := context.Background()

	receiptDiscounts := store.NewMemReceiptDiscounts()
	require.NoError(t, receiptDiscounts.Add(ctx, store.ReceiptDiscount{ID: "r1", MinimumTotal: 10, Discount: 0.1}))

	productDiscounts := store.NewMemProductDiscounts()
	require.NoError(t, productDiscounts.Add(ctx, store.ProductDiscount{ID: "p1", ProductID: "a", Discount: 0.5}))

	b := Builder{
		ReceiptDiscounts: receiptDiscounts,
		ProductDiscounts: productDiscounts,
		Combos:           store.NewMemCombos(),
		ComboItems:       store.NewMemComboItems(),
		BuyNGetNs:        store.NewMemBuyNGetNs(),
	}
	chain, err := b.Build(ctx)
	require.NoError(t, err)

	// The receipt discount sees the undiscounted 10.0 total and qualifies,
	// even though product discounts later halve the line.
	rec := Receipt{Lines: []Line{{ProductID: "a", Quantity: 1, Price: 10}}}
	res := Close(chain, rec)
	require.InDelta(t, 10*0.5*0.9, res.Price, 1e-9)
}

func TestBuilderOrdersCombosByListing(t *testing.T) {
	ctx := context.Background()

	combos := store.NewMemCombos()
	require.NoError(t, combos.Add(ctx, store.Combo{ID: "c1", Name: "first", Discount: 0.5}))
	require.NoError(t, combos.Add(ctx, store.Combo{ID: "c2", Name: "second", Discount: 0.1}))

	comboItems := store.NewMemComboItems()
	require.NoError(t, comboItems.Add(ctx, store.ComboItem{ID: "i1", ComboID: "c1", ProductID: "a", Quantity: 2}))
	require.NoError(t, comboItems.Add(ctx, store.ComboItem{ID: "i2", ComboID: "c2", ProductID: "a", Quantity: 2}))

	b := Builder{
		ReceiptDiscounts: store.NewMemReceiptDiscounts(),
		ProductDiscounts: store.NewMemProductDiscounts(),
		Combos:           combos,
		ComboItems:       comboItems,
		BuyNGetNs:        store.NewMemBuyNGetNs(),
	}
	chain, err := b.Build(ctx)
	require.NoError(t, err)

	rec := Receipt{Lines: []Line{{ProductID: "a", Quantity: 3, Price: 1.0}}}
	res := Close(chain, rec)
	require.InDelta(t, 2*0.5+1, res.Price, 1e-9)
}

func TestBuilderEmptyStoresYieldsBasePricing(t *testing.T) {
	b := Builder{
		ReceiptDiscounts: store.NewMemReceiptDiscounts(),
		ProductDiscounts: store.NewMemProductDiscounts(),
		Combos:           store.NewMemCombos(),
		ComboItems:       store.NewMemComboItems(),
		BuyNGetNs:        store.NewMemBuyNGetNs(),
	}
	chain, err := b.Build(context.Background())
	require.NoError(t, err)

	rec := Receipt{Lines: []Line{{ProductID: "a", Quantity: 2, Price: 4.25}}}
	require.InDelta(t, 8.5, Close(chain, rec).Price, 1e-9)
}

package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/store"
)

func TestBasePricerSumsLines(t *testing.T) {
	rec := Receipt{Lines: []Line{
		{ProductID: "a", Quantity: 2, Price: 1.5},
		{ProductID: "b", Quantity: 3, Price: 2.0},
	}}
	res := Close(BasePricer{}, rec)
	require.InDelta(t, 9.0, res.Price, 1e-9)
	require.Empty(t, res.FreeItems)
}

func TestBasePricerSkipsZeroQuantity(t *testing.T) {
	rec := Receipt{Lines: []Line{{ProductID: "a", Quantity: 0, Price: 10}}}
	require.InDelta(t, 0, Close(BasePricer{}, rec).Price, 1e-9)
}

func TestProductDiscountAffectsOnlyItsProduct(t *testing.T) {
	rec := Receipt{Lines: []Line{
		{ProductID: "a", Quantity: 1, Price: 10},
		{ProductID: "b", Quantity: 1, Price: 10},
	}}
	chain := ProductDiscountRule(BasePricer{}, store.ProductDiscount{ProductID: "a", Discount: 0.25})
	res := Close(chain, rec)
	require.InDelta(t, 7.5+10, res.Price, 1e-9)
}

func TestProductDiscountsStackMultiplicatively(t *testing.T) {
	rec := Receipt{Lines: []Line{{ProductID: "a", Quantity: 1, Price: 100}}}
	chain := Rule(BasePricer{})
	chain = ProductDiscountRule(chain, store.ProductDiscount{ProductID: "a", Discount: 0.2})
	chain = ProductDiscountRule(chain, store.ProductDiscount{ProductID: "a", Discount: 0.1})
	res := Close(chain, rec)
	require.InDelta(t, 100*0.9*0.8, res.Price, 1e-9)
}

func TestReceiptDiscountBestSingleWins(t *testing.T) {
	// Both thresholds qualify for a 23.0 receipt; only the larger discount
	// applies, they do not stack.
	rec := Receipt{Lines: []Line{
		{ProductID: "a", Quantity: 1, Price: 13},
		{ProductID: "b", Quantity: 1, Price: 10},
	}}
	chain := Rule(BasePricer{})
	chain = ReceiptDiscountRule(chain, store.ReceiptDiscount{MinimumTotal: 20, Discount: 0.2})
	chain = ReceiptDiscountRule(chain, store.ReceiptDiscount{MinimumTotal: 10, Discount: 0.1})
	res := Close(chain, rec)
	require.InDelta(t, 23.0*0.8, res.Price, 1e-9)
}

func TestReceiptDiscountBelowMinimumDoesNothing(t *testing.T) {
	rec := Receipt{Lines: []Line{{ProductID: "a", Quantity: 1, Price: 5}}}
	chain := ReceiptDiscountRule(BasePricer{}, store.ReceiptDiscount{MinimumTotal: 10, Discount: 0.5})
	require.InDelta(t, 5.0, Close(chain, rec).Price, 1e-9)
}

func TestComboDiscountsOneBundle(t *testing.T) {
	rec := Receipt{Lines: []Line{{ProductID: "1", Quantity: 3, Price: 1.0}}}
	combo := store.Combo{ID: "c", Name: "pair", Discount: 0.5}
	items := []store.ComboItem{{ComboID: "c", ProductID: "1", Quantity: 2}}
	res := Close(ComboRule(BasePricer{}, combo, items), rec)
	require.InDelta(t, 2*1.0*0.5+1*1.0, res.Price, 1e-9)
}

func TestComboAppliesWholeMultiples(t *testing.T) {
	rec := Receipt{Lines: []Line{{ProductID: "1", Quantity: 5, Price: 2.0}}}
	combo := store.Combo{ID: "c", Discount: 0.25}
	items := []store.ComboItem{{ComboID: "c", ProductID: "1", Quantity: 2}}
	res := Close(ComboRule(BasePricer{}, combo, items), rec)
	// floor(5/2)=2 bundles of two units discounted, one unit at full price.
	require.InDelta(t, 4*2.0*0.75+1*2.0, res.Price, 1e-9)
}

func TestComboRequiresEveryItem(t *testing.T) {
	rec := Receipt{Lines: []Line{
		{ProductID: "1", Quantity: 2, Price: 1.0},
	}}
	combo := store.Combo{ID: "c", Discount: 0.5}
	items := []store.ComboItem{
		{ComboID: "c", ProductID: "1", Quantity: 1},
		{ComboID: "c", ProductID: "2", Quantity: 1},
	}
	res := Close(ComboRule(BasePricer{}, combo, items), rec)
	require.InDelta(t, 2.0, res.Price, 1e-9)
}

func TestOverlappingCombosFirstInChainClaimsFirst(t *testing.T) {
	rec := Receipt{Lines: []Line{{ProductID: "1", Quantity: 3, Price: 1.0}}}
	first := store.Combo{ID: "c1", Discount: 0.5}
	second := store.Combo{ID: "c2", Discount: 0.1}
	firstItems := []store.ComboItem{{ComboID: "c1", ProductID: "1", Quantity: 2}}
	secondItems := []store.ComboItem{{ComboID: "c2", ProductID: "1", Quantity: 2}}

	// The outer rule evaluates first and takes two units; the inner one only
	// sees a single unclaimed unit and cannot apply.
	chain := ComboRule(BasePricer{}, second, secondItems)
	chain = ComboRule(chain, first, firstItems)
	res := Close(chain, rec)
	require.InDelta(t, 2*1.0*0.5+1*1.0, res.Price, 1e-9)
}

func TestComboSharesRemainderWithSecondCombo(t *testing.T) {
	rec := Receipt{Lines: []Line{{ProductID: "1", Quantity: 4, Price: 1.0}}}
	first := store.Combo{ID: "c1", Discount: 0.5}
	second := store.Combo{ID: "c2", Discount: 0.25}
	items1 := []store.ComboItem{{ComboID: "c1", ProductID: "1", Quantity: 3}}
	items2 := []store.ComboItem{{ComboID: "c2", ProductID: "1", Quantity: 1}}

	chain := ComboRule(BasePricer{}, second, items2)
	chain = ComboRule(chain, first, items1)
	res := Close(chain, rec)
	require.InDelta(t, 3*1.0*0.5+1*1.0*0.75, res.Price, 1e-9)
}

func TestBuyNGetNEarnsFreeItemsWithoutChangingPrice(t *testing.T) {
	rec := Receipt{Lines: []Line{{ProductID: "buy", Quantity: 5, Price: 3.0}}}
	offer := store.BuyNGetN{BuyProductID: "buy", BuyProductN: 2, GetProductID: "get", GetProductN: 1}
	res := Close(BuyNGetNRule(BasePricer{}, offer), rec)
	require.InDelta(t, 15.0, res.Price, 1e-9)
	require.Equal(t, map[string]int{"get": 2}, res.FreeItems)
}

func TestBuyNGetNBelowThreshold(t *testing.T) {
	rec := Receipt{Lines: []Line{{ProductID: "buy", Quantity: 1, Price: 3.0}}}
	offer := store.BuyNGetN{BuyProductID: "buy", BuyProductN: 2, GetProductID: "get", GetProductN: 1}
	res := Close(BuyNGetNRule(BasePricer{}, offer), rec)
	require.Empty(t, res.FreeItems)
}

func TestProductDiscountAppliesToComboClaimedPortion(t *testing.T) {
	// Product factors multiply the whole line, including combo-claimed parts.
	rec := Receipt{Lines: []Line{{ProductID: "1", Quantity: 2, Price: 10}}}
	combo := store.Combo{ID: "c", Discount: 0.5}
	items := []store.ComboItem{{ComboID: "c", ProductID: "1", Quantity: 2}}
	chain := ComboRule(BasePricer{}, combo, items)
	chain = ProductDiscountRule(chain, store.ProductDiscount{ProductID: "1", Discount: 0.1})
	res := Close(chain, rec)
	require.InDelta(t, 2*10*0.5*0.9, res.Price, 1e-9)
}

func TestCloseDoesNotLeakStateBetweenInvocations(t *testing.T) {
	rec := Receipt{Lines: []Line{{ProductID: "1", Quantity: 3, Price: 1.0}}}
	combo := store.Combo{ID: "c", Discount: 0.5}
	items := []store.ComboItem{{ComboID: "c", ProductID: "1", Quantity: 2}}
	offer := store.BuyNGetN{BuyProductID: "1", BuyProductN: 3, GetProductID: "2", GetProductN: 1}

	chain := Rule(BasePricer{})
	chain = BuyNGetNRule(chain, offer)
	chain = ComboRule(chain, combo, items)
	chain = ProductDiscountRule(chain, store.ProductDiscount{ProductID: "1", Discount: 0.1})

	first := Close(chain, rec)
	second := Close(chain, rec)
	require.InDelta(t, first.Price, second.Price, 1e-9)
	require.Equal(t, first.FreeItems, second.FreeItems)
}

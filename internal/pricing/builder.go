package pricing

import (
	"context"

	"github.com/noah-isme/backend-pos/internal/store"
)

// Builder assembles a pricing chain from the currently stored campaigns. A
// chain is rebuilt for every pricing request so campaign changes take effect
// immediately.
type Builder struct {
	ReceiptDiscounts store.ReceiptDiscountStore
	ProductDiscounts store.ProductDiscountStore
	Combos           store.ComboStore
	ComboItems       store.ComboItemStore
	BuyNGetNs        store.BuyNGetNStore
}

// Build reads every campaign store and wraps a base pricer so that the chain
// evaluates receipt discounts first, then product discounts, then combos,
// then buy-n-get-n offers. Within a kind, store-listing order decides
// priority: the first listed rule runs first.
func (b Builder) Build(ctx context.Context) (Rule, error) {
	chain := Rule(BasePricer{})

	offers, err := b.BuyNGetNs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(offers) - 1; i >= 0; i-- {
		chain = BuyNGetNRule(chain, offers[i])
	}

	combos, err := b.Combos.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(combos) - 1; i >= 0; i-- {
		items, err := b.ComboItems.ListByCombo(ctx, combos[i].ID)
		if err != nil {
			return nil, err
		}
		chain = ComboRule(chain, combos[i], items)
	}

	productDiscounts, err := b.ProductDiscounts.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(productDiscounts) - 1; i >= 0; i-- {
		chain = ProductDiscountRule(chain, productDiscounts[i])
	}

	receiptDiscounts, err := b.ReceiptDiscounts.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := len(receiptDiscounts) - 1; i >= 0; i-- {
		chain = ReceiptDiscountRule(chain, receiptDiscounts[i])
	}

	return chain, nil
}

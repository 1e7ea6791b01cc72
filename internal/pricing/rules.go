package pricing

import "github.com/noah-isme/backend-pos/internal/store"

// Rule is one link of the pricing chain. Implementations mutate the context
// and delegate to the next link; only the base pricer produces a price.
type Rule interface {
	Close(r Receipt, ctx *Context) Result
}

// Close prices a receipt through the chain with a fresh context.
func Close(chain Rule, r Receipt) Result {
	return chain.Close(r, NewContext())
}

// cost computes the receipt total under the context's current effects:
// combo-claimed portions at their claim multiplier, the unclaimed remainder
// at full price, per-product factors applied per line, the receipt factor
// applied to the sum. Shared by the base pricer and the receipt discount
// rule's trial evaluation.
func cost(r Receipt, ctx *Context) float64 {
	total := 0.0
	for _, line := range r.Lines {
		remaining := line.Quantity
		lineCost := 0.0
		for _, cl := range ctx.Claims(line.ProductID) {
			lineCost += cl.Multiplier * float64(cl.Quantity) * line.Price
			remaining -= cl.Quantity
		}
		if remaining > 0 {
			lineCost += float64(remaining) * line.Price
		}
		total += lineCost * ctx.DiscountFor(line.ProductID)
	}
	return total * ctx.ReceiptDiscount()
}

// BasePricer terminates the chain. It prices the receipt under whatever
// effects upstream rules accumulated and never delegates further.
type BasePricer struct{}

// Close computes the final price and hands back the accumulated free items.
func (BasePricer) Close(r Receipt, ctx *Context) Result {
	return Result{Price: cost(r, ctx), FreeItems: ctx.FreeItems()}
}

type productDiscountRule struct {
	next     Rule
	discount store.ProductDiscount
}

// ProductDiscountRule wraps next with a per-product discount. Discounts on
// the same product compound multiplicatively.
func ProductDiscountRule(next Rule, d store.ProductDiscount) Rule {
	return productDiscountRule{next: next, discount: d}
}

func (r productDiscountRule) Close(rec Receipt, ctx *Context) Result {
	ctx.MultiplyDiscount(r.discount.ProductID, 1-r.discount.Discount)
	return r.next.Close(rec, ctx)
}

type receiptDiscountRule struct {
	next     Rule
	discount store.ReceiptDiscount
}

// ReceiptDiscountRule wraps next with a receipt-total discount that applies
// once the running total reaches the discount's minimum.
func ReceiptDiscountRule(next Rule, d store.ReceiptDiscount) Rule {
	return receiptDiscountRule{next: next, discount: d}
}

func (r receiptDiscountRule) Close(rec Receipt, ctx *Context) Result {
	// Trial-price with the live context rather than delegating, otherwise the
	// qualification check would recurse through the rest of the chain.
	if cost(rec, ctx) >= r.discount.MinimumTotal {
		ctx.LowerReceiptDiscount(1 - r.discount.Discount)
	}
	return r.next.Close(rec, ctx)
}

type comboRule struct {
	next  Rule
	combo store.Combo
	items []store.ComboItem
}

// ComboRule wraps next with a bundle discount. Earlier rules in the chain
// claim contested inventory first; this rule only discounts what remains.
func ComboRule(next Rule, c store.Combo, items []store.ComboItem) Rule {
	return comboRule{next: next, combo: c, items: items}
}

func (r comboRule) Close(rec Receipt, ctx *Context) Result {
	multiple := r.satisfiableMultiple(rec, ctx)
	if multiple > 0 {
		for _, it := range r.items {
			ctx.AppendClaim(it.ProductID, Claim{
				Multiplier: 1 - r.combo.Discount,
				Quantity:   it.Quantity * multiple,
			})
		}
	}
	return r.next.Close(rec, ctx)
}

// satisfiableMultiple reports how many whole instances of the combo fit in
// the receipt's still-unclaimed quantities: the minimum over combo items of
// floor(unclaimed/required).
func (r comboRule) satisfiableMultiple(rec Receipt, ctx *Context) int {
	if len(r.items) == 0 {
		return 0
	}
	multiple := -1
	for _, it := range r.items {
		if it.Quantity <= 0 {
			return 0
		}
		unclaimed := quantityOf(rec, it.ProductID) - ctx.ClaimedQuantity(it.ProductID)
		m := 0
		if unclaimed > 0 {
			m = unclaimed / it.Quantity
		}
		if multiple < 0 || m < multiple {
			multiple = m
		}
		if multiple == 0 {
			return 0
		}
	}
	return multiple
}

type buyNGetNRule struct {
	next  Rule
	offer store.BuyNGetN
}

// BuyNGetNRule wraps next with a free-item offer. It never changes the price;
// earned units surface in the result's free items for the caller to
// materialise.
func BuyNGetNRule(next Rule, b store.BuyNGetN) Rule {
	return buyNGetNRule{next: next, offer: b}
}

func (r buyNGetNRule) Close(rec Receipt, ctx *Context) Result {
	// Triggers off raw purchased quantities, unaffected by discounts or combos.
	if r.offer.BuyProductN > 0 {
		amount := quantityOf(rec, r.offer.BuyProductID) / r.offer.BuyProductN
		if amount > 0 {
			ctx.AddFreeItems(r.offer.GetProductID, r.offer.GetProductN*amount)
		}
	}
	return r.next.Close(rec, ctx)
}

func quantityOf(rec Receipt, productID string) int {
	total := 0
	for _, line := range rec.Lines {
		if line.ProductID == productID {
			total += line.Quantity
		}
	}
	return total
}

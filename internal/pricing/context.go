// Package pricing implements the receipt pricing engine. A receipt's final
// price is computed by a chain of rules, each derived from a stored campaign,
// terminated by a base pricer. Rules communicate exclusively through a
// Context accumulator threaded along the chain.
package pricing

// receiptKey addresses the discount factor applied to the receipt total
// rather than to a single product line.
const receiptKey = "receipt"

// Line is a single receipt line as seen by the pricing engine. Price is the
// snapshotted unit price.
type Line struct {
	ProductID string
	Quantity  int
	Price     float64
}

// Receipt is the pricing engine's input. It carries no persistence concerns.
type Receipt struct {
	Lines []Line
}

// Claim marks a portion of a product line as already consumed by a combo at
// the given price multiplier.
type Claim struct {
	Multiplier float64
	Quantity   int
}

// Result is the outcome of closing a receipt through a rule chain.
type Result struct {
	Price     float64
	FreeItems map[string]int
}

// Context accumulates rule effects during a single pricing pass. A fresh
// Context must be used for every top-level Close; reusing one leaks factors
// and free items across receipts.
type Context struct {
	discounts map[string]float64
	freeItems map[string]int
	claims    map[string][]Claim
}

// NewContext returns an empty accumulator: every discount factor is 1, no
// free items, no combo claims.
func NewContext() *Context {
	return &Context{
		discounts: make(map[string]float64),
		freeItems: make(map[string]int),
		claims:    make(map[string][]Claim),
	}
}

// DiscountFor returns the accumulated multiplicative factor for a product,
// defaulting to 1 when no rule has touched it.
func (c *Context) DiscountFor(productID string) float64 {
	if f, ok := c.discounts[productID]; ok {
		return f
	}
	return 1
}

// MultiplyDiscount compounds a factor onto a product's accumulated discount.
func (c *Context) MultiplyDiscount(productID string, factor float64) {
	c.discounts[productID] = c.DiscountFor(productID) * factor
}

// ReceiptDiscount returns the factor applied to the receipt total.
func (c *Context) ReceiptDiscount() float64 {
	if f, ok := c.discounts[receiptKey]; ok {
		return f
	}
	return 1
}

// LowerReceiptDiscount offers a factor for the receipt total. Receipt
// discounts do not stack: the smallest offered factor wins.
func (c *Context) LowerReceiptDiscount(factor float64) {
	if factor < c.ReceiptDiscount() {
		c.discounts[receiptKey] = factor
	}
}

// AddFreeItems records units of a product earned for free during this pass.
func (c *Context) AddFreeItems(productID string, n int) {
	c.freeItems[productID] += n
}

// FreeItems returns a copy of the free items earned so far.
func (c *Context) FreeItems() map[string]int {
	out := make(map[string]int, len(c.freeItems))
	for id, n := range c.freeItems {
		out[id] = n
	}
	return out
}

// AppendClaim reserves part of a product line for a combo.
func (c *Context) AppendClaim(productID string, cl Claim) {
	c.claims[productID] = append(c.claims[productID], cl)
}

// Claims returns the combo claims recorded against a product, in the order
// they were appended.
func (c *Context) Claims(productID string) []Claim {
	return c.claims[productID]
}

// ClaimedQuantity returns how many units of a product are already reserved
// by combo claims.
func (c *Context) ClaimedQuantity(productID string) int {
	total := 0
	for _, cl := range c.claims[productID] {
		total += cl.Quantity
	}
	return total
}

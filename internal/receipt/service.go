// Package receipt orchestrates the receipt lifecycle: opening, line item
// mutation, pricing and the close/payment sequence. All pricing goes through
// a rule chain rebuilt from the campaign stores on every request.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/currency"
	"github.com/noah-isme/backend-pos/internal/lock"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/store"
)

// DefaultBaseCurrency is the currency all prices are stored and computed in.
const DefaultBaseCurrency = "GEL"

// ItemView is a receipt line as returned to callers.
type ItemView struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Total     float64 `json:"total"`
}

// View is a receipt with its line items.
type View struct {
	ID      string     `json:"id"`
	ShiftID string     `json:"shift_id"`
	Open    bool       `json:"open"`
	Paid    float64    `json:"paid"`
	Items   []ItemView `json:"items"`
}

// Quotes is a receipt total expressed in the base currency plus every
// configured quote currency.
type Quotes struct {
	ReceiptID string             `json:"receipt_id"`
	Totals    map[string]float64 `json:"totals"`
}

// DiscountView reports how much the campaign rules shaved off a receipt.
type DiscountView struct {
	ReceiptID string  `json:"receipt_id"`
	Discount  float64 `json:"discount"`
	FinalCost float64 `json:"final_cost"`
}

// Service orchestrates receipts against the stores, the pricing chain, the
// per-receipt lock and the currency converter.
type Service struct {
	Receipts     store.ReceiptStore
	Items        store.ReceiptItemStore
	Shifts       store.ShiftStore
	Products     store.ProductStore
	PaidReceipts store.PaidReceiptStore
	Chain        pricing.Builder
	Locks        lock.Locker
	LockTTL      time.Duration
	Convert      currency.Converter
	BaseCurrency string
	Quote        []string
}

// Create opens a new receipt on an existing shift.
func (s *Service) Create(ctx context.Context, shiftID string) (View, error) {
	if _, err := s.Shifts.GetByID(ctx, shiftID); err != nil {
		return View{}, s.shiftErr(shiftID, err)
	}
	rec := store.Receipt{ID: uuid.NewString(), Open: true, ShiftID: shiftID}
	if err := s.Receipts.Add(ctx, rec); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return View{}, &common.AppError{
				Code: "RECEIPT_ALREADY_EXISTS", Message: fmt.Sprintf("receipt %q already exists", rec.ID),
				HTTPStatus: http.StatusConflict, Err: err,
			}
		}
		return View{}, err
	}
	return View{ID: rec.ID, ShiftID: rec.ShiftID, Open: true, Items: []ItemView{}}, nil
}

// Get returns a receipt with its items.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	return s.view(ctx, id)
}

// List returns every receipt.
func (s *Service) List(ctx context.Context) ([]View, error) {
	recs, err := s.Receipts.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, recs)
}

// ListByShift returns every receipt opened on a shift.
func (s *Service) ListByShift(ctx context.Context, shiftID string) ([]View, error) {
	if _, err := s.Shifts.GetByID(ctx, shiftID); err != nil {
		return nil, s.shiftErr(shiftID, err)
	}
	recs, err := s.Receipts.ListByShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, recs)
}

// AddProduct changes the quantity of a product on an open receipt by a signed
// delta. The unit price is snapshotted when the line first appears and never
// re-read afterwards; a line whose quantity drops to zero is removed. Calls
// against a closed receipt leave it untouched and return it as is.
func (s *Service) AddProduct(ctx context.Context, receiptID, productID string, quantity int) (View, error) {
	product, err := s.Products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return View{}, notFound("PRODUCT_NOT_FOUND", "product", productID, err)
		}
		return View{}, err
	}

	var out View
	err = s.withReceiptLock(ctx, receiptID, func(ctx context.Context) error {
		out, err = s.applyItemDelta(ctx, receiptID, product, quantity)
		return err
	})
	return out, err
}

func (s *Service) applyItemDelta(ctx context.Context, receiptID string, product store.Product, quantity int) (View, error) {
	rec, err := s.loadReceipt(ctx, receiptID)
	if err != nil {
		return View{}, err
	}
	if !rec.Open {
		return s.view(ctx, receiptID)
	}

	items, err := s.Items.ListByReceipt(ctx, receiptID)
	if err != nil {
		return View{}, err
	}
	for _, it := range items {
		if it.ProductID != product.ID {
			continue
		}
		next := it.Quantity + quantity
		if next < 0 {
			next = 0
		}
		if next == 0 {
			if err := s.Items.Remove(ctx, it.ID); err != nil {
				return View{}, err
			}
			s.countMutation("remove")
			return s.view(ctx, receiptID)
		}
		it.Quantity = next
		if err := s.Items.Update(ctx, it); err != nil {
			return View{}, err
		}
		s.countMutation("update")
		return s.view(ctx, receiptID)
	}

	if quantity > 0 {
		item := store.ReceiptItem{
			ID:        uuid.NewString(),
			ReceiptID: receiptID,
			ProductID: product.ID,
			Quantity:  quantity,
			Price:     product.Price,
		}
		if err := s.Items.Add(ctx, item); err != nil {
			return View{}, err
		}
		s.countMutation("add")
	}
	return s.view(ctx, receiptID)
}

// RemoveProduct deletes a product's line from an open receipt. Removing from
// a closed receipt is a no-op; removing a product that is not on the receipt
// fails.
func (s *Service) RemoveProduct(ctx context.Context, receiptID, productID string) error {
	return s.withReceiptLock(ctx, receiptID, func(ctx context.Context) error {
		rec, err := s.loadReceipt(ctx, receiptID)
		if err != nil {
			return err
		}
		if !rec.Open {
			return nil
		}
		items, err := s.Items.ListByReceipt(ctx, receiptID)
		if err != nil {
			return err
		}
		for _, it := range items {
			if it.ProductID == productID {
				if err := s.Items.Remove(ctx, it.ID); err != nil {
					return err
				}
				s.countMutation("remove")
				return nil
			}
		}
		return notFound("RECEIPT_ITEM_NOT_FOUND", "receipt item", productID, store.ErrNotFound)
	})
}

// Cost prices the receipt through the current campaign chain.
func (s *Service) Cost(ctx context.Context, receiptID string) (float64, error) {
	v, err := s.view(ctx, receiptID)
	if err != nil {
		return 0, err
	}
	res, err := s.price(ctx, v)
	if err != nil {
		return 0, err
	}
	return res.Price, nil
}

// DiscountAmount reports the gap between the undiscounted total and the
// priced total.
func (s *Service) DiscountAmount(ctx context.Context, receiptID string) (DiscountView, error) {
	v, err := s.view(ctx, receiptID)
	if err != nil {
		return DiscountView{}, err
	}
	res, err := s.price(ctx, v)
	if err != nil {
		return DiscountView{}, err
	}
	raw := 0.0
	for _, it := range v.Items {
		raw += float64(it.Quantity) * it.Price
	}
	return DiscountView{ReceiptID: receiptID, Discount: raw - res.Price, FinalCost: res.Price}, nil
}

// GetQuotes prices the receipt and converts the total into every configured
// quote currency. Conversion failures surface without touching the receipt.
func (s *Service) GetQuotes(ctx context.Context, receiptID string) (Quotes, error) {
	cost, err := s.Cost(ctx, receiptID)
	if err != nil {
		return Quotes{}, err
	}
	base := s.baseCurrency()
	totals := map[string]float64{base: cost}
	for _, cur := range s.quoteCurrencies() {
		converted, err := s.Convert.Convert(ctx, cost, base, cur)
		if err != nil {
			return Quotes{}, conversionErr(cur, err)
		}
		totals[cur] = converted
	}
	return Quotes{ReceiptID: receiptID, Totals: totals}, nil
}

// Close prices the receipt, materialises buy-n-get-n free items through the
// regular line item path, flips the receipt closed with the final price and
// appends a payment record in the requested currency. Closing an already
// closed receipt is a no-op returning the receipt. The whole sequence runs
// under the per-receipt lock.
func (s *Service) Close(ctx context.Context, receiptID, currencyName string) (View, error) {
	if currencyName == "" {
		currencyName = s.baseCurrency()
	}
	var out View
	err := s.withReceiptLock(ctx, receiptID, func(ctx context.Context) error {
		var err error
		out, err = s.close(ctx, receiptID, currencyName)
		return err
	})
	if err != nil {
		s.countClose("error")
		return View{}, err
	}
	return out, nil
}

func (s *Service) close(ctx context.Context, receiptID, currencyName string) (View, error) {
	v, err := s.view(ctx, receiptID)
	if err != nil {
		return View{}, err
	}
	if !v.Open {
		s.countClose("noop")
		return v, nil
	}

	res, err := s.price(ctx, v)
	if err != nil {
		return View{}, err
	}

	// Convert before mutating anything so a conversion failure leaves the
	// receipt open and unchanged.
	paid, err := s.Convert.Convert(ctx, res.Price, s.baseCurrency(), currencyName)
	if err != nil {
		return View{}, conversionErr(currencyName, err)
	}

	for _, productID := range sortedKeys(res.FreeItems) {
		product, err := s.Products.GetByID(ctx, productID)
		if err != nil {
			return View{}, err
		}
		if _, err := s.applyItemDelta(ctx, receiptID, product, res.FreeItems[productID]); err != nil {
			return View{}, err
		}
		if obs.FreeItemsGrantedTotal != nil {
			obs.FreeItemsGrantedTotal.Add(float64(res.FreeItems[productID]))
		}
	}

	if err := s.Receipts.Close(ctx, receiptID, res.Price); err != nil {
		return View{}, err
	}
	paidRec := store.PaidReceipt{
		ID:           uuid.NewString(),
		ReceiptID:    receiptID,
		CurrencyName: currencyName,
		Paid:         paid,
	}
	if err := s.PaidReceipts.Add(ctx, paidRec); err != nil {
		return View{}, err
	}
	s.countClose("ok")
	return s.view(ctx, receiptID)
}

func (s *Service) price(ctx context.Context, v View) (pricing.Result, error) {
	chain, err := s.Chain.Build(ctx)
	if err != nil {
		return pricing.Result{}, err
	}
	lines := make([]pricing.Line, 0, len(v.Items))
	for _, it := range v.Items {
		lines = append(lines, pricing.Line{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	start := time.Now()
	res := pricing.Close(chain, pricing.Receipt{Lines: lines})
	if obs.PricingDuration != nil {
		obs.PricingDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	return res, nil
}

func (s *Service) view(ctx context.Context, id string) (View, error) {
	rec, err := s.loadReceipt(ctx, id)
	if err != nil {
		return View{}, err
	}
	items, err := s.Items.ListByReceipt(ctx, id)
	if err != nil {
		return View{}, err
	}
	v := View{ID: rec.ID, ShiftID: rec.ShiftID, Open: rec.Open, Paid: rec.Paid, Items: make([]ItemView, 0, len(items))}
	for _, it := range items {
		v.Items = append(v.Items, ItemView{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Total:     float64(it.Quantity) * it.Price,
		})
	}
	return v, nil
}

func (s *Service) views(ctx context.Context, recs []store.Receipt) ([]View, error) {
	out := make([]View, 0, len(recs))
	for _, rec := range recs {
		v, err := s.view(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) loadReceipt(ctx context.Context, id string) (store.Receipt, error) {
	rec, err := s.Receipts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Receipt{}, notFound("RECEIPT_NOT_FOUND", "receipt", id, err)
		}
		return store.Receipt{}, err
	}
	return rec, nil
}

func (s *Service) withReceiptLock(ctx context.Context, id string, fn func(context.Context) error) error {
	if s.Locks.R == nil {
		return fn(ctx)
	}
	return s.Locks.WithLock(ctx, "receipt:"+id, s.LockTTL, fn)
}

func (s *Service) baseCurrency() string {
	if s.BaseCurrency == "" {
		return DefaultBaseCurrency
	}
	return s.BaseCurrency
}

func (s *Service) quoteCurrencies() []string {
	if len(s.Quote) == 0 {
		return []string{"USD", "EUR"}
	}
	return s.Quote
}

func (s *Service) shiftErr(shiftID string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound("SHIFT_NOT_FOUND", "shift", shiftID, err)
	}
	return err
}

func (s *Service) countMutation(kind string) {
	if obs.ReceiptItemMutationsTotal != nil {
		obs.ReceiptItemMutationsTotal.WithLabelValues(kind).Inc()
	}
}

func (s *Service) countClose(result string) {
	if obs.ReceiptsClosedTotal != nil {
		obs.ReceiptsClosedTotal.WithLabelValues(result).Inc()
	}
}

func notFound(code, entity, id string, err error) *common.AppError {
	return &common.AppError{
		Code:       code,
		Message:    fmt.Sprintf("%s %q not found", entity, id),
		HTTPStatus: http.StatusNotFound,
		Err:        err,
	}
}

func conversionErr(cur string, err error) *common.AppError {
	return &common.AppError{
		Code:       "CONVERSION_FAILED",
		Message:    fmt.Sprintf("could not convert total to %s", cur),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package store

import (
	"context"
	"sync"
)

// memTable is a mutex-guarded table preserving insertion order, shared by the
// in-memory store implementations used in tests and local development.
type memTable[T any] struct {
	mu    sync.RWMutex
	order []string
	rows  map[string]T
	idOf  func(T) string
}

func newMemTable[T any](idOf func(T) string) *memTable[T] {
	return &memTable[T]{rows: make(map[string]T), idOf: idOf}
}

func (t *memTable[T]) add(v T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.idOf(v)
	if _, ok := t.rows[id]; ok {
		return ErrAlreadyExists
	}
	t.rows[id] = v
	t.order = append(t.order, id)
	return nil
}

func (t *memTable[T]) get(id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	return v, nil
}

func (t *memTable[T]) list(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		v := t.rows[id]
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func (t *memTable[T]) update(v T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.idOf(v)
	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	t.rows[id] = v
	return nil
}

func (t *memTable[T]) remove(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return ErrNotFound
	}
	delete(t.rows, id)
	for i, existing := range t.order {
		if existing == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// MemProducts is an in-memory ProductStore.
type MemProducts struct{ t *memTable[Product] }

// NewMemProducts constructs an empty in-memory product store.
func NewMemProducts() *MemProducts {
	return &MemProducts{t: newMemTable(func(p Product) string { return p.ID })}
}

func (s *MemProducts) Add(_ context.Context, p Product) error { return s.t.add(p) }
func (s *MemProducts) GetByID(_ context.Context, id string) (Product, error) {
	return s.t.get(id)
}
func (s *MemProducts) ListAll(_ context.Context) ([]Product, error) {
	return s.t.list(nil), nil
}
func (s *MemProducts) Update(_ context.Context, p Product) error { return s.t.update(p) }

// MemShifts is an in-memory ShiftStore.
type MemShifts struct{ t *memTable[Shift] }

// NewMemShifts constructs an empty in-memory shift store.
func NewMemShifts() *MemShifts {
	return &MemShifts{t: newMemTable(func(s Shift) string { return s.ID })}
}

func (s *MemShifts) Add(_ context.Context, sh Shift) error { return s.t.add(sh) }
func (s *MemShifts) GetByID(_ context.Context, id string) (Shift, error) {
	return s.t.get(id)
}
func (s *MemShifts) ListAll(_ context.Context) ([]Shift, error) { return s.t.list(nil), nil }
func (s *MemShifts) Update(_ context.Context, sh Shift) error   { return s.t.update(sh) }

// MemReceipts is an in-memory ReceiptStore.
type MemReceipts struct{ t *memTable[Receipt] }

// NewMemReceipts constructs an empty in-memory receipt store.
func NewMemReceipts() *MemReceipts {
	return &MemReceipts{t: newMemTable(func(r Receipt) string { return r.ID })}
}

func (s *MemReceipts) Add(_ context.Context, r Receipt) error { return s.t.add(r) }
func (s *MemReceipts) GetByID(_ context.Context, id string) (Receipt, error) {
	return s.t.get(id)
}
func (s *MemReceipts) ListAll(_ context.Context) ([]Receipt, error) {
	return s.t.list(nil), nil
}
func (s *MemReceipts) ListByShift(_ context.Context, shiftID string) ([]Receipt, error) {
	return s.t.list(func(r Receipt) bool { return r.ShiftID == shiftID }), nil
}
func (s *MemReceipts) Close(_ context.Context, id string, paid float64) error {
	r, err := s.t.get(id)
	if err != nil {
		return err
	}
	r.Open = false
	r.Paid = paid
	return s.t.update(r)
}

// MemReceiptItems is an in-memory ReceiptItemStore.
type MemReceiptItems struct{ t *memTable[ReceiptItem] }

// NewMemReceiptItems constructs an empty in-memory receipt item store.
func NewMemReceiptItems() *MemReceiptItems {
	return &MemReceiptItems{t: newMemTable(func(it ReceiptItem) string { return it.ID })}
}

func (s *MemReceiptItems) Add(_ context.Context, it ReceiptItem) error { return s.t.add(it) }
func (s *MemReceiptItems) GetByID(_ context.Context, id string) (ReceiptItem, error) {
	return s.t.get(id)
}
func (s *MemReceiptItems) ListByReceipt(_ context.Context, receiptID string) ([]ReceiptItem, error) {
	return s.t.list(func(it ReceiptItem) bool { return it.ReceiptID == receiptID }), nil
}
func (s *MemReceiptItems) Update(_ context.Context, it ReceiptItem) error {
	existing, err := s.t.get(it.ID)
	if err != nil {
		return err
	}
	existing.Quantity = it.Quantity
	return s.t.update(existing)
}
func (s *MemReceiptItems) Remove(_ context.Context, id string) error { return s.t.remove(id) }

// MemProductDiscounts is an in-memory ProductDiscountStore.
type MemProductDiscounts struct{ t *memTable[ProductDiscount] }

// NewMemProductDiscounts constructs an empty in-memory product discount store.
func NewMemProductDiscounts() *MemProductDiscounts {
	return &MemProductDiscounts{t: newMemTable(func(d ProductDiscount) string { return d.ID })}
}

func (s *MemProductDiscounts) Add(_ context.Context, d ProductDiscount) error { return s.t.add(d) }
func (s *MemProductDiscounts) GetByID(_ context.Context, id string) (ProductDiscount, error) {
	return s.t.get(id)
}
func (s *MemProductDiscounts) ListAll(_ context.Context) ([]ProductDiscount, error) {
	return s.t.list(nil), nil
}
func (s *MemProductDiscounts) Remove(_ context.Context, id string) error { return s.t.remove(id) }

// MemReceiptDiscounts is an in-memory ReceiptDiscountStore.
type MemReceiptDiscounts struct{ t *memTable[ReceiptDiscount] }

// NewMemReceiptDiscounts constructs an empty in-memory receipt discount store.
func NewMemReceiptDiscounts() *MemReceiptDiscounts {
	return &MemReceiptDiscounts{t: newMemTable(func(d ReceiptDiscount) string { return d.ID })}
}

func (s *MemReceiptDiscounts) Add(_ context.Context, d ReceiptDiscount) error { return s.t.add(d) }
func (s *MemReceiptDiscounts) GetByID(_ context.Context, id string) (ReceiptDiscount, error) {
	return s.t.get(id)
}
func (s *MemReceiptDiscounts) ListAll(_ context.Context) ([]ReceiptDiscount, error) {
	return s.t.list(nil), nil
}
func (s *MemReceiptDiscounts) Remove(_ context.Context, id string) error { return s.t.remove(id) }

// MemCombos is an in-memory ComboStore.
type MemCombos struct{ t *memTable[Combo] }

// NewMemCombos constructs an empty in-memory combo store.
func NewMemCombos() *MemCombos {
	return &MemCombos{t: newMemTable(func(c Combo) string { return c.ID })}
}

func (s *MemCombos) Add(_ context.Context, c Combo) error { return s.t.add(c) }
func (s *MemCombos) GetByID(_ context.Context, id string) (Combo, error) {
	return s.t.get(id)
}
func (s *MemCombos) ListAll(_ context.Context) ([]Combo, error) { return s.t.list(nil), nil }
func (s *MemCombos) Remove(_ context.Context, id string) error  { return s.t.remove(id) }

// MemComboItems is an in-memory ComboItemStore.
type MemComboItems struct{ t *memTable[ComboItem] }

// NewMemComboItems constructs an empty in-memory combo item store.
func NewMemComboItems() *MemComboItems {
	return &MemComboItems{t: newMemTable(func(it ComboItem) string { return it.ID })}
}

func (s *MemComboItems) Add(_ context.Context, it ComboItem) error { return s.t.add(it) }
func (s *MemComboItems) ListByCombo(_ context.Context, comboID string) ([]ComboItem, error) {
	return s.t.list(func(it ComboItem) bool { return it.ComboID == comboID }), nil
}
func (s *MemComboItems) Remove(_ context.Context, id string) error { return s.t.remove(id) }

// MemBuyNGetNs is an in-memory BuyNGetNStore.
type MemBuyNGetNs struct{ t *memTable[BuyNGetN] }

// NewMemBuyNGetNs constructs an empty in-memory buy-n-get-n store.
func NewMemBuyNGetNs() *MemBuyNGetNs {
	return &MemBuyNGetNs{t: newMemTable(func(b BuyNGetN) string { return b.ID })}
}

func (s *MemBuyNGetNs) Add(_ context.Context, b BuyNGetN) error { return s.t.add(b) }
func (s *MemBuyNGetNs) GetByID(_ context.Context, id string) (BuyNGetN, error) {
	return s.t.get(id)
}
func (s *MemBuyNGetNs) ListAll(_ context.Context) ([]BuyNGetN, error) {
	return s.t.list(nil), nil
}
func (s *MemBuyNGetNs) Remove(_ context.Context, id string) error { return s.t.remove(id) }

// MemPaidReceipts is an in-memory PaidReceiptStore.
type MemPaidReceipts struct{ t *memTable[PaidReceipt] }

// NewMemPaidReceipts constructs an empty in-memory paid receipt store.
func NewMemPaidReceipts() *MemPaidReceipts {
	return &MemPaidReceipts{t: newMemTable(func(p PaidReceipt) string { return p.ID })}
}

func (s *MemPaidReceipts) Add(_ context.Context, p PaidReceipt) error { return s.t.add(p) }
func (s *MemPaidReceipts) GetByID(_ context.Context, id string) (PaidReceipt, error) {
	return s.t.get(id)
}
func (s *MemPaidReceipts) ListAll(_ context.Context) ([]PaidReceipt, error) {
	return s.t.list(nil), nil
}
func (s *MemPaidReceipts) ListByReceipt(_ context.Context, receiptID string) ([]PaidReceipt, error) {
	return s.t.list(func(p PaidReceipt) bool { return p.ReceiptID == receiptID }), nil
}

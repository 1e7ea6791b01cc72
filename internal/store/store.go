package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a record with the requested id does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrAlreadyExists is returned when inserting a record whose id or unique key is taken.
	ErrAlreadyExists = errors.New("store: record already exists")
)

// Product is a catalog entry. Price is the current unit price; receipt items
// snapshot it at the time they are added.
type Product struct {
	ID    string
	Name  string
	Price float64
}

// Shift groups receipts opened while a till was staffed.
type Shift struct {
	ID        string
	Status    string
	StartTime string
	EndTime   string
}

// Receipt is the persisted receipt head. Items live in their own table.
type Receipt struct {
	ID      string
	Open    bool
	Paid    float64
	ShiftID string
}

// ReceiptItem is a line on a receipt. Price is the unit price snapshotted when
// the product was first added and is never re-read from the catalog.
type ReceiptItem struct {
	ID        string
	ReceiptID string
	ProductID string
	Quantity  int
	Price     float64
}

// ProductDiscount reduces a single product's line cost by the given fraction.
type ProductDiscount struct {
	ID        string
	ProductID string
	Discount  float64
}

// ReceiptDiscount reduces the receipt total by the given fraction once the
// running total reaches MinimumTotal.
type ReceiptDiscount struct {
	ID           string
	MinimumTotal float64
	Discount     float64
}

// Combo grants a discount on one bundle of products per satisfied multiple.
type Combo struct {
	ID       string
	Name     string
	Discount float64
}

// ComboItem is one product requirement inside a combo.
type ComboItem struct {
	ID        string
	ComboID   string
	ProductID string
	Quantity  int
}

// BuyNGetN grants GetProductN free units of GetProductID for every
// BuyProductN purchased units of BuyProductID.
type BuyNGetN struct {
	ID           string
	BuyProductID string
	BuyProductN  int
	GetProductID string
	GetProductN  int
}

// PaidReceipt is the append-only payment record written when a receipt closes.
type PaidReceipt struct {
	ID           string
	ReceiptID    string
	CurrencyName string
	Paid         float64
}

// ProductStore persists catalog products.
type ProductStore interface {
	Add(ctx context.Context, p Product) error
	GetByID(ctx context.Context, id string) (Product, error)
	ListAll(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, p Product) error
}

// ShiftStore persists shifts.
type ShiftStore interface {
	Add(ctx context.Context, s Shift) error
	GetByID(ctx context.Context, id string) (Shift, error)
	ListAll(ctx context.Context) ([]Shift, error)
	Update(ctx context.Context, s Shift) error
}

// ReceiptStore persists receipt heads.
type ReceiptStore interface {
	Add(ctx context.Context, r Receipt) error
	GetByID(ctx context.Context, id string) (Receipt, error)
	ListAll(ctx context.Context) ([]Receipt, error)
	ListByShift(ctx context.Context, shiftID string) ([]Receipt, error)
	Close(ctx context.Context, id string, paid float64) error
}

// ReceiptItemStore persists receipt line items.
type ReceiptItemStore interface {
	Add(ctx context.Context, it ReceiptItem) error
	GetByID(ctx context.Context, id string) (ReceiptItem, error)
	ListByReceipt(ctx context.Context, receiptID string) ([]ReceiptItem, error)
	Update(ctx context.Context, it ReceiptItem) error
	Remove(ctx context.Context, id string) error
}

// ProductDiscountStore persists per-product discount campaigns.
type ProductDiscountStore interface {
	Add(ctx context.Context, d ProductDiscount) error
	GetByID(ctx context.Context, id string) (ProductDiscount, error)
	ListAll(ctx context.Context) ([]ProductDiscount, error)
	Remove(ctx context.Context, id string) error
}

// ReceiptDiscountStore persists receipt-total discount campaigns.
type ReceiptDiscountStore interface {
	Add(ctx context.Context, d ReceiptDiscount) error
	GetByID(ctx context.Context, id string) (ReceiptDiscount, error)
	ListAll(ctx context.Context) ([]ReceiptDiscount, error)
	Remove(ctx context.Context, id string) error
}

// ComboStore persists combo campaigns.
type ComboStore interface {
	Add(ctx context.Context, c Combo) error
	GetByID(ctx context.Context, id string) (Combo, error)
	ListAll(ctx context.Context) ([]Combo, error)
	Remove(ctx context.Context, id string) error
}

// ComboItemStore persists the product requirements of combos.
type ComboItemStore interface {
	Add(ctx context.Context, it ComboItem) error
	ListByCombo(ctx context.Context, comboID string) ([]ComboItem, error)
	Remove(ctx context.Context, id string) error
}

// BuyNGetNStore persists buy-n-get-n campaigns.
type BuyNGetNStore interface {
	Add(ctx context.Context, b BuyNGetN) error
	GetByID(ctx context.Context, id string) (BuyNGetN, error)
	ListAll(ctx context.Context) ([]BuyNGetN, error)
	Remove(ctx context.Context, id string) error
}

// PaidReceiptStore persists payment records.
type PaidReceiptStore interface {
	Add(ctx context.Context, p PaidReceipt) error
	GetByID(ctx context.Context, id string) (PaidReceipt, error)
	ListAll(ctx context.Context) ([]PaidReceipt, error)
	ListByReceipt(ctx context.Context, receiptID string) ([]PaidReceipt, error)
}

// translateErr maps pgx failures onto the store sentinel errors.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}
	return err
}

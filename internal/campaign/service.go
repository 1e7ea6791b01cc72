// Package campaign manages promotional campaigns: per-product discounts,
// receipt-total discounts, combos and buy-n-get-n offers. The receipt pricing
// chain is rebuilt from these stores on every pricing request, so a campaign
// takes effect the moment it is stored.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/store"
)

// ProductDiscount is a per-product discount campaign.
type ProductDiscount struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Discount  float64 `json:"discount"`
}

// ReceiptDiscount is a receipt-total discount campaign.
type ReceiptDiscount struct {
	ID           string  `json:"id"`
	MinimumTotal float64 `json:"minimum_total"`
	Discount     float64 `json:"discount"`
}

// ComboItem is one product requirement inside a combo.
type ComboItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Combo is a bundle discount campaign with its item requirements.
type Combo struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Discount float64     `json:"discount"`
	Items    []ComboItem `json:"items"`
}

// BuyNGetN is a free-item offer campaign.
type BuyNGetN struct {
	ID           string `json:"id"`
	BuyProductID string `json:"buy_product_id"`
	BuyProductN  int    `json:"buy_product_n"`
	GetProductID string `json:"get_product_id"`
	GetProductN  int    `json:"get_product_n"`
}

// Service manages all four campaign kinds against their stores. Campaigns
// referencing products are validated against the catalog on creation.
type Service struct {
	Products         store.ProductStore
	ProductDiscounts store.ProductDiscountStore
	ReceiptDiscounts store.ReceiptDiscountStore
	Combos           store.ComboStore
	ComboItems       store.ComboItemStore
	BuyNGetNs        store.BuyNGetNStore
}

// AddProductDiscount stores a new product discount.
func (s *Service) AddProductDiscount(ctx context.Context, productID string, discount float64) (ProductDiscount, error) {
	if err := s.validateProduct(ctx, productID); err != nil {
		return ProductDiscount{}, err
	}
	rec := store.ProductDiscount{ID: uuid.NewString(), ProductID: productID, Discount: discount}
	if err := s.ProductDiscounts.Add(ctx, rec); err != nil {
		return ProductDiscount{}, err
	}
	return ProductDiscount(rec), nil
}

// GetProductDiscount returns a product discount by id.
func (s *Service) GetProductDiscount(ctx context.Context, id string) (ProductDiscount, error) {
	rec, err := s.ProductDiscounts.GetByID(ctx, id)
	if err != nil {
		return ProductDiscount{}, translate("PRODUCT_DISCOUNT_NOT_FOUND", "product discount", id, err)
	}
	return ProductDiscount(rec), nil
}

// ListProductDiscounts returns every product discount in listing order.
func (s *Service) ListProductDiscounts(ctx context.Context) ([]ProductDiscount, error) {
	records, err := s.ProductDiscounts.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProductDiscount, 0, len(records))
	for _, rec := range records {
		out = append(out, ProductDiscount(rec))
	}
	return out, nil
}

// RemoveProductDiscount deletes a product discount.
func (s *Service) RemoveProductDiscount(ctx context.Context, id string) error {
	if err := s.ProductDiscounts.Remove(ctx, id); err != nil {
		return translate("PRODUCT_DISCOUNT_NOT_FOUND", "product discount", id, err)
	}
	return nil
}

// AddReceiptDiscount stores a new receipt discount.
func (s *Service) AddReceiptDiscount(ctx context.Context, minimumTotal, discount float64) (ReceiptDiscount, error) {
	rec := store.ReceiptDiscount{ID: uuid.NewString(), MinimumTotal: minimumTotal, Discount: discount}
	if err := s.ReceiptDiscounts.Add(ctx, rec); err != nil {
		return ReceiptDiscount{}, err
	}
	return ReceiptDiscount(rec), nil
}

// GetReceiptDiscount returns a receipt discount by id.
func (s *Service) GetReceiptDiscount(ctx context.Context, id string) (ReceiptDiscount, error) {
	rec, err := s.ReceiptDiscounts.GetByID(ctx, id)
	if err != nil {
		return ReceiptDiscount{}, translate("RECEIPT_DISCOUNT_NOT_FOUND", "receipt discount", id, err)
	}
	return ReceiptDiscount(rec), nil
}

// ListReceiptDiscounts returns every receipt discount in listing order.
func (s *Service) ListReceiptDiscounts(ctx context.Context) ([]ReceiptDiscount, error) {
	records, err := s.ReceiptDiscounts.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ReceiptDiscount, 0, len(records))
	for _, rec := range records {
		out = append(out, ReceiptDiscount(rec))
	}
	return out, nil
}

// RemoveReceiptDiscount deletes a receipt discount.
func (s *Service) RemoveReceiptDiscount(ctx context.Context, id string) error {
	if err := s.ReceiptDiscounts.Remove(ctx, id); err != nil {
		return translate("RECEIPT_DISCOUNT_NOT_FOUND", "receipt discount", id, err)
	}
	return nil
}

// AddCombo stores a combo with its items. Every referenced product must
// exist; a combo without items can never apply and is rejected.
func (s *Service) AddCombo(ctx context.Context, name string, discount float64, items []ComboItem) (Combo, error) {
	if len(items) == 0 {
		return Combo{}, &common.AppError{
			Code: "COMBO_EMPTY", Message: "a combo needs at least one item",
			HTTPStatus: http.StatusBadRequest,
		}
	}
	for _, it := range items {
		if err := s.validateProduct(ctx, it.ProductID); err != nil {
			return Combo{}, err
		}
	}
	rec := store.Combo{ID: uuid.NewString(), Name: name, Discount: discount}
	if err := s.Combos.Add(ctx, rec); err != nil {
		return Combo{}, err
	}
	combo := Combo{ID: rec.ID, Name: rec.Name, Discount: rec.Discount, Items: make([]ComboItem, 0, len(items))}
	for _, it := range items {
		itemRec := store.ComboItem{ID: uuid.NewString(), ComboID: rec.ID, ProductID: it.ProductID, Quantity: it.Quantity}
		if err := s.ComboItems.Add(ctx, itemRec); err != nil {
			return Combo{}, err
		}
		combo.Items = append(combo.Items, ComboItem{ID: itemRec.ID, ProductID: itemRec.ProductID, Quantity: itemRec.Quantity})
	}
	return combo, nil
}

// GetCombo returns a combo with its items.
func (s *Service) GetCombo(ctx context.Context, id string) (Combo, error) {
	rec, err := s.Combos.GetByID(ctx, id)
	if err != nil {
		return Combo{}, translate("COMBO_NOT_FOUND", "combo", id, err)
	}
	return s.comboView(ctx, rec)
}

// ListCombos returns every combo with its items, in listing order.
func (s *Service) ListCombos(ctx context.Context) ([]Combo, error) {
	records, err := s.Combos.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Combo, 0, len(records))
	for _, rec := range records {
		combo, err := s.comboView(ctx, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, combo)
	}
	return out, nil
}

// RemoveCombo deletes a combo and its items.
func (s *Service) RemoveCombo(ctx context.Context, id string) error {
	if err := s.Combos.Remove(ctx, id); err != nil {
		return translate("COMBO_NOT_FOUND", "combo", id, err)
	}
	items, err := s.ComboItems.ListByCombo(ctx, id)
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := s.ComboItems.Remove(ctx, it.ID); err != nil {
			return err
		}
	}
	return nil
}

// AddBuyNGetN stores a buy-n-get-n offer. Both products must exist.
func (s *Service) AddBuyNGetN(ctx context.Context, buyProductID string, buyN int, getProductID string, getN int) (BuyNGetN, error) {
	if err := s.validateProduct(ctx, buyProductID); err != nil {
		return BuyNGetN{}, err
	}
	if err := s.validateProduct(ctx, getProductID); err != nil {
		return BuyNGetN{}, err
	}
	rec := store.BuyNGetN{
		ID:           uuid.NewString(),
		BuyProductID: buyProductID,
		BuyProductN:  buyN,
		GetProductID: getProductID,
		GetProductN:  getN,
	}
	if err := s.BuyNGetNs.Add(ctx, rec); err != nil {
		return BuyNGetN{}, err
	}
	return BuyNGetN(rec), nil
}

// GetBuyNGetN returns an offer by id.
func (s *Service) GetBuyNGetN(ctx context.Context, id string) (BuyNGetN, error) {
	rec, err := s.BuyNGetNs.GetByID(ctx, id)
	if err != nil {
		return BuyNGetN{}, translate("BUY_N_GET_N_NOT_FOUND", "buy-n-get-n offer", id, err)
	}
	return BuyNGetN(rec), nil
}

// ListBuyNGetNs returns every offer in listing order.
func (s *Service) ListBuyNGetNs(ctx context.Context) ([]BuyNGetN, error) {
	records, err := s.BuyNGetNs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BuyNGetN, 0, len(records))
	for _, rec := range records {
		out = append(out, BuyNGetN(rec))
	}
	return out, nil
}

// RemoveBuyNGetN deletes an offer.
func (s *Service) RemoveBuyNGetN(ctx context.Context, id string) error {
	if err := s.BuyNGetNs.Remove(ctx, id); err != nil {
		return translate("BUY_N_GET_N_NOT_FOUND", "buy-n-get-n offer", id, err)
	}
	return nil
}

func (s *Service) comboView(ctx context.Context, rec store.Combo) (Combo, error) {
	items, err := s.ComboItems.ListByCombo(ctx, rec.ID)
	if err != nil {
		return Combo{}, err
	}
	combo := Combo{ID: rec.ID, Name: rec.Name, Discount: rec.Discount, Items: make([]ComboItem, 0, len(items))}
	for _, it := range items {
		combo.Items = append(combo.Items, ComboItem{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return combo, nil
}

func (s *Service) validateProduct(ctx context.Context, productID string) error {
	if _, err := s.Products.GetByID(ctx, productID); err != nil {
		return translate("PRODUCT_NOT_FOUND", "product", productID, err)
	}
	return nil
}

func translate(code, entity, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return &common.AppError{
			Code:       code,
			Message:    fmt.Sprintf("%s %q not found", entity, id),
			HTTPStatus: http.StatusNotFound,
			Err:        err,
		}
	}
	return err
}

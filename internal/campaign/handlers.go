package campaign

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exposes the campaign endpoints under /api/v1/campaigns.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type productDiscountRequest struct {
	ProductID string  `json:"product_id" validate:"required"`
	Discount  float64 `json:"discount" validate:"gt=0,lte=1"`
}

type receiptDiscountRequest struct {
	MinimumTotal float64 `json:"minimum_total" validate:"gte=0"`
	Discount     float64 `json:"discount" validate:"gt=0,lte=1"`
}

type comboItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type comboRequest struct {
	Name     string             `json:"name" validate:"required"`
	Discount float64            `json:"discount" validate:"gt=0,lte=1"`
	Items    []comboItemRequest `json:"items" validate:"required,min=1,dive"`
}

type buyNGetNRequest struct {
	BuyProductID string `json:"buy_product_id" validate:"required"`
	BuyProductN  int    `json:"buy_product_n" validate:"gt=0"`
	GetProductID string `json:"get_product_id" validate:"required"`
	GetProductN  int    `json:"get_product_n" validate:"gt=0"`
}

// CreateProductDiscount handles POST /campaigns/product-discounts.
func (h *Handler) CreateProductDiscount(w http.ResponseWriter, r *http.Request) {
	var req productDiscountRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.Service.AddProductDiscount(r.Context(), req.ProductID, req.Discount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"product_discount": d})
}

// GetProductDiscount handles GET /campaigns/product-discounts/{id}.
func (h *Handler) GetProductDiscount(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.GetProductDiscount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"product_discount": d})
}

// ListProductDiscounts handles GET /campaigns/product-discounts.
func (h *Handler) ListProductDiscounts(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Service.ListProductDiscounts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"product_discounts": ds})
}

// DeleteProductDiscount handles DELETE /campaigns/product-discounts/{id}.
func (h *Handler) DeleteProductDiscount(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveProductDiscount(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateReceiptDiscount handles POST /campaigns/receipt-discounts.
func (h *Handler) CreateReceiptDiscount(w http.ResponseWriter, r *http.Request) {
	var req receiptDiscountRequest
	if !h.decode(w, r, &req) {
		return
	}
	d, err := h.Service.AddReceiptDiscount(r.Context(), req.MinimumTotal, req.Discount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"receipt_discount": d})
}

// GetReceiptDiscount handles GET /campaigns/receipt-discounts/{id}.
func (h *Handler) GetReceiptDiscount(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.GetReceiptDiscount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"receipt_discount": d})
}

// ListReceiptDiscounts handles GET /campaigns/receipt-discounts.
func (h *Handler) ListReceiptDiscounts(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Service.ListReceiptDiscounts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"receipt_discounts": ds})
}

// DeleteReceiptDiscount handles DELETE /campaigns/receipt-discounts/{id}.
func (h *Handler) DeleteReceiptDiscount(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveReceiptDiscount(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateCombo handles POST /campaigns/combos.
func (h *Handler) CreateCombo(w http.ResponseWriter, r *http.Request) {
	var req comboRequest
	if !h.decode(w, r, &req) {
		return
	}
	items := make([]ComboItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ComboItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	combo, err := h.Service.AddCombo(r.Context(), req.Name, req.Discount, items)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"combo": combo})
}

// GetCombo handles GET /campaigns/combos/{id}.
func (h *Handler) GetCombo(w http.ResponseWriter, r *http.Request) {
	combo, err := h.Service.GetCombo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"combo": combo})
}

// ListCombos handles GET /campaigns/combos.
func (h *Handler) ListCombos(w http.ResponseWriter, r *http.Request) {
	combos, err := h.Service.ListCombos(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"combos": combos})
}

// DeleteCombo handles DELETE /campaigns/combos/{id}.
func (h *Handler) DeleteCombo(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveCombo(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateBuyNGetN handles POST /campaigns/buy-n-get-n.
func (h *Handler) CreateBuyNGetN(w http.ResponseWriter, r *http.Request) {
	var req buyNGetNRequest
	if !h.decode(w, r, &req) {
		return
	}
	offer, err := h.Service.AddBuyNGetN(r.Context(), req.BuyProductID, req.BuyProductN, req.GetProductID, req.GetProductN)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"buy_n_get_n": offer})
}

// GetBuyNGetN handles GET /campaigns/buy-n-get-n/{id}.
func (h *Handler) GetBuyNGetN(w http.ResponseWriter, r *http.Request) {
	offer, err := h.Service.GetBuyNGetN(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"buy_n_get_n": offer})
}

// ListBuyNGetNs handles GET /campaigns/buy-n-get-n.
func (h *Handler) ListBuyNGetNs(w http.ResponseWriter, r *http.Request) {
	offers, err := h.Service.ListBuyNGetNs(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"buy_n_get_ns": offers})
}

// DeleteBuyNGetN handles DELETE /campaigns/buy-n-get-n/{id}.
func (h *Handler) DeleteBuyNGetN(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.RemoveBuyNGetN(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return false
		}
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

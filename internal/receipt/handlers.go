package receipt

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exposes the receipt endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type createRequest struct {
	ShiftID string `json:"shift_id" validate:"required"`
}

// Quantity is a signed delta; zero is a legal no-op, so it carries no
// validation tag.
type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

type payRequest struct {
	Currency string `json:"currency" validate:"omitempty,uppercase,len=3"`
}

// Create handles POST /api/v1/receipts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}
	v, err := h.Service.Create(r.Context(), req.ShiftID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"receipt": v})
}

// Get handles GET /api/v1/receipts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	v, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"receipt": v})
}

// List handles GET /api/v1/receipts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"receipts": views})
}

// AddItem handles POST /api/v1/receipts/{id}/products. Quantity is a signed
// delta against the product's current line.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	v, err := h.Service.AddProduct(r.Context(), chi.URLParam(r, "id"), req.ProductID, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"receipt": v})
}

// RemoveItem handles DELETE /api/v1/receipts/{id}/products/{productID}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	err := h.Service.RemoveProduct(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Quotes handles GET /api/v1/receipts/{id}/quotes. The total is reported
// once per currency as a top level field, e.g. {"receipt_id": ..., "GEL": 5,
// "USD": 1.85, "EUR": 1.7}.
func (h *Handler) Quotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.Service.GetQuotes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	payload := map[string]any{"receipt_id": quotes.ReceiptID}
	for cur, total := range quotes.Totals {
		payload[cur] = total
	}
	common.JSON(w, http.StatusOK, payload)
}

// Discount handles GET /api/v1/receipts/{id}/discount.
func (h *Handler) Discount(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.DiscountAmount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, d)
}

// Pay handles POST /api/v1/receipts/{id}/payments.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	var req payRequest
	if !h.decode(w, r, &req) {
		return
	}
	v, err := h.Service.Close(r.Context(), chi.URLParam(r, "id"), req.Currency)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"receipt": v})
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

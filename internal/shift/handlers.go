package shift

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/receipt"
)

// Handler exposes the shift endpoints.
type Handler struct {
	Service        *Service
	ReceiptService *receipt.Service
}

// Open handles POST /api/v1/shifts.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	sh, err := h.Service.Open(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"shift": sh})
}

// Get handles GET /api/v1/shifts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sh, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"shift": sh})
}

// List handles GET /api/v1/shifts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.Service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"shifts": shifts})
}

type updateRequest struct {
	Status string `json:"status"`
}

// Update handles PATCH /api/v1/shifts/{id}. Closing is the only supported
// transition.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if req.Status != StatusClosed {
		common.JSONError(w, http.StatusBadRequest, "SHIFT_STATUS_INVALID", "status must be \"closed\"", nil)
		return
	}
	sh, err := h.Service.Close(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"shift": sh})
}

// Receipts handles GET /api/v1/shifts/{id}/receipts.
func (h *Handler) Receipts(w http.ResponseWriter, r *http.Request) {
	views, err := h.ReceiptService.ListByShift(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"receipts": views})
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

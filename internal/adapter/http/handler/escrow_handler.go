package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletd/internal/adapter/http/dto"
	"github.com/iho/walletd/internal/usecase"
)

// EscrowHandler handles escrow hold, release, and cancel requests.
type EscrowHandler struct {
	escrowUC *usecase.EscrowUseCase
}

// NewEscrowHandler creates a new EscrowHandler.
func NewEscrowHandler(escrowUC *usecase.EscrowUseCase) *EscrowHandler {
	return &EscrowHandler{escrowUC: escrowUC}
}

// Hold moves funds from main balance into escrow.
func (h *EscrowHandler) Hold(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.escrowUC.Hold)
}

// Release captures held funds back into main balance.
func (h *EscrowHandler) Release(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.escrowUC.Release)
}

// Cancel returns held funds to main balance.
func (h *EscrowHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.escrowUC.Cancel)
}

func (h *EscrowHandler) move(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, input usecase.EscrowInput) (*usecase.EscrowResult, error)) {
	tenantID := chi.URLParam(r, "tenantID")

	var req dto.EscrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	result, err := op(r.Context(), req.ToUseCaseInput(tenantID))
	if err != nil {
		writeError(w, mapDomainError(err), "escrow operation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.EscrowFromResult(result))
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/iho/walletd/internal/adapter/http/dto"
	"github.com/iho/walletd/internal/usecase"
)

// AllocationHandler handles cross-tenant credit allocations.
type AllocationHandler struct {
	allocationUC *usecase.AllocationUseCase
}

// NewAllocationHandler creates a new AllocationHandler.
func NewAllocationHandler(allocationUC *usecase.AllocationUseCase) *AllocationHandler {
	return &AllocationHandler{allocationUC: allocationUC}
}

// Create allocates credits from one tenant to another.
func (h *AllocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	result, err := h.allocationUC.Allocate(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "allocation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.AllocationFromResult(result))
}

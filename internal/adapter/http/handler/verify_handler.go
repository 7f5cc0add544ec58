package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletd/internal/adapter/http/dto"
	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/usecase"
)

// VerifyHandler exposes chain verification and reconciliation.
type VerifyHandler struct {
	verifyUC *usecase.VerifyUseCase
}

// NewVerifyHandler creates a new VerifyHandler.
func NewVerifyHandler(verifyUC *usecase.VerifyUseCase) *VerifyHandler {
	return &VerifyHandler{verifyUC: verifyUC}
}

// Verify walks the account's hash chain and reports the first divergence.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	accountType := domain.AccountType(chi.URLParam(r, "accountType"))

	result, err := h.verifyUC.VerifyAccount(r.Context(), tenantID, accountType)
	if err != nil {
		writeError(w, mapDomainError(err), "verification failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.VerifyFromResult(result))
}

// Reconcile checks the stored balance against the chain.
func (h *VerifyHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	accountType := domain.AccountType(chi.URLParam(r, "accountType"))

	result, err := h.verifyUC.ReconcileAccount(r.Context(), tenantID, accountType)
	if err != nil {
		writeError(w, mapDomainError(err), "reconciliation failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconcileFromResult(result))
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletd/internal/adapter/http/dto"
	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/usecase"
)

// LedgerHandler handles credit, debit, and transaction reads.
type LedgerHandler struct {
	ledgerUC *usecase.LedgerUseCase
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC *usecase.LedgerUseCase) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// Credit adds funds to an account.
func (h *LedgerHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.operate(w, r, h.ledgerUC.Credit)
}

// Debit removes funds from an account.
func (h *LedgerHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.operate(w, r, h.ledgerUC.Debit)
}

func (h *LedgerHandler) operate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, input usecase.OperationInput) (*domain.Transaction, error)) {
	tenantID := chi.URLParam(r, "tenantID")
	accountType := domain.AccountType(chi.URLParam(r, "accountType"))

	var req dto.OperationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	// The Idempotency-Key header takes precedence over the body field.
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	transaction, err := op(r.Context(), req.ToUseCaseInput(tenantID, accountType))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to record transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(transaction))
}

// Get retrieves a transaction by ID.
func (h *LedgerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	transaction, err := h.ledgerUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// List lists a tenant's transactions, newest first.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	transactions, err := h.ledgerUC.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		TenantID: tenantID,
		Limit:    parseIntQuery(r, "limit", 0),
		Offset:   parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(transactions))
}

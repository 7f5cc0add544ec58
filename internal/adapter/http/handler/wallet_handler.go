package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/walletd/internal/adapter/http/dto"
	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/usecase"
)

// WalletHandler handles wallet-related HTTP requests.
type WalletHandler struct {
	walletUC        *usecase.WalletUseCase
	defaultCurrency string
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletUC *usecase.WalletUseCase, defaultCurrency string) *WalletHandler {
	return &WalletHandler{walletUC: walletUC, defaultCurrency: defaultCurrency}
}

// Ensure provisions the tenant's wallet if absent and returns it.
func (h *WalletHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req dto.EnsureWalletRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = h.defaultCurrency
	}

	wallet, err := h.walletUC.EnsureWallet(r.Context(), tenantID, currency)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to provision wallet", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// Get retrieves the tenant's wallet.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	wallet, err := h.walletUC.GetWallet(r.Context(), tenantID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get wallet", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// SetStatus applies an administrative status transition.
func (h *WalletHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req dto.SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	wallet, err := h.walletUC.SetStatus(r.Context(), tenantID, domain.WalletStatus(req.Status))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to change wallet status", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// List returns a page of wallets across tenants.
func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	wallets, err := h.walletUC.ListWallets(r.Context(), parseIntQuery(r, "limit", 0), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list wallets", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletsFromDomain(wallets))
}

// ListAccounts returns every account of the tenant's wallet.
func (h *WalletHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	accounts, err := h.walletUC.ListAccounts(r.Context(), tenantID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// GetBalance returns the current balance of one account.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	accountType := domain.AccountType(chi.URLParam(r, "accountType"))

	balance, err := h.walletUC.GetBalance(r.Context(), tenantID, accountType)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		TenantID:    tenantID,
		AccountType: string(accountType),
		Balance:     balance.StringFixed(domain.BalanceScale),
	})
}

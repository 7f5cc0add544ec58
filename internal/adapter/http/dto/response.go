package dto

import (
	"time"

	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/usecase"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WalletResponse represents a wallet.
type WalletResponse struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenant_id"`
	Currency  string         `json:"currency"`
	Status    string         `json:"status"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// WalletFromDomain converts a domain wallet.
func WalletFromDomain(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID,
		TenantID:  w.TenantID,
		Currency:  w.Currency,
		Status:    string(w.Status),
		Metadata:  w.Metadata,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// WalletsFromDomain converts a slice of wallets.
func WalletsFromDomain(wallets []*domain.Wallet) []WalletResponse {
	out := make([]WalletResponse, len(wallets))
	for i, w := range wallets {
		out[i] = WalletFromDomain(w)
	}
	return out
}

// AccountResponse represents one sub-ledger balance. Balances are rendered as
// strings so clients never receive floats.
type AccountResponse struct {
	ID                string    `json:"id"`
	WalletID          string    `json:"wallet_id"`
	Type              string    `json:"type"`
	Balance           string    `json:"balance"`
	LastTransactionID *string   `json:"last_transaction_id,omitempty"`
	Version           int64     `json:"version"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// AccountFromDomain converts a domain account.
func AccountFromDomain(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:                a.ID,
		WalletID:          a.WalletID,
		Type:              string(a.Type),
		Balance:           a.Balance.StringFixed(domain.BalanceScale),
		LastTransactionID: a.LastTransactionID,
		Version:           a.Version,
		UpdatedAt:         a.UpdatedAt,
	}
}

// AccountsFromDomain converts a slice of accounts.
func AccountsFromDomain(accounts []*domain.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = AccountFromDomain(a)
	}
	return out
}

// BalanceResponse reports a single balance.
type BalanceResponse struct {
	TenantID    string `json:"tenant_id"`
	AccountType string `json:"account_type"`
	Balance     string `json:"balance"`
}

// TransactionResponse represents one ledger record.
type TransactionResponse struct {
	ID                    string         `json:"id"`
	TenantID              string         `json:"tenant_id"`
	AccountID             string         `json:"account_id"`
	Direction             string         `json:"direction"`
	Amount                string         `json:"amount"`
	BalanceBefore         string         `json:"balance_before"`
	BalanceAfter          string         `json:"balance_after"`
	ReferenceType         string         `json:"reference_type,omitempty"`
	ReferenceID           string         `json:"reference_id,omitempty"`
	IdempotencyKey        *string        `json:"idempotency_key,omitempty"`
	Description           string         `json:"description,omitempty"`
	Metadata              map[string]any `json:"metadata,omitempty"`
	Hash                  string         `json:"hash"`
	PreviousTransactionID *string        `json:"previous_transaction_id,omitempty"`
	CreatedAt             time.Time      `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction.
func TransactionFromDomain(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                    t.ID,
		TenantID:              t.TenantID,
		AccountID:             t.AccountID,
		Direction:             string(t.Direction),
		Amount:                t.Amount.StringFixed(domain.BalanceScale),
		BalanceBefore:         t.BalanceBefore.StringFixed(domain.BalanceScale),
		BalanceAfter:          t.BalanceAfter.StringFixed(domain.BalanceScale),
		ReferenceType:         t.ReferenceType,
		ReferenceID:           t.ReferenceID,
		IdempotencyKey:        t.IdempotencyKey,
		Description:           t.Description,
		Metadata:              t.Metadata,
		Hash:                  t.Hash,
		PreviousTransactionID: t.PreviousTransactionID,
		CreatedAt:             t.CreatedAt,
	}
}

// TransactionsFromDomain converts a slice of transactions.
func TransactionsFromDomain(transactions []*domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		out[i] = TransactionFromDomain(t)
	}
	return out
}

// EscrowResponse reports the two legs of an escrow movement.
type EscrowResponse struct {
	Out TransactionResponse `json:"out"`
	In  TransactionResponse `json:"in"`
}

// EscrowFromResult converts an escrow result.
func EscrowFromResult(r *usecase.EscrowResult) EscrowResponse {
	return EscrowResponse{
		Out: TransactionFromDomain(r.Out),
		In:  TransactionFromDomain(r.In),
	}
}

// AllocationResponse reports both legs of an allocation.
type AllocationResponse struct {
	Out TransactionResponse `json:"out"`
	In  TransactionResponse `json:"in"`
}

// AllocationFromResult converts an allocation result.
func AllocationFromResult(r *usecase.AllocationResult) AllocationResponse {
	return AllocationResponse{
		Out: TransactionFromDomain(r.Out),
		In:  TransactionFromDomain(r.In),
	}
}

// VerifyResponse reports a chain verification.
type VerifyResponse struct {
	AccountID                   string    `json:"account_id"`
	Valid                       bool      `json:"valid"`
	FirstDivergentTransactionID string    `json:"first_divergent_transaction_id,omitempty"`
	Reason                      string    `json:"reason,omitempty"`
	Checked                     int       `json:"checked"`
	VerifiedAt                  time.Time `json:"verified_at"`
}

// VerifyFromResult converts a verification result.
func VerifyFromResult(r *usecase.VerifyResult) VerifyResponse {
	return VerifyResponse{
		AccountID:                   r.AccountID,
		Valid:                       r.Valid,
		FirstDivergentTransactionID: r.FirstDivergentTransactionID,
		Reason:                      r.Reason,
		Checked:                     r.Checked,
		VerifiedAt:                  r.VerifiedAt,
	}
}

// ReconcileResponse reports a balance reconciliation.
type ReconcileResponse struct {
	AccountID         string    `json:"account_id"`
	RecordedBalance   string    `json:"recorded_balance"`
	ChainTailBalance  string    `json:"chain_tail_balance"`
	CalculatedBalance string    `json:"calculated_balance"`
	Reconciled        bool      `json:"reconciled"`
	CheckedAt         time.Time `json:"checked_at"`
}

// ReconcileFromResult converts a reconciliation result.
func ReconcileFromResult(r *usecase.ReconcileResult) ReconcileResponse {
	return ReconcileResponse{
		AccountID:         r.AccountID,
		RecordedBalance:   r.RecordedBalance.StringFixed(domain.BalanceScale),
		ChainTailBalance:  r.ChainTailBalance.StringFixed(domain.BalanceScale),
		CalculatedBalance: r.CalculatedBalance.StringFixed(domain.BalanceScale),
		Reconciled:        r.Reconciled,
		CheckedAt:         r.CheckedAt,
	}
}

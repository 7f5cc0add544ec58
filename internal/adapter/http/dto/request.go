package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/usecase"
)

// EnsureWalletRequest provisions a tenant's wallet.
type EnsureWalletRequest struct {
	Currency string `json:"currency,omitempty"`
}

// SetStatusRequest changes a wallet's administrative status.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// OperationRequest is the body of a credit or debit call. The tenant and
// account type come from the URL.
type OperationRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	ReferenceType  string          `json:"reference_type,omitempty"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	Description    string          `json:"description,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *OperationRequest) ToUseCaseInput(tenantID string, accountType domain.AccountType) usecase.OperationInput {
	input := usecase.OperationInput{
		TenantID:      tenantID,
		AccountType:   accountType,
		Amount:        r.Amount,
		ReferenceType: r.ReferenceType,
		ReferenceID:   r.ReferenceID,
		Description:   r.Description,
		Metadata:      r.Metadata,
	}

	if r.IdempotencyKey != "" {
		key := r.IdempotencyKey
		input.IdempotencyKey = &key
	}

	return input
}

// EscrowRequest is the body of a hold, release, or cancel call.
type EscrowRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key"`
	ReferenceType  string          `json:"reference_type,omitempty"`
	ReferenceID    string          `json:"reference_id,omitempty"`
	Description    string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *EscrowRequest) ToUseCaseInput(tenantID string) usecase.EscrowInput {
	return usecase.EscrowInput{
		TenantID:       tenantID,
		Amount:         r.Amount,
		IdempotencyKey: r.IdempotencyKey,
		ReferenceType:  r.ReferenceType,
		ReferenceID:    r.ReferenceID,
		Description:    r.Description,
	}
}

// AllocateRequest moves credits between two tenants.
type AllocateRequest struct {
	FromTenantID   string          `json:"from_tenant_id"`
	ToTenantID     string          `json:"to_tenant_id"`
	AccountType    string          `json:"account_type,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotency_key"`
	Description    string          `json:"description,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *AllocateRequest) ToUseCaseInput() usecase.AllocateInput {
	return usecase.AllocateInput{
		FromTenantID:   r.FromTenantID,
		ToTenantID:     r.ToTenantID,
		AccountType:    domain.AccountType(r.AccountType),
		Amount:         r.Amount,
		IdempotencyKey: r.IdempotencyKey,
		Description:    r.Description,
	}
}

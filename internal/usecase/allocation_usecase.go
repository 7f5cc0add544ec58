package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletd/internal/domain"
)

const (
	referenceAllocationOut = "allocation_out"
	referenceAllocationIn  = "allocation_in"
)

// AllocationUseCase moves credits between two tenants' wallets, e.g. a
// reseller funding a sub-tenant. Modeled as two chained ledger operations
// with derived idempotency keys, not a new primitive.
type AllocationUseCase struct {
	ledger *LedgerUseCase
	logger zerolog.Logger
}

// NewAllocationUseCase creates a new AllocationUseCase.
func NewAllocationUseCase(ledger *LedgerUseCase, logger zerolog.Logger) *AllocationUseCase {
	return &AllocationUseCase{ledger: ledger, logger: logger}
}

// AllocateInput carries one cross-tenant allocation request.
type AllocateInput struct {
	FromTenantID   string
	ToTenantID     string
	AccountType    domain.AccountType
	Amount         decimal.Decimal
	IdempotencyKey string
	Description    string
}

// AllocationResult reports both legs of an allocation.
type AllocationResult struct {
	Out *domain.Transaction
	In  *domain.Transaction
}

// Allocate debits the source tenant and credits the destination tenant.
func (uc *AllocationUseCase) Allocate(ctx context.Context, input AllocateInput) (*AllocationResult, error) {
	if input.FromTenantID == input.ToTenantID {
		return nil, domain.ErrSameTenant
	}

	if input.IdempotencyKey == "" {
		return nil, domain.ErrIdempotencyKeyRequired
	}

	accountType := input.AccountType
	if accountType == "" {
		accountType = domain.AccountTypeBonusCredits
	}

	outKey := input.IdempotencyKey + ":out"
	inKey := input.IdempotencyKey + ":in"

	out, err := uc.ledger.Debit(ctx, OperationInput{
		TenantID:       input.FromTenantID,
		AccountType:    accountType,
		Amount:         input.Amount,
		IdempotencyKey: &outKey,
		ReferenceType:  referenceAllocationOut,
		ReferenceID:    input.ToTenantID,
		Description:    input.Description,
	})
	if err != nil {
		return nil, err
	}

	in, err := uc.ledger.Credit(ctx, OperationInput{
		TenantID:       input.ToTenantID,
		AccountType:    accountType,
		Amount:         input.Amount,
		IdempotencyKey: &inKey,
		ReferenceType:  referenceAllocationIn,
		ReferenceID:    input.FromTenantID,
		Description:    input.Description,
	})
	if err != nil {
		// The debit stands. A retry with the same key replays it without
		// moving funds again and completes this credit.
		uc.logger.Warn().Err(err).
			Str("from_tenant", input.FromTenantID).
			Str("to_tenant", input.ToTenantID).
			Str("idempotency_key", input.IdempotencyKey).
			Msg("allocation credit leg failed, debit stands until retried")

		return nil, err
	}

	return &AllocationResult{Out: out, In: in}, nil
}

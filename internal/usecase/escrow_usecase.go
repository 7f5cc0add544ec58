package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletd/internal/domain"
)

// EscrowUseCase implements hold / release / cancel on top of the ledger
// engine's credit and debit primitives. Each escrow movement is a pair of
// chained ledger operations with derived idempotency keys, so a replayed
// request resumes exactly where it left off.
type EscrowUseCase struct {
	ledger *LedgerUseCase
	logger zerolog.Logger
}

// NewEscrowUseCase creates a new EscrowUseCase.
func NewEscrowUseCase(ledger *LedgerUseCase, logger zerolog.Logger) *EscrowUseCase {
	return &EscrowUseCase{ledger: ledger, logger: logger}
}

// EscrowInput carries one escrow request.
type EscrowInput struct {
	TenantID       string
	Amount         decimal.Decimal
	IdempotencyKey string
	ReferenceType  string
	ReferenceID    string
	Description    string
}

// EscrowResult reports the two legs of an escrow movement.
type EscrowResult struct {
	Out *domain.Transaction
	In  *domain.Transaction
}

// Hold moves funds from main balance into escrow.
func (uc *EscrowUseCase) Hold(ctx context.Context, input EscrowInput) (*EscrowResult, error) {
	return uc.move(ctx, input, domain.AccountTypeMainBalance, domain.AccountTypeEscrow, "hold")
}

// Release captures held funds back into main balance once the underlying
// obligation settles.
func (uc *EscrowUseCase) Release(ctx context.Context, input EscrowInput) (*EscrowResult, error) {
	return uc.move(ctx, input, domain.AccountTypeEscrow, domain.AccountTypeMainBalance, "release")
}

// Cancel returns held funds to main balance when the underlying obligation
// is abandoned.
func (uc *EscrowUseCase) Cancel(ctx context.Context, input EscrowInput) (*EscrowResult, error) {
	return uc.move(ctx, input, domain.AccountTypeEscrow, domain.AccountTypeMainBalance, "cancel")
}

// move debits the source account, then credits the destination. If the
// credit fails the debit stands: a retry with the same key replays the debit
// without moving funds again and completes the credit, so the pair always
// converges to exactly one debit and one credit.
func (uc *EscrowUseCase) move(ctx context.Context, input EscrowInput, from, to domain.AccountType, op string) (*EscrowResult, error) {
	if input.IdempotencyKey == "" {
		return nil, domain.ErrIdempotencyKeyRequired
	}

	outKey := input.IdempotencyKey + ":" + op + ":out"
	inKey := input.IdempotencyKey + ":" + op + ":in"

	out, err := uc.ledger.Debit(ctx, OperationInput{
		TenantID:       input.TenantID,
		AccountType:    from,
		Amount:         input.Amount,
		IdempotencyKey: &outKey,
		ReferenceType:  input.ReferenceType,
		ReferenceID:    input.ReferenceID,
		Description:    input.Description,
	})
	if err != nil {
		return nil, err
	}

	in, err := uc.ledger.Credit(ctx, OperationInput{
		TenantID:       input.TenantID,
		AccountType:    to,
		Amount:         input.Amount,
		IdempotencyKey: &inKey,
		ReferenceType:  input.ReferenceType,
		ReferenceID:    input.ReferenceID,
		Description:    input.Description,
	})
	if err != nil {
		uc.logger.Warn().Err(err).
			Str("tenant_id", input.TenantID).
			Str("idempotency_key", input.IdempotencyKey).
			Str("operation", op).
			Msg("escrow credit leg failed, debit stands until retried")

		return nil, err
	}

	return &EscrowResult{Out: out, In: in}, nil
}

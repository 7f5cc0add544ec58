package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/infrastructure/metrics"
)

// VerifyUseCase walks an account's hash chain recomputing every digest from
// its predecessor. Off the hot path; meant for periodic audits and incident
// investigation.
type VerifyUseCase struct {
	walletRepo  WalletRepository
	accountRepo AccountRepository
	txRepo      TransactionRepository
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewVerifyUseCase creates a new VerifyUseCase.
func NewVerifyUseCase(
	walletRepo WalletRepository,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *VerifyUseCase {
	return &VerifyUseCase{
		walletRepo:  walletRepo,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		metrics:     m,
		logger:      logger,
	}
}

// VerifyResult reports the outcome of a chain verification.
type VerifyResult struct {
	AccountID                   string
	Valid                       bool
	FirstDivergentTransactionID string
	Reason                      string
	Checked                     int
	VerifiedAt                  time.Time
}

// VerifyAccount checks the whole chain of the tenant's account and reports
// the first point of divergence, if any.
func (uc *VerifyUseCase) VerifyAccount(ctx context.Context, tenantID string, accountType domain.AccountType) (*VerifyResult, error) {
	account, err := uc.resolveAccount(ctx, tenantID, accountType)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{
		AccountID:  account.ID,
		Valid:      true,
		VerifiedAt: time.Now().UTC(),
	}

	previousHash := domain.GenesisHash

	var previousID *string

	var afterID *string
	for {
		page, err := uc.txRepo.ReadChain(ctx, account.ID, afterID, ChainPageSize)
		if err != nil {
			return nil, err
		}

		if len(page) == 0 {
			break
		}

		for _, record := range page {
			result.Checked++

			if diverged, reason := uc.checkRecord(record, previousHash, previousID); diverged {
				result.Valid = false
				result.FirstDivergentTransactionID = record.ID
				result.Reason = reason

				uc.observe(result)

				return result, nil
			}

			previousHash = record.Hash
			id := record.ID
			previousID = &id
		}

		if len(page) < ChainPageSize {
			break
		}

		afterID = previousID
	}

	uc.observe(result)

	return result, nil
}

func (uc *VerifyUseCase) checkRecord(record *domain.Transaction, previousHash string, previousID *string) (bool, string) {
	if !sameID(record.PreviousTransactionID, previousID) {
		return true, "predecessor link mismatch"
	}

	if !record.CheckArithmetic() {
		return true, "balance arithmetic mismatch"
	}

	if record.ComputeHash(previousHash) != record.Hash {
		return true, "hash mismatch"
	}

	return false, ""
}

func (uc *VerifyUseCase) observe(result *VerifyResult) {
	if result.Valid {
		uc.logger.Info().
			Str("account_id", result.AccountID).
			Int("checked", result.Checked).
			Msg("chain verified")
	} else {
		uc.logger.Error().
			Str("account_id", result.AccountID).
			Str("transaction_id", result.FirstDivergentTransactionID).
			Str("reason", result.Reason).
			Int("checked", result.Checked).
			Msg("chain divergence detected")
	}

	if uc.metrics == nil {
		return
	}

	label := "valid"
	if !result.Valid {
		label = "divergent"
	}

	uc.metrics.ChainVerifications.WithLabelValues(label).Inc()
	uc.metrics.ChainLength.Observe(float64(result.Checked))
}

// ReconcileResult reports a balance reconciliation.
type ReconcileResult struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	ChainTailBalance  decimal.Decimal
	CalculatedBalance decimal.Decimal
	Reconciled        bool
	CheckedAt         time.Time
}

// ReconcileAccount verifies that the stored balance equals both the chain
// tail's balance-after and the signed sum of all chain amounts.
func (uc *VerifyUseCase) ReconcileAccount(ctx context.Context, tenantID string, accountType domain.AccountType) (*ReconcileResult, error) {
	account, err := uc.resolveAccount(ctx, tenantID, accountType)
	if err != nil {
		return nil, err
	}

	sum := decimal.Zero
	tail := decimal.Zero

	var afterID *string
	for {
		page, err := uc.txRepo.ReadChain(ctx, account.ID, afterID, ChainPageSize)
		if err != nil {
			return nil, err
		}

		if len(page) == 0 {
			break
		}

		for _, record := range page {
			if record.Direction == domain.DirectionCredit {
				sum = sum.Add(record.Amount)
			} else {
				sum = sum.Sub(record.Amount)
			}

			tail = record.BalanceAfter
		}

		last := page[len(page)-1].ID
		afterID = &last

		if len(page) < ChainPageSize {
			break
		}
	}

	result := &ReconcileResult{
		AccountID:         account.ID,
		RecordedBalance:   account.Balance,
		ChainTailBalance:  tail,
		CalculatedBalance: sum,
		Reconciled:        account.Balance.Equal(tail) && account.Balance.Equal(sum),
		CheckedAt:         time.Now().UTC(),
	}

	if !result.Reconciled {
		uc.logger.Error().
			Str("account_id", account.ID).
			Str("recorded", result.RecordedBalance.String()).
			Str("chain_tail", result.ChainTailBalance.String()).
			Str("calculated", result.CalculatedBalance.String()).
			Msg("account does not reconcile")
	}

	return result, nil
}

func (uc *VerifyUseCase) resolveAccount(ctx context.Context, tenantID string, accountType domain.AccountType) (*domain.Account, error) {
	if !domain.ValidAccountType(accountType) {
		return nil, domain.ErrInvalidAccountType
	}

	wallet, err := uc.walletRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return uc.accountRepo.Get(ctx, wallet.ID, accountType)
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}

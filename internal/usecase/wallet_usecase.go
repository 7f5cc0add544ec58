package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/infrastructure/metrics"
)

// WalletUseCase handles wallet provisioning, balance reads, and
// administrative status transitions.
type WalletUseCase struct {
	txManager   TxManager
	walletRepo  WalletRepository
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	cache       Cache
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewWalletUseCase creates a new WalletUseCase.
func NewWalletUseCase(
	txManager TxManager,
	walletRepo WalletRepository,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	cache Cache,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *WalletUseCase {
	return &WalletUseCase{
		txManager:   txManager,
		walletRepo:  walletRepo,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		cache:       cache,
		idGen:       idGen,
		metrics:     m,
		logger:      logger,
	}
}

// EnsureWallet returns the tenant's wallet, provisioning it with all account
// types if absent. Safe to call concurrently; the unique tenant constraint
// makes provisioning race to a single winner.
func (uc *WalletUseCase) EnsureWallet(ctx context.Context, tenantID, currency string) (*domain.Wallet, error) {
	wallet, err := uc.walletRepo.GetByTenant(ctx, tenantID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, domain.ErrWalletNotFound) {
		return nil, err
	}

	if currency == "" {
		currency = "USD"
	}
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	wallet = &domain.Wallet{
		ID:        uc.idGen.Generate(),
		TenantID:  tenantID,
		Currency:  currency,
		Status:    domain.WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.walletRepo.Create(ctx, tx, wallet); err != nil {
		// A concurrent provisioner may have won the tenant uniqueness race.
		if existing, getErr := uc.walletRepo.GetByTenant(ctx, tenantID); getErr == nil {
			return existing, nil
		}

		return nil, err
	}

	for _, accountType := range domain.AccountTypes() {
		if _, err := uc.accountRepo.GetOrCreate(ctx, tx, wallet.ID, accountType); err != nil {
			return nil, err
		}
	}

	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   wallet.ID,
			AggregateType: domain.AggregateTypeWallet,
			EventType:     domain.EventTypeWalletProvisioned,
			Payload: map[string]any{
				"wallet_id": wallet.ID,
				"tenant_id": wallet.TenantID,
				"currency":  wallet.Currency,
			},
			CreatedAt: now,
			Published: false,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WalletsProvisioned.Inc()
	}

	uc.logger.Info().
		Str("wallet_id", wallet.ID).
		Str("tenant_id", tenantID).
		Str("currency", currency).
		Msg("wallet provisioned")

	return wallet, nil
}

// GetWallet retrieves the tenant's wallet.
func (uc *WalletUseCase) GetWallet(ctx context.Context, tenantID string) (*domain.Wallet, error) {
	return uc.walletRepo.GetByTenant(ctx, tenantID)
}

// GetBalance returns the current balance of the tenant's account, served
// from cache when fresh.
func (uc *WalletUseCase) GetBalance(ctx context.Context, tenantID string, accountType domain.AccountType) (decimal.Decimal, error) {
	if !domain.ValidAccountType(accountType) {
		return decimal.Zero, domain.ErrInvalidAccountType
	}

	key := balanceCacheKey(tenantID, accountType)

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, key); err == nil {
			if balance, parseErr := decimal.NewFromString(cached); parseErr == nil {
				if uc.metrics != nil {
					uc.metrics.BalanceCacheHits.Inc()
				}

				return balance, nil
			}
		}
	}

	if uc.metrics != nil {
		uc.metrics.BalanceCacheMisses.Inc()
	}

	wallet, err := uc.walletRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		return decimal.Zero, err
	}

	account, err := uc.accountRepo.Get(ctx, wallet.ID, accountType)
	if err != nil {
		// Accounts are created lazily; a missing row is a zero balance.
		if errors.Is(err, domain.ErrAccountNotFound) {
			return decimal.Zero, nil
		}

		return decimal.Zero, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, account.Balance.String(), BalanceCacheTTL); err != nil {
			uc.logger.Warn().Err(err).Str("key", key).Msg("failed to cache balance")
		}
	}

	return account.Balance, nil
}

// ListWallets returns a page of wallets across tenants, for administrative
// inspection.
func (uc *WalletUseCase) ListWallets(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.walletRepo.List(ctx, limit, offset)
}

// ListAccounts returns every account of the tenant's wallet.
func (uc *WalletUseCase) ListAccounts(ctx context.Context, tenantID string) ([]*domain.Account, error) {
	wallet, err := uc.walletRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	return uc.accountRepo.ListByWallet(ctx, wallet.ID)
}

// SetStatus applies an administrative status transition to the wallet.
func (uc *WalletUseCase) SetStatus(ctx context.Context, tenantID string, status domain.WalletStatus) (*domain.Wallet, error) {
	if !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	wallet, err := uc.walletRepo.GetByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if wallet.Status == status {
		return wallet, nil
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	if err := uc.walletRepo.UpdateStatus(ctx, tx, wallet.ID, status, now); err != nil {
		return nil, err
	}

	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   wallet.ID,
			AggregateType: domain.AggregateTypeWallet,
			EventType:     domain.EventTypeWalletStatusChanged,
			Payload: map[string]any{
				"wallet_id":  wallet.ID,
				"tenant_id":  wallet.TenantID,
				"old_status": string(wallet.Status),
				"new_status": string(status),
			},
			CreatedAt: now,
			Published: false,
		}
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("wallet_id", wallet.ID).
		Str("old_status", string(wallet.Status)).
		Str("new_status", string(status)).
		Msg("wallet status changed")

	if uc.metrics != nil {
		uc.metrics.WalletStatusChanges.WithLabelValues(string(status)).Inc()
	}

	wallet.Status = status
	wallet.UpdatedAt = now

	return wallet, nil
}

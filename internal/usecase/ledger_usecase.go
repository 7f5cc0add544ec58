package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/infrastructure/metrics"
)

// LedgerUseCase is the ledger engine. It orchestrates a single credit or
// debit as one atomic unit: resolve idempotency, read the account, compute
// the candidate transaction, and commit the conditional balance write
// together with the log append. All invariants live in the commit protocol.
type LedgerUseCase struct {
	txManager   TxManager
	walletRepo  WalletRepository
	accountRepo AccountRepository
	txRepo      TransactionRepository
	outboxRepo  OutboxRepository
	cache       Cache
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewLedgerUseCase creates a new LedgerUseCase. cache, outboxRepo and
// metrics are optional.
func NewLedgerUseCase(
	txManager TxManager,
	walletRepo WalletRepository,
	accountRepo AccountRepository,
	txRepo TransactionRepository,
	outboxRepo OutboxRepository,
	cache Cache,
	idGen IDGenerator,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:   txManager,
		walletRepo:  walletRepo,
		accountRepo: accountRepo,
		txRepo:      txRepo,
		outboxRepo:  outboxRepo,
		cache:       cache,
		idGen:       idGen,
		metrics:     m,
		logger:      logger,
	}
}

// OperationInput carries one credit or debit request.
type OperationInput struct {
	TenantID       string
	AccountType    domain.AccountType
	Amount         decimal.Decimal
	IdempotencyKey *string
	ReferenceType  string
	ReferenceID    string
	Description    string
	Metadata       map[string]any
}

func (in *OperationInput) validate() error {
	if err := domain.ValidateAmount(in.Amount); err != nil {
		return err
	}

	if !domain.ValidAccountType(in.AccountType) {
		return domain.ErrInvalidAccountType
	}

	if err := domain.ValidateReference(in.ReferenceType, in.ReferenceID); err != nil {
		return err
	}

	return domain.ValidateMetadata(in.Metadata)
}

// Credit adds amount to the tenant's account of the given type.
func (uc *LedgerUseCase) Credit(ctx context.Context, input OperationInput) (*domain.Transaction, error) {
	return uc.process(ctx, domain.DirectionCredit, input)
}

// Debit removes amount from the tenant's account of the given type. A debit
// that would drive the balance negative is rejected with
// domain.ErrInsufficientFunds and leaves no trace.
func (uc *LedgerUseCase) Debit(ctx context.Context, input OperationInput) (*domain.Transaction, error) {
	return uc.process(ctx, domain.DirectionDebit, input)
}

func (uc *LedgerUseCase) process(ctx context.Context, direction domain.Direction, input OperationInput) (*domain.Transaction, error) {
	start := time.Now()

	if err := input.validate(); err != nil {
		return nil, err
	}

	// Sole replay path: a known idempotency key returns the prior
	// transaction unchanged, without touching any store.
	if input.IdempotencyKey != nil {
		existing, err := uc.replay(ctx, *input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	wallet, err := uc.walletRepo.GetByTenant(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}

	if err := wallet.CanTransact(); err != nil {
		return nil, err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = ConflictBackoffInitial
	bo.MaxInterval = ConflictBackoffMax

	var committed *domain.Transaction

	for attempt := 1; attempt <= MaxCommitAttempts; attempt++ {
		committed, err = uc.attempt(ctx, wallet, direction, input)
		if err == nil {
			uc.observeCommit(direction, input, committed, attempt, start)
			return committed, nil
		}

		switch {
		case errors.Is(err, domain.ErrVersionConflict):
			// Expected under contention: wait, then re-read fresh state.
			if uc.metrics != nil {
				uc.metrics.VersionConflicts.Inc()
			}

			uc.logger.Debug().
				Str("tenant_id", input.TenantID).
				Str("account_type", string(input.AccountType)).
				Int("attempt", attempt).
				Msg("version conflict, retrying commit")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(bo.NextBackOff()):
			}

		case errors.Is(err, domain.ErrDuplicateIdempotencyKey):
			// A concurrent duplicate won the reservation race; its committed
			// transaction is the result of this request too.
			if input.IdempotencyKey == nil {
				return nil, err
			}

			return uc.replayCommitted(ctx, *input.IdempotencyKey)

		case errors.Is(err, domain.ErrInsufficientFunds):
			if uc.metrics != nil {
				uc.metrics.InsufficientFunds.Inc()
			}

			return nil, err

		default:
			return nil, err
		}
	}

	if uc.metrics != nil {
		uc.metrics.RetriesExhausted.Inc()
	}

	uc.logger.Warn().
		Str("tenant_id", input.TenantID).
		Str("account_type", string(input.AccountType)).
		Msg("commit retries exhausted")

	return nil, domain.ErrRetryExhausted
}

// attempt runs one pass of the commit protocol. Every store mutation happens
// inside the unit of work; a failure at any step leaves no trace.
func (uc *LedgerUseCase) attempt(ctx context.Context, wallet *domain.Wallet, direction domain.Direction, input OperationInput) (*domain.Transaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	account, err := uc.accountRepo.GetOrCreate(txCtx, tx, wallet.ID, input.AccountType)
	if err != nil {
		return nil, err
	}

	balanceBefore := account.Balance

	var balanceAfter decimal.Decimal
	if direction == domain.DirectionDebit {
		if err := account.ValidateDebit(input.Amount); err != nil {
			return nil, err
		}
		balanceAfter = account.ApplyDebit(input.Amount)
	} else {
		balanceAfter = account.ApplyCredit(input.Amount)
	}

	previousHash := domain.GenesisHash
	if account.LastTransactionID != nil {
		previous, err := uc.txRepo.GetByIDTx(txCtx, tx, *account.LastTransactionID)
		if err != nil {
			return nil, err
		}
		previousHash = previous.Hash
	}

	now := time.Now().UTC()
	record := &domain.Transaction{
		ID:                    uc.idGen.Generate(),
		TenantID:              input.TenantID,
		AccountID:             account.ID,
		Direction:             direction,
		Amount:                input.Amount,
		BalanceBefore:         balanceBefore,
		BalanceAfter:          balanceAfter,
		ReferenceType:         input.ReferenceType,
		ReferenceID:           input.ReferenceID,
		IdempotencyKey:        input.IdempotencyKey,
		Description:           input.Description,
		Metadata:              input.Metadata,
		PreviousTransactionID: account.LastTransactionID,
		CreatedAt:             now,
	}
	record.Hash = record.ComputeHash(previousHash)

	// Append reserves the idempotency key via the log's unique index; the
	// reservation commits or rolls back with the balance write.
	if err := uc.txRepo.Append(txCtx, tx, record); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.ConditionalUpdate(txCtx, tx, account.ID, account.Version, balanceAfter, record.ID, now); err != nil {
		return nil, err
	}

	if uc.outboxRepo != nil {
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   record.ID,
			AggregateType: domain.AggregateTypeTransaction,
			EventType:     domain.EventTypeTransactionRecorded,
			Payload: map[string]any{
				"transaction_id": record.ID,
				"tenant_id":      record.TenantID,
				"account_id":     record.AccountID,
				"account_type":   string(input.AccountType),
				"direction":      string(record.Direction),
				"amount":         record.Amount.String(),
				"balance_after":  record.BalanceAfter.String(),
				"reference_type": record.ReferenceType,
				"reference_id":   record.ReferenceID,
			},
			CreatedAt: now,
			Published: false,
		}
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	uc.refreshBalanceCache(ctx, input.TenantID, input.AccountType, balanceAfter)

	return record, nil
}

// replay returns the transaction recorded for key, or nil when the key is
// unknown.
func (uc *LedgerUseCase) replay(ctx context.Context, key string) (*domain.Transaction, error) {
	existing, err := uc.txRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return nil, nil
		}

		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.IdempotentReplays.Inc()
	}

	return existing, nil
}

// replayCommitted is the post-race replay: the key was reserved by a
// concurrent request, so its transaction must exist by now.
func (uc *LedgerUseCase) replayCommitted(ctx context.Context, key string) (*domain.Transaction, error) {
	existing, err := uc.replay(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrDuplicateIdempotencyKey
	}

	return existing, nil
}

func (uc *LedgerUseCase) observeCommit(direction domain.Direction, input OperationInput, record *domain.Transaction, attempts int, start time.Time) {
	uc.logger.Info().
		Str("transaction_id", record.ID).
		Str("tenant_id", record.TenantID).
		Str("account_type", string(input.AccountType)).
		Str("direction", string(direction)).
		Str("amount", record.Amount.String()).
		Str("balance_after", record.BalanceAfter.String()).
		Msg("transaction committed")

	if uc.metrics == nil {
		return
	}

	uc.metrics.TransactionsCommitted.WithLabelValues(string(direction), string(input.AccountType)).Inc()
	uc.metrics.TransactionAmount.Observe(record.Amount.InexactFloat64())
	uc.metrics.CommitDuration.Observe(time.Since(start).Seconds())
	uc.metrics.CommitAttempts.Observe(float64(attempts))
}

func (uc *LedgerUseCase) refreshBalanceCache(ctx context.Context, tenantID string, accountType domain.AccountType, balance decimal.Decimal) {
	if uc.cache == nil {
		return
	}

	key := balanceCacheKey(tenantID, accountType)
	if err := uc.cache.Set(ctx, key, balance.String(), BalanceCacheTTL); err != nil {
		uc.logger.Warn().Err(err).Str("key", key).Msg("failed to refresh balance cache")
	}
}

// GetTransaction retrieves a transaction by ID.
func (uc *LedgerUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.txRepo.GetByID(ctx, id)
}

// ListTransactionsInput represents input for listing transactions.
type ListTransactionsInput struct {
	TenantID string
	Limit    int
	Offset   int
}

// ListTransactions lists a tenant's transactions, newest first.
func (uc *LedgerUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.Transaction, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.txRepo.ListByTenant(ctx, input.TenantID, limit, offset)
}

func balanceCacheKey(tenantID string, accountType domain.AccountType) string {
	return "wallet:balance:" + tenantID + ":" + string(accountType)
}

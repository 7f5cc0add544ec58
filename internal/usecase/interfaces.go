package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletd/internal/domain"
)

// WalletRepository defines data access for wallets.
type WalletRepository interface {
	Create(ctx context.Context, tx Tx, wallet *domain.Wallet) error
	GetByTenant(ctx context.Context, tenantID string) (*domain.Wallet, error)
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status domain.WalletStatus, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
}

// AccountRepository defines data access for wallet accounts. The balance is
// written only through ConditionalUpdate, which succeeds only when the caller
// still holds the current version.
type AccountRepository interface {
	// GetOrCreate reads the (wallet, type) account inside tx, inserting a
	// zero-balance row at version 0 if absent.
	GetOrCreate(ctx context.Context, tx Tx, walletID string, accountType domain.AccountType) (*domain.Account, error)
	Get(ctx context.Context, walletID string, accountType domain.AccountType) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	ListByWallet(ctx context.Context, walletID string) ([]*domain.Account, error)
	// ConditionalUpdate advances the account to (balance, version+1) if its
	// persisted version still equals expectedVersion. A concurrent writer
	// having advanced the version yields domain.ErrVersionConflict; that is a
	// normal outcome, not a fault.
	ConditionalUpdate(ctx context.Context, tx Tx, id string, expectedVersion int64, balance decimal.Decimal, lastTransactionID string, updatedAt time.Time) error
}

// TransactionRepository defines data access for the append-only transaction
// log. Records are never mutated or removed.
type TransactionRepository interface {
	// Append inserts a record inside tx. A duplicate idempotency key yields
	// domain.ErrDuplicateIdempotencyKey.
	Append(ctx context.Context, tx Tx, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// GetByIDTx reads a record inside tx so hash computation observes a
	// consistent snapshot of the predecessor.
	GetByIDTx(ctx context.Context, tx Tx, id string) (*domain.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Transaction, error)
	// ReadChain returns up to limit records for an account, oldest first,
	// starting after afterID (nil starts from the genesis record). Restartable
	// by passing the last seen ID.
	ReadChain(ctx context.Context, accountID string, afterID *string, limit int) ([]*domain.Transaction, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Tx, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Tx represents one atomic unit of work: the conditional balance write, the
// log append, and the outbox record commit or roll back together.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxManager handles transaction lifecycle.
type TxManager interface {
	Begin(ctx context.Context) (Tx, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

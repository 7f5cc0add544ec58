package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// TransactionRepository implements usecase.TransactionRepository over the
// append-only wallet_transactions log. There are no UPDATE or DELETE paths.
type TransactionRepository struct {
	pool Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, tenant_id, account_id, direction, amount, balance_before, balance_after,
		reference_type, reference_id, idempotency_key, description, metadata,
		hash, previous_transaction_id, created_at`

// Append inserts a transaction record inside tx. The unique index on
// idempotency_key is the idempotency authority; a violation surfaces as
// domain.ErrDuplicateIdempotencyKey.
func (r *TransactionRepository) Append(ctx context.Context, tx usecase.Tx, transaction *domain.Transaction) error {
	metadata, err := json.Marshal(transaction.Metadata)
	if err != nil {
		return err
	}

	amount, err := decimalToNumeric(transaction.Amount)
	if err != nil {
		return err
	}
	before, err := decimalToNumeric(transaction.BalanceBefore)
	if err != nil {
		return err
	}
	after, err := decimalToNumeric(transaction.BalanceAfter)
	if err != nil {
		return err
	}

	query := `INSERT INTO wallet_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = tx.(*Tx).PgxTx().Exec(ctx, query,
		transaction.ID, transaction.TenantID, transaction.AccountID,
		string(transaction.Direction), amount, before, after,
		transaction.ReferenceType, transaction.ReferenceID, transaction.IdempotencyKey,
		transaction.Description, metadata, transaction.Hash,
		transaction.PreviousTransactionID, transaction.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return domain.ErrDuplicateIdempotencyKey
		}

		return err
	}

	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE id = $1`

	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// GetByIDTx retrieves a transaction by ID inside tx.
func (r *TransactionRepository) GetByIDTx(ctx context.Context, tx usecase.Tx, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE id = $1`

	return scanTransaction(tx.(*Tx).PgxTx().QueryRow(ctx, query, id))
}

// GetByIdempotencyKey retrieves the transaction recorded for key.
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE idempotency_key = $1`

	return scanTransaction(r.pool.QueryRow(ctx, query, key))
}

// ListByTenant lists a tenant's transactions, newest first.
func (r *TransactionRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions
		WHERE tenant_id = $1 ORDER BY seq DESC LIMIT $2 OFFSET $3`

	return r.queryTransactions(ctx, query, tenantID, limit, offset)
}

// ReadChain returns up to limit records of an account's chain in commit
// order, starting after afterID. The seq column, assigned at insert, is the
// chain order; ULIDs alone are not trustworthy under clock skew.
func (r *TransactionRepository) ReadChain(ctx context.Context, accountID string, afterID *string, limit int) ([]*domain.Transaction, error) {
	if afterID == nil {
		query := `SELECT ` + transactionColumns + ` FROM wallet_transactions
			WHERE account_id = $1 ORDER BY seq LIMIT $2`

		return r.queryTransactions(ctx, query, accountID, limit)
	}

	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions
		WHERE account_id = $1 AND seq > (SELECT seq FROM wallet_transactions WHERE id = $2)
		ORDER BY seq LIMIT $3`

	return r.queryTransactions(ctx, query, accountID, *afterID, limit)
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*domain.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}

	return transactions, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		transaction                  domain.Transaction
		direction                    string
		amount, before, after        pgtype.Numeric
		metadata                     []byte
		idempotencyKey, previousTxID *string
		createdAt                    time.Time
	)

	err := row.Scan(&transaction.ID, &transaction.TenantID, &transaction.AccountID,
		&direction, &amount, &before, &after,
		&transaction.ReferenceType, &transaction.ReferenceID, &idempotencyKey,
		&transaction.Description, &metadata, &transaction.Hash,
		&previousTxID, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	transaction.Direction = domain.Direction(direction)
	transaction.Amount = numericToDecimal(amount)
	transaction.BalanceBefore = numericToDecimal(before)
	transaction.BalanceAfter = numericToDecimal(after)
	transaction.IdempotencyKey = idempotencyKey
	transaction.PreviousTransactionID = previousTxID
	transaction.CreatedAt = createdAt

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &transaction.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal transaction metadata: %w", err)
		}
	}

	return &transaction, nil
}

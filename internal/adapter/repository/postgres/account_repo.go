package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = `id, wallet_id, type, balance, last_transaction_id, version, updated_at`

// GetOrCreate reads the (wallet, type) account inside tx, inserting a
// zero-balance row at version 0 if absent. The insert races are settled by the
// unique (wallet_id, type) constraint; the follow-up read sees the winner.
func (r *AccountRepository) GetOrCreate(ctx context.Context, tx usecase.Tx, walletID string, accountType domain.AccountType) (*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()

	insert := `INSERT INTO wallet_accounts (id, wallet_id, type, balance, version, updated_at)
		VALUES ($1, $2, $3, 0, 0, $4)
		ON CONFLICT (wallet_id, type) DO NOTHING`

	if _, err := pgxTx.Exec(ctx, insert, accountID(walletID, accountType), walletID, string(accountType), time.Now().UTC()); err != nil {
		return nil, err
	}

	query := `SELECT ` + accountColumns + ` FROM wallet_accounts WHERE wallet_id = $1 AND type = $2`

	return scanAccount(pgxTx.QueryRow(ctx, query, walletID, string(accountType)))
}

// Get retrieves an account by wallet and type.
func (r *AccountRepository) Get(ctx context.Context, walletID string, accountType domain.AccountType) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM wallet_accounts WHERE wallet_id = $1 AND type = $2`

	return scanAccount(r.pool.QueryRow(ctx, query, walletID, string(accountType)))
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM wallet_accounts WHERE id = $1`

	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

// ListByWallet lists every account of a wallet.
func (r *AccountRepository) ListByWallet(ctx context.Context, walletID string) ([]*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM wallet_accounts WHERE wallet_id = $1 ORDER BY type`

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// ConditionalUpdate advances the account to (balance, version+1) only if its
// persisted version still equals expectedVersion. Zero rows affected means a
// concurrent writer advanced it first.
func (r *AccountRepository) ConditionalUpdate(ctx context.Context, tx usecase.Tx, id string, expectedVersion int64, balance decimal.Decimal, lastTransactionID string, updatedAt time.Time) error {
	query := `UPDATE wallet_accounts
		SET balance = $1, last_transaction_id = $2, version = version + 1, updated_at = $3
		WHERE id = $4 AND version = $5`

	numeric, err := decimalToNumeric(balance)
	if err != nil {
		return err
	}

	tag, err := tx.(*Tx).PgxTx().Exec(ctx, query,
		numeric, lastTransactionID, updatedAt, id, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}

	return nil
}

// accountID derives a stable account ID so concurrent lazy creations converge
// on the same row.
func accountID(walletID string, accountType domain.AccountType) string {
	return walletID + ":" + string(accountType)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account  domain.Account
		accType  string
		balance  pgtype.Numeric
		lastTxID *string
	)

	err := row.Scan(&account.ID, &account.WalletID, &accType, &balance,
		&lastTxID, &account.Version, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	account.Type = domain.AccountType(accType)
	account.Balance = numericToDecimal(balance)
	account.LastTransactionID = lastTxID

	return &account, nil
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var n pgtype.Numeric

	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, fmt.Errorf("convert %s to numeric: %w", d, err)
	}

	return n, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

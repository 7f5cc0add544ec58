package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/usecase"
)

// WalletRepository implements usecase.WalletRepository.
type WalletRepository struct {
	pool Pool
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

const walletColumns = `id, tenant_id, currency, status, metadata, created_at, updated_at`

// Create inserts a new wallet inside tx. The tenant uniqueness constraint
// rejects a second wallet for the same tenant.
func (r *WalletRepository) Create(ctx context.Context, tx usecase.Tx, wallet *domain.Wallet) error {
	metadata, err := json.Marshal(wallet.Metadata)
	if err != nil {
		return err
	}

	query := `INSERT INTO wallets (id, tenant_id, currency, status, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.(*Tx).PgxTx().Exec(ctx, query,
		wallet.ID, wallet.TenantID, wallet.Currency, string(wallet.Status),
		metadata, wallet.CreatedAt, wallet.UpdatedAt,
	)

	return err
}

// GetByTenant retrieves the tenant's wallet.
func (r *WalletRepository) GetByTenant(ctx context.Context, tenantID string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE tenant_id = $1`

	return scanWallet(r.pool.QueryRow(ctx, query, tenantID))
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	return scanWallet(r.pool.QueryRow(ctx, query, id))
}

// UpdateStatus updates the wallet status inside tx.
func (r *WalletRepository) UpdateStatus(ctx context.Context, tx usecase.Tx, id string, status domain.WalletStatus, updatedAt time.Time) error {
	query := `UPDATE wallets SET status = $1, updated_at = $2 WHERE id = $3`

	tag, err := tx.(*Tx).PgxTx().Exec(ctx, query, string(status), updatedAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWalletNotFound
	}

	return nil
}

// List lists wallets with pagination.
func (r *WalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets ORDER BY created_at LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []*domain.Wallet
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}

	return wallets, rows.Err()
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var (
		wallet   domain.Wallet
		status   string
		metadata []byte
	)

	err := row.Scan(&wallet.ID, &wallet.TenantID, &wallet.Currency, &status,
		&metadata, &wallet.CreatedAt, &wallet.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	wallet.Status = domain.WalletStatus(status)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &wallet.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal wallet metadata: %w", err)
		}
	}

	return &wallet, nil
}

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/usecase"
	"github.com/iho/walletd/internal/usecase/mocks"
)

type walletFixture struct {
	store       *mocks.MockStore
	walletRepo  *mocks.MockWalletRepository
	accountRepo *mocks.MockAccountRepository
	cache       *mocks.MockCache
	wallets     *usecase.WalletUseCase
}

func newWalletFixture() *walletFixture {
	store := mocks.NewMockStore()
	f := &walletFixture{
		store:       store,
		walletRepo:  mocks.NewMockWalletRepository(store),
		accountRepo: mocks.NewMockAccountRepository(store),
		cache:       mocks.NewMockCache(),
	}
	f.wallets = usecase.NewWalletUseCase(
		mocks.NewMockTxManager(store),
		f.walletRepo,
		f.accountRepo,
		mocks.NewMockOutboxRepository(store),
		f.cache,
		mocks.NewMockIDGenerator(),
		nil,
		zerolog.Nop(),
	)

	return f
}

func TestWalletUseCase_EnsureWallet(t *testing.T) {
	f := newWalletFixture()
	ctx := context.Background()

	wallet, err := f.wallets.EnsureWallet(ctx, "tenant-1", "")
	if err != nil {
		t.Fatalf("provisioning failed: %v", err)
	}
	if wallet.Currency != "USD" {
		t.Errorf("expected default currency USD, got %s", wallet.Currency)
	}
	if wallet.Status != domain.WalletStatusActive {
		t.Errorf("expected active wallet, got %s", wallet.Status)
	}

	accounts, err := f.wallets.ListAccounts(ctx, "tenant-1")
	if err != nil {
		t.Fatalf("listing accounts failed: %v", err)
	}
	if len(accounts) != len(domain.AccountTypes()) {
		t.Errorf("expected %d accounts, got %d", len(domain.AccountTypes()), len(accounts))
	}
	for _, account := range accounts {
		if !account.Balance.Equal(decimal.Zero) {
			t.Errorf("account %s provisioned with balance %s", account.Type, account.Balance)
		}
	}

	events := f.store.Events()
	if len(events) != 1 || events[0].EventType != domain.EventTypeWalletProvisioned {
		t.Errorf("expected a single provisioned event, got %d events", len(events))
	}

	// Second call is a read, not a second provisioning.
	again, err := f.wallets.EnsureWallet(ctx, "tenant-1", "EUR")
	if err != nil {
		t.Fatalf("re-ensure failed: %v", err)
	}
	if again.ID != wallet.ID {
		t.Error("re-ensure provisioned a second wallet")
	}
	if again.Currency != "USD" {
		t.Error("re-ensure changed the wallet currency")
	}
}

func TestWalletUseCase_EnsureWalletInvalidCurrency(t *testing.T) {
	f := newWalletFixture()

	if _, err := f.wallets.EnsureWallet(context.Background(), "tenant-1", "DOGE"); err == nil {
		t.Fatal("expected currency validation error")
	}
}

func TestWalletUseCase_EnsureWalletLosesProvisioningRace(t *testing.T) {
	f := newWalletFixture()
	ctx := context.Background()

	winner := f.store.SeedWallet("tenant-1")

	// The initial read misses, then the insert collides with the concurrent
	// winner's committed row.
	missed := false
	f.walletRepo.GetByTenantFunc = func(ctx context.Context, tenantID string) (*domain.Wallet, error) {
		if !missed {
			missed = true
			return nil, domain.ErrWalletNotFound
		}
		f.walletRepo.GetByTenantFunc = nil

		return f.walletRepo.GetByTenant(ctx, tenantID)
	}
	f.walletRepo.CreateFunc = func(ctx context.Context, tx usecase.Tx, wallet *domain.Wallet) error {
		return fmt.Errorf("duplicate key value violates unique constraint %q", "wallets_tenant_id_key")
	}

	wallet, err := f.wallets.EnsureWallet(ctx, "tenant-1", "USD")
	if err != nil {
		t.Fatalf("expected the loser to adopt the winner's wallet: %v", err)
	}
	if wallet.ID != winner.ID {
		t.Errorf("expected wallet %s, got %s", winner.ID, wallet.ID)
	}
}

func TestWalletUseCase_GetBalance(t *testing.T) {
	f := newWalletFixture()
	wallet := f.store.SeedWallet("tenant-1")
	f.store.SeedAccount(wallet.ID, domain.AccountTypeMainBalance, decimal.RequireFromString("42.75"))
	ctx := context.Background()

	balance, err := f.wallets.GetBalance(ctx, "tenant-1", domain.AccountTypeMainBalance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("42.75")) {
		t.Errorf("expected 42.75, got %s", balance)
	}

	// The read populated the cache; a poisoned repository proves the second
	// read is served from it.
	f.accountRepo.GetFunc = func(ctx context.Context, walletID string, accountType domain.AccountType) (*domain.Account, error) {
		t.Error("cached read hit the repository")
		return nil, domain.ErrAccountNotFound
	}

	balance, err = f.wallets.GetBalance(ctx, "tenant-1", domain.AccountTypeMainBalance)
	if err != nil {
		t.Fatalf("cached read failed: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("42.75")) {
		t.Errorf("expected cached 42.75, got %s", balance)
	}
}

func TestWalletUseCase_GetBalanceMissingAccountIsZero(t *testing.T) {
	f := newWalletFixture()
	f.store.SeedWallet("tenant-1")

	balance, err := f.wallets.GetBalance(context.Background(), "tenant-1", domain.AccountTypeEscrow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(decimal.Zero) {
		t.Errorf("expected zero balance for lazily created account, got %s", balance)
	}
}

func TestWalletUseCase_GetBalanceInvalidType(t *testing.T) {
	f := newWalletFixture()
	f.store.SeedWallet("tenant-1")

	if _, err := f.wallets.GetBalance(context.Background(), "tenant-1", "crypto"); !errors.Is(err, domain.ErrInvalidAccountType) {
		t.Errorf("expected ErrInvalidAccountType, got %v", err)
	}
}

func TestWalletUseCase_SetStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.WalletStatus
		wantErr error
	}{
		{name: "suspend", status: domain.WalletStatusSuspended},
		{name: "lock", status: domain.WalletStatusLocked},
		{name: "reactivate", status: domain.WalletStatusActive},
		{name: "unknown status", status: "frozen", wantErr: domain.ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWalletFixture()
			f.store.SeedWallet("tenant-1")

			wallet, err := f.wallets.SetStatus(context.Background(), "tenant-1", tt.status)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if wallet.Status != tt.status {
				t.Errorf("expected status %s, got %s", tt.status, wallet.Status)
			}
		})
	}
}

func TestWalletUseCase_SetStatusEmitsEvent(t *testing.T) {
	f := newWalletFixture()
	f.store.SeedWallet("tenant-1")

	if _, err := f.wallets.SetStatus(context.Background(), "tenant-1", domain.WalletStatusLocked); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := f.store.Events()
	if len(events) != 1 || events[0].EventType != domain.EventTypeWalletStatusChanged {
		t.Fatalf("expected a status-changed event, got %d events", len(events))
	}
	if events[0].Payload["new_status"] != string(domain.WalletStatusLocked) {
		t.Errorf("unexpected payload: %v", events[0].Payload)
	}
}

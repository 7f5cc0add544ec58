package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/walletd/internal/domain"
	"github.com/iho/walletd/internal/usecase"
	"github.com/iho/walletd/internal/usecase/mocks"
)

func newAllocationFixture() (*ledgerFixture, *usecase.AllocationUseCase) {
	f := newLedgerFixture()
	return f, usecase.NewAllocationUseCase(f.ledger, zerolog.Nop())
}

func TestAllocationUseCase_Allocate(t *testing.T) {
	f, alloc := newAllocationFixture()
	reseller := f.store.SeedWallet("reseller-1")
	f.store.SeedWallet("customer-1")
	source := f.store.SeedAccount(reseller.ID, domain.AccountTypeBonusCredits, decimal.NewFromInt(1000))
	ctx := context.Background()

	result, err := alloc.Allocate(ctx, usecase.AllocateInput{
		FromTenantID:   "reseller-1",
		ToTenantID:     "customer-1",
		Amount:         decimal.NewFromInt(250),
		IdempotencyKey: "alloc-9",
	})
	if err != nil {
		t.Fatalf("allocation failed: %v", err)
	}

	if !f.store.Account(source.ID).Balance.Equal(decimal.NewFromInt(750)) {
		t.Errorf("source balance %s, want 750", f.store.Account(source.ID).Balance)
	}
	if !f.store.Account(result.In.AccountID).Balance.Equal(decimal.NewFromInt(250)) {
		t.Errorf("destination balance %s, want 250", f.store.Account(result.In.AccountID).Balance)
	}
	if result.Out.TenantID != "reseller-1" || result.In.TenantID != "customer-1" {
		t.Error("allocation legs recorded against the wrong tenants")
	}

	// Replay moves nothing.
	again, err := alloc.Allocate(ctx, usecase.AllocateInput{
		FromTenantID:   "reseller-1",
		ToTenantID:     "customer-1",
		Amount:         decimal.NewFromInt(250),
		IdempotencyKey: "alloc-9",
	})
	if err != nil {
		t.Fatalf("replayed allocation failed: %v", err)
	}
	if again.Out.ID != result.Out.ID || again.In.ID != result.In.ID {
		t.Error("replayed allocation produced new transactions")
	}
	if !f.store.Account(source.ID).Balance.Equal(decimal.NewFromInt(750)) {
		t.Error("replayed allocation moved funds twice")
	}
}

func TestAllocationUseCase_Guards(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.AllocateInput
		wantErr error
	}{
		{
			name: "same tenant",
			input: usecase.AllocateInput{
				FromTenantID:   "reseller-1",
				ToTenantID:     "reseller-1",
				Amount:         decimal.NewFromInt(10),
				IdempotencyKey: "k",
			},
			wantErr: domain.ErrSameTenant,
		},
		{
			name: "missing idempotency key",
			input: usecase.AllocateInput{
				FromTenantID: "reseller-1",
				ToTenantID:   "customer-1",
				Amount:       decimal.NewFromInt(10),
			},
			wantErr: domain.ErrIdempotencyKeyRequired,
		},
		{
			name: "insufficient source funds",
			input: usecase.AllocateInput{
				FromTenantID:   "reseller-1",
				ToTenantID:     "customer-1",
				Amount:         decimal.NewFromInt(5000),
				IdempotencyKey: "k2",
			},
			wantErr: domain.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, alloc := newAllocationFixture()
			reseller := f.store.SeedWallet("reseller-1")
			f.store.SeedWallet("customer-1")
			f.store.SeedAccount(reseller.ID, domain.AccountTypeBonusCredits, decimal.NewFromInt(100))

			if _, err := alloc.Allocate(context.Background(), tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAllocationUseCase_RetryAfterFailedCreditConverges(t *testing.T) {
	f, alloc := newAllocationFixture()
	reseller := f.store.SeedWallet("reseller-1")
	f.store.SeedWallet("customer-1")
	source := f.store.SeedAccount(reseller.ID, domain.AccountTypeBonusCredits, decimal.NewFromInt(100))
	ctx := context.Background()

	injected := errors.New("storage unavailable")
	failed := false
	f.txRepo.AppendFunc = func(ctx context.Context, tx usecase.Tx, transaction *domain.Transaction) error {
		if !failed && transaction.TenantID == "customer-1" {
			failed = true
			return injected
		}
		return (&mocks.MockTransactionRepository{Store: f.store}).Append(ctx, tx, transaction)
	}

	input := usecase.AllocateInput{
		FromTenantID:   "reseller-1",
		ToTenantID:     "customer-1",
		Amount:         decimal.NewFromInt(40),
		IdempotencyKey: "alloc-fail",
	}

	_, err := alloc.Allocate(ctx, input)
	if !errors.Is(err, injected) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if got := f.store.Account(source.ID).Balance; !got.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("source balance after failed allocation: %s, want 60 (debit stands)", got)
	}

	// A retry with the same key replays the debit and completes the credit.
	result, err := alloc.Allocate(ctx, input)
	if err != nil {
		t.Fatalf("retried allocation failed: %v", err)
	}

	sourceBal := f.store.Account(source.ID).Balance
	destBal := f.store.Account(result.In.AccountID).Balance
	if !sourceBal.Equal(decimal.NewFromInt(60)) {
		t.Errorf("source balance after retry: %s, want 60", sourceBal)
	}
	if !destBal.Equal(decimal.NewFromInt(40)) {
		t.Errorf("destination balance after retry: %s, want 40", destBal)
	}
	if total := sourceBal.Add(destBal); !total.Equal(decimal.NewFromInt(100)) {
		t.Errorf("total across tenants after retry: %s, want 100", total)
	}
}

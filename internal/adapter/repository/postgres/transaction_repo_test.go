package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/walletd/internal/domain"
)

func transactionColumnNames() []string {
	return []string{"id", "tenant_id", "account_id", "direction", "amount", "balance_before", "balance_after",
		"reference_type", "reference_id", "idempotency_key", "description", "metadata",
		"hash", "previous_transaction_id", "created_at"}
}

func sampleTransaction() *domain.Transaction {
	key := "op-1"

	return &domain.Transaction{
		ID:             "tx-1",
		TenantID:       "tenant-1",
		AccountID:      "acc-1",
		Direction:      domain.DirectionDebit,
		Amount:         decimal.RequireFromString("120.5"),
		BalanceBefore:  decimal.RequireFromString("500"),
		BalanceAfter:   decimal.RequireFromString("379.5"),
		ReferenceType:  "order",
		ReferenceID:    "77",
		IdempotencyKey: &key,
		Hash:           "abc123",
		CreatedAt:      time.Now().UTC(),
	}
}

func TestTransactionRepositoryAppend(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginTx(t, mockPool)

	mockPool.ExpectExec("INSERT INTO wallet_transactions").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mockPool.ExpectCommit()

	repo := NewTransactionRepository(mockPool)
	if err := repo.Append(context.Background(), tx, sampleTransaction()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestTransactionRepositoryAppendDuplicateKey(t *testing.T) {
	mockPool := newMockPool(t)
	tx := beginTx(t, mockPool)

	mockPool.ExpectExec("INSERT INTO wallet_transactions").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "wallet_transactions_idempotency_key_key"})

	repo := NewTransactionRepository(mockPool)
	err := repo.Append(context.Background(), tx, sampleTransaction())
	if !errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
		t.Fatalf("expected ErrDuplicateIdempotencyKey, got %v", err)
	}
}

func TestTransactionRepositoryGetByIdempotencyKey(t *testing.T) {
	mockPool := newMockPool(t)
	want := sampleTransaction()

	mockPool.ExpectQuery("SELECT (.+) FROM wallet_transactions").
		WithArgs("op-1").
		WillReturnRows(pgxmock.NewRows(transactionColumnNames()).AddRow(
			want.ID, want.TenantID, want.AccountID, string(want.Direction),
			mustNumeric(t, want.Amount), mustNumeric(t, want.BalanceBefore), mustNumeric(t, want.BalanceAfter),
			want.ReferenceType, want.ReferenceID, want.IdempotencyKey, want.Description, []byte(nil),
			want.Hash, want.PreviousTransactionID, want.CreatedAt,
		))

	repo := NewTransactionRepository(mockPool)
	got, err := repo.GetByIdempotencyKey(context.Background(), "op-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.ID != want.ID || got.Hash != want.Hash {
		t.Fatalf("unexpected transaction: %+v", got)
	}
	if !got.Amount.Equal(want.Amount) || !got.BalanceAfter.Equal(want.BalanceAfter) {
		t.Fatalf("amounts did not survive the round trip: %+v", got)
	}

	assertExpectations(t, mockPool)
}

func TestTransactionRepositoryGetByIDNotFound(t *testing.T) {
	mockPool := newMockPool(t)

	mockPool.ExpectQuery("SELECT (.+) FROM wallet_transactions").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(transactionColumnNames()))

	repo := NewTransactionRepository(mockPool)
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestTransactionRepositoryRejectsCorruptMetadata(t *testing.T) {
	mockPool := newMockPool(t)
	want := sampleTransaction()

	mockPool.ExpectQuery("SELECT (.+) FROM wallet_transactions").
		WithArgs(want.ID).
		WillReturnRows(pgxmock.NewRows(transactionColumnNames()).AddRow(
			want.ID, want.TenantID, want.AccountID, string(want.Direction),
			mustNumeric(t, want.Amount), mustNumeric(t, want.BalanceBefore), mustNumeric(t, want.BalanceAfter),
			want.ReferenceType, want.ReferenceID, want.IdempotencyKey, want.Description, []byte("{broken"),
			want.Hash, want.PreviousTransactionID, want.CreatedAt,
		))

	repo := NewTransactionRepository(mockPool)
	if _, err := repo.GetByID(context.Background(), want.ID); err == nil {
		t.Fatal("expected an error for corrupt metadata, got nil")
	}
}

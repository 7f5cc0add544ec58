package domain

import "errors"

var (
	// Wallet errors
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrWalletLocked    = errors.New("wallet is locked")
	ErrWalletSuspended = errors.New("wallet is suspended")
	ErrInvalidStatus   = errors.New("invalid wallet status")
	ErrInvalidCurrency = errors.New("invalid currency code")

	// Account errors
	ErrAccountNotFound    = errors.New("wallet account not found")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInsufficientFunds  = errors.New("insufficient funds")

	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrRetryExhausted      = errors.New("commit retries exhausted under contention")

	// Composite-operation errors
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrSameTenant             = errors.New("cannot allocate credits to the same tenant")

	// Commit-protocol errors, handled inside the engine's retry loop and
	// never surfaced to callers.
	ErrVersionConflict         = errors.New("account version conflict")
	ErrDuplicateIdempotencyKey = errors.New("idempotency key already reserved")
)

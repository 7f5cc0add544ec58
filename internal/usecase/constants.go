package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database
	// transaction. This prevents long-running transactions from blocking tables.
	DefaultTransactionTimeout = 10 * time.Second

	// MaxCommitAttempts bounds the optimistic-concurrency retry loop.
	MaxCommitAttempts = 5

	// ConflictBackoffInitial is the first wait after a version conflict.
	ConflictBackoffInitial = 20 * time.Millisecond

	// ConflictBackoffMax caps the wait between commit attempts.
	ConflictBackoffMax = 500 * time.Millisecond

	// BalanceCacheTTL is how long cached balances stay fresh.
	BalanceCacheTTL = 5 * time.Minute

	// ChainPageSize is how many records the verifier reads per page.
	ChainPageSize = 500
)

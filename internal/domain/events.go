package domain

import "time"

// Event types
const (
	EventTypeTransactionRecorded = "wallet.transaction.recorded"
	EventTypeWalletProvisioned   = "wallet.provisioned"
	EventTypeWalletStatusChanged = "wallet.status.changed"
)

// Aggregate types
const (
	AggregateTypeWallet      = "wallet"
	AggregateTypeTransaction = "wallet_transaction"
)

// OutboxEvent represents an event recorded in the same atomic unit as the
// change it describes, published asynchronously.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

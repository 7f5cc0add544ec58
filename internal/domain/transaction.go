package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction distinguishes the two ledger mutations.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// BalanceScale is the uniform fixed-point scale used across the balance
// store, the transaction log, and hash canonicalization.
const BalanceScale = 8

// GenesisHash seeds the hash chain for the first transaction of an account.
const GenesisHash = "genesis"

// Transaction is one accepted ledger mutation. Immutable once written;
// corrections are new compensating transactions, never edits.
type Transaction struct {
	ID                    string
	TenantID              string
	AccountID             string
	Direction             Direction
	Amount                decimal.Decimal
	BalanceBefore         decimal.Decimal
	BalanceAfter          decimal.Decimal
	ReferenceType         string
	ReferenceID           string
	IdempotencyKey        *string
	Description           string
	Metadata              map[string]any
	Hash                  string
	PreviousTransactionID *string
	CreatedAt             time.Time
}

// ComputeHash derives the chain hash for the transaction from its
// predecessor's hash. Amounts are rendered at the fixed balance scale so the
// digest does not depend on decimal normalization.
func (t *Transaction) ComputeHash(previousHash string) string {
	key := ""
	if t.IdempotencyKey != nil {
		key = *t.IdempotencyKey
	}

	data := strings.Join([]string{
		previousHash,
		t.AccountID,
		string(t.Direction),
		t.Amount.StringFixed(BalanceScale),
		t.BalanceBefore.StringFixed(BalanceScale),
		t.BalanceAfter.StringFixed(BalanceScale),
		key,
	}, "|")

	sum := sha256.Sum256([]byte(data))

	return hex.EncodeToString(sum[:])
}

// CheckArithmetic verifies balance-after against balance-before and amount.
func (t *Transaction) CheckArithmetic() bool {
	switch t.Direction {
	case DirectionCredit:
		return t.BalanceAfter.Equal(t.BalanceBefore.Add(t.Amount))
	case DirectionDebit:
		return t.BalanceAfter.Equal(t.BalanceBefore.Sub(t.Amount))
	default:
		return false
	}
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType names a sub-ledger within a wallet.
type AccountType string

const (
	AccountTypeMainBalance  AccountType = "main_balance"
	AccountTypeBonusCredits AccountType = "bonus_credits"
	AccountTypeEscrow       AccountType = "escrow"
	AccountTypeAICredits    AccountType = "ai_credits"
)

// AccountTypes returns every sub-ledger a wallet owns.
func AccountTypes() []AccountType {
	return []AccountType{
		AccountTypeMainBalance,
		AccountTypeBonusCredits,
		AccountTypeEscrow,
		AccountTypeAICredits,
	}
}

// ValidAccountType reports whether t is a known account type.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountTypeMainBalance, AccountTypeBonusCredits, AccountTypeEscrow, AccountTypeAICredits:
		return true
	}
	return false
}

// Account is one (wallet, type) balance row. The balance is mutated only by
// the ledger engine's commit step, guarded by the version counter. No account
// type permits overdraft.
type Account struct {
	ID                string
	WalletID          string
	Type              AccountType
	Balance           decimal.Decimal
	LastTransactionID *string
	Version           int64
	UpdatedAt         time.Time
}

// ValidateDebit checks that debiting amount keeps the balance non-negative.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.Sub(amount).IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns the balance after a debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after a credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}

package domain

import (
	"time"
)

// WalletStatus is the administrative state of a wallet.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "active"
	WalletStatusSuspended WalletStatus = "suspended"
	WalletStatusLocked    WalletStatus = "locked"
)

// Wallet is the per-tenant container for all balances. There is exactly one
// wallet per tenant; wallets are never deleted, only locked.
type Wallet struct {
	ID        string
	TenantID  string
	Currency  string
	Status    WalletStatus
	Metadata  map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransact reports whether the wallet accepts balance mutations.
func (w *Wallet) CanTransact() error {
	switch w.Status {
	case WalletStatusLocked:
		return ErrWalletLocked
	case WalletStatusSuspended:
		return ErrWalletSuspended
	default:
		return nil
	}
}

// ValidStatus reports whether s is a known wallet status.
func ValidStatus(s WalletStatus) bool {
	switch s {
	case WalletStatusActive, WalletStatusSuspended, WalletStatusLocked:
		return true
	}
	return false
}

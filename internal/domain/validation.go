package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxMetadataSize    = 10240 // 10KB
	MaxOperationAmount = "1000000000000"
	MaxReferenceLength = 120
)

// Valid wallet currency codes (ISO 4217).
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "INR": true,
	"JPY": true, "CNY": true, "AUD": true, "CAD": true,
	"SGD": true, "AED": true, "BRL": true, "ZAR": true,
}

// ValidateAmount checks that amount is strictly positive, representable at
// the fixed balance scale, and within the operation ceiling.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if amount.Exponent() < -BalanceScale {
		return fmt.Errorf("%w: more than %d fractional digits", ErrInvalidAmount, BalanceScale)
	}

	maxAmount, _ := decimal.NewFromString(MaxOperationAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxOperationAmount)
	}

	return nil
}

// ValidateCurrency validates a wallet currency code.
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a supported ISO 4217 code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateReference checks the reference type/id pair attached to an
// operation.
func ValidateReference(refType, refID string) error {
	if len(refType) > MaxReferenceLength || len(refID) > MaxReferenceLength {
		return fmt.Errorf("reference exceeds %d characters", MaxReferenceLength)
	}

	return nil
}

// ValidateMetadata validates metadata size.
func ValidateMetadata(metadata map[string]any) error {
	if metadata == nil {
		return nil
	}

	// Estimate size (rough approximation)
	size := 0
	for k, v := range metadata {
		size += len(k)
		size += len(fmt.Sprintf("%v", v))
	}

	if size > MaxMetadataSize {
		return fmt.Errorf("metadata size %d bytes exceeds limit of %d bytes", size, MaxMetadataSize)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

package orderkuota

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/takutakahashi/orderkuota-proxy/pkg/upstream"
)

// Provider endpoints, relative to the API base URL
const (
	PathLogin = "/login"
	PathGet   = "/get"
)

// Credentials identifies an authenticated provider account
type Credentials struct {
	Username string
	Token    string
}

// Complete reports whether both username and token are present
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Token != ""
}

// TransactionKind filters the QRIS transaction history
type TransactionKind string

const (
	TransactionKindAll    TransactionKind = ""
	TransactionKindKredit TransactionKind = "kredit"
	TransactionKindDebet  TransactionKind = "debet"
)

// ParseTransactionKind validates a history filter. Empty means all.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch kind := TransactionKind(strings.ToLower(strings.TrimSpace(s))); kind {
	case TransactionKindAll, TransactionKindKredit, TransactionKindDebet:
		return kind, nil
	}
	return "", upstream.Errorf(upstream.KindInvalidInput, "invalid transaction type %q: must be kredit, debet or empty", s)
}

// ParseAmount parses a withdrawal amount. The amount must be a finite,
// positive number no larger than MaxAmount with at most MaxAmountScale
// decimal places.
func ParseAmount(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, upstream.NewError(upstream.KindInvalidInput, "amount is required")
	}

	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, &upstream.Error{
			Kind:    upstream.KindInvalidInput,
			Message: "valid amount is required for withdrawal",
			Err:     err,
		}
	}
	if err := validateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// Withdrawal amount bounds. Exponents are checked before any arithmetic,
// since rescaling a value like 1e50000000 is itself expensive.
const (
	MaxAmountScale    = 2
	maxAmountExponent = 12
	minAmountExponent = -18
)

// MaxAmount is the largest accepted withdrawal
var MaxAmount = decimal.New(1, maxAmountExponent)

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return upstream.NewError(upstream.KindInvalidInput, "valid amount is required for withdrawal")
	}
	tooLarge := upstream.Errorf(upstream.KindInvalidInput, "amount must not exceed %s", MaxAmount.String())
	tooPrecise := upstream.Errorf(upstream.KindInvalidInput, "amount must have at most %d decimal places", MaxAmountScale)

	exp := amount.Exponent()
	if exp > maxAmountExponent {
		return tooLarge
	}
	if exp < minAmountExponent {
		return tooPrecise
	}
	if amount.GreaterThan(MaxAmount) {
		return tooLarge
	}
	if !amount.Round(MaxAmountScale).Equal(amount) {
		return tooPrecise
	}
	return nil
}

// Package valueobjects contains immutable value objects that represent domain concepts
// without identity. They are compared by their values, not by identity.
//
// SOLID Principles Applied:
// - SRP: Currency only handles currency representation
// - OCP: Can extend supported currencies without modifying existing code
// - LSP: All currencies are interchangeable as Currency type
package valueobjects

import (
	"errors"
	"strings"
)

// Currency represents a wallet currency code. Unlike a closed ISO-4217
// whitelist, any business may mint wallets in currencies it discovers through
// its own ledger, so the only validation performed here is shape: non-empty,
// uppercase, no whitespace.
//
// Value Object Pattern: No identity, compared by value, immutable.
type Currency struct {
	code string // Private field ensures immutability
}

// None is the sentinel currency used by wallets that have not yet
// transacted in any currency (main_currency = "none" in the wire format).
var None = Currency{code: "none"}

// ErrInvalidCurrency is returned when an invalid currency code is provided.
var ErrInvalidCurrency = errors.New("invalid currency code")

// NewCurrency creates a new Currency value object with shape validation.
// Factory function pattern ensures all Currency instances are well-formed.
func NewCurrency(code string) (Currency, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Currency{}, ErrInvalidCurrency
	}
	if strings.EqualFold(code, "none") {
		return None, nil
	}
	if strings.ContainsAny(code, " \t\n") {
		return Currency{}, ErrInvalidCurrency
	}
	return Currency{code: strings.ToUpper(code)}, nil
}

// MustNewCurrency is a convenience function that panics on invalid input.
// Use only in initialization code where invalid input indicates a programming error.
func MustNewCurrency(code string) Currency {
	curr, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return curr
}

// Code returns the currency code.
func (c Currency) Code() string {
	return c.code
}

// Equals checks if two currencies are the same.
// Value objects are compared by value, not by reference.
func (c Currency) Equals(other Currency) bool {
	return c.code == other.code
}

// String implements fmt.Stringer interface for readable output.
func (c Currency) String() string {
	return c.code
}

// IsNone reports whether this is the "no currency yet" sentinel.
func (c Currency) IsNone() bool {
	return c.code == "" || c.code == "none"
}

// IsZero checks if this is an uninitialized currency.
func (c Currency) IsZero() bool {
	return c.code == ""
}

// Package valueobjects - Decimal is the exact-arithmetic numeric type backing
// every amount and balance in the ledger. It combines a signed amount with a
// currency to prevent common bugs like mixing currencies.
//
// SOLID Principles:
// - SRP: Decimal knows how to be Decimal (arithmetic, comparison, validation)
// - OCP: Can extend with new operations without modifying existing code
// - LSP: All Decimal instances follow the same contract
package valueobjects

import (
	"errors"
	"fmt"
	"math/big"
)

// Decimal represents a signed monetary amount with its currency.
// Uses big.Rat for arbitrary precision to avoid floating-point errors.
//
// Value Object Pattern:
// - Immutable: All operations return new Decimal instances
// - Self-validating: Cannot create invalid Decimal
// - Type-safe: Prevents mixing currencies
//
// Why big.Rat?
// - Avoids floating-point precision issues (0.1 + 0.2 != 0.3)
// - Exact decimal representation with no implicit rounding, required by
//   the balance-chain and amount-sum invariants of the ledger.
type Decimal struct {
	amount   *big.Rat // Arbitrary precision rational number; may be signed
	currency Currency
}

// Common domain errors for Decimal operations
var (
	ErrCurrencyMismatch = errors.New("cannot operate on different currencies")
	ErrInvalidAmount    = errors.New("invalid amount format")
)

// NewDecimal creates a Decimal instance from a string amount.
// The amount is parsed as a decimal (e.g., "100.50", "-0.001") and may be
// negative — unlike a Money type, ledger amounts and participant deltas are
// signed by design.
func NewDecimal(amountStr string, currency Currency) (Decimal, error) {
	amount := new(big.Rat)
	if _, ok := amount.SetString(amountStr); !ok {
		return Decimal{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amountStr)
	}
	return Decimal{amount: amount, currency: currency}, nil
}

// NewDecimalFromInt creates a Decimal from an integer amount.
func NewDecimalFromInt(amount int64, currency Currency) Decimal {
	return Decimal{amount: big.NewRat(amount, 1), currency: currency}
}

// Zero creates a zero-amount Decimal for the given currency.
func Zero(currency Currency) Decimal {
	return Decimal{amount: big.NewRat(0, 1), currency: currency}
}

// Currency returns the currency of this amount.
func (d Decimal) Currency() Currency {
	return d.currency
}

// Rat returns the amount as a big.Rat. Returns a copy to preserve immutability.
func (d Decimal) Rat() *big.Rat {
	return new(big.Rat).Set(d.amount)
}

// String returns a human-readable representation, e.g. "-100.50000000 USD"
// (always 8 decimal places).
func (d Decimal) String() string {
	return fmt.Sprintf("%s %s", d.amount.FloatString(8), d.currency.Code())
}

// Float64 returns the amount as float64.
// WARNING: Use only for display purposes, never for ledger calculations.
func (d Decimal) Float64() float64 {
	f, _ := d.amount.Float64()
	return f
}

// Add returns a new Decimal with the sum of two amounts.
// IMMUTABLE: Returns new instance, doesn't modify receiver.
func (d Decimal) Add(other Decimal) (Decimal, error) {
	if !d.currency.Equals(other.currency) {
		return Decimal{}, ErrCurrencyMismatch
	}
	sum := new(big.Rat).Add(d.amount, other.amount)
	return Decimal{amount: sum, currency: d.currency}, nil
}

// Sub returns a new Decimal with the difference; may be negative.
func (d Decimal) Sub(other Decimal) (Decimal, error) {
	if !d.currency.Equals(other.currency) {
		return Decimal{}, ErrCurrencyMismatch
	}
	diff := new(big.Rat).Sub(d.amount, other.amount)
	return Decimal{amount: diff, currency: d.currency}, nil
}

// Neg returns the additive inverse.
func (d Decimal) Neg() Decimal {
	return Decimal{amount: new(big.Rat).Neg(d.amount), currency: d.currency}
}

// IsZero returns true if the amount is zero.
func (d Decimal) IsZero() bool {
	return d.amount.Sign() == 0
}

// IsPositive returns true if the amount is strictly greater than zero.
func (d Decimal) IsPositive() bool {
	return d.amount.Sign() > 0
}

// IsNegative returns true if the amount is strictly less than zero.
func (d Decimal) IsNegative() bool {
	return d.amount.Sign() < 0
}

// Cmp compares two same-currency Decimals: -1, 0, 1.
func (d Decimal) Cmp(other Decimal) (int, error) {
	if !d.currency.Equals(other.currency) {
		return 0, ErrCurrencyMismatch
	}
	return d.amount.Cmp(other.amount), nil
}

// GreaterThanOrEqual checks if this amount is >= another, same currency.
func (d Decimal) GreaterThanOrEqual(other Decimal) (bool, error) {
	cmp, err := d.Cmp(other)
	if err != nil {
		return false, err
	}
	return cmp >= 0, nil
}

// Equals checks if two amounts are equal (amount and currency).
func (d Decimal) Equals(other Decimal) bool {
	return d.currency.Equals(other.currency) && d.amount.Cmp(other.amount) == 0
}

// Abs returns the absolute value.
func (d Decimal) Abs() Decimal {
	return Decimal{amount: new(big.Rat).Abs(d.amount), currency: d.currency}
}

package valueobjects

import "fmt"

// Balance is a discriminated union: a wallet's balance in a currency is
// either a finite Decimal or Unbounded (the app_income wallet's configured
// currency, which must never constrain an outbound transfer). Representing
// infinity as a sentinel type, rather than teaching Decimal to carry a
// non-finite big.Rat, keeps every arithmetic path on Decimal exact and makes
// the unbounded case an explicit, serializable branch instead of a special
// value threaded through comparisons.
type Balance struct {
	unbounded bool
	finite    Decimal
}

// FiniteBalance wraps a concrete Decimal balance.
func FiniteBalance(d Decimal) Balance {
	return Balance{finite: d}
}

// UnboundedBalance returns the +∞ balance for the given currency.
func UnboundedBalance(currency Currency) Balance {
	return Balance{unbounded: true, finite: Zero(currency)}
}

// IsUnbounded reports whether this balance is +∞.
func (b Balance) IsUnbounded() bool {
	return b.unbounded
}

// Currency returns the currency this balance is denominated in.
func (b Balance) Currency() Currency {
	return b.finite.Currency()
}

// Finite returns the underlying Decimal and whether the balance is finite.
// Callers must check the second return value before using the first.
func (b Balance) Finite() (Decimal, bool) {
	if b.unbounded {
		return Decimal{}, false
	}
	return b.finite, true
}

// GreaterThanOrEqual reports whether this balance can cover `need`.
// Unbounded always covers any finite need.
func (b Balance) GreaterThanOrEqual(need Decimal) (bool, error) {
	if b.unbounded {
		return true, nil
	}
	return b.finite.GreaterThanOrEqual(need)
}

// Sub subtracts a finite Decimal from this balance. Unbounded minus anything
// finite stays Unbounded.
func (b Balance) Sub(amount Decimal) (Balance, error) {
	if b.unbounded {
		return b, nil
	}
	diff, err := b.finite.Sub(amount)
	if err != nil {
		return Balance{}, err
	}
	return FiniteBalance(diff), nil
}

// String renders "∞ USD" or the finite decimal string.
func (b Balance) String() string {
	if b.unbounded {
		return fmt.Sprintf("∞ %s", b.finite.Currency().Code())
	}
	return b.finite.String()
}

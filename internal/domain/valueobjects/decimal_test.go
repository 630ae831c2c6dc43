package valueobjects_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

func TestNewDecimal_AllowsNegative(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	d, err := valueobjects.NewDecimal("-100.50", usd)
	require.NoError(t, err)
	assert.True(t, d.IsNegative())
}

func TestNewDecimal_InvalidFormat(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	_, err := valueobjects.NewDecimal("not-a-number", usd)
	assert.ErrorIs(t, err, valueobjects.ErrInvalidAmount)
}

func TestDecimal_AddSub_CurrencyMismatch(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	eur := valueobjects.MustNewCurrency("EUR")
	a := valueobjects.NewDecimalFromInt(10, usd)
	b := valueobjects.NewDecimalFromInt(5, eur)

	_, err := a.Add(b)
	assert.ErrorIs(t, err, valueobjects.ErrCurrencyMismatch)

	_, err = a.Sub(b)
	assert.ErrorIs(t, err, valueobjects.ErrCurrencyMismatch)
}

func TestDecimal_BalanceChaining(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	balance := valueobjects.Zero(usd)

	amounts := []int64{100, -30, 50, -120}
	for _, a := range amounts {
		balance, _ = balance.Add(valueobjects.NewDecimalFromInt(a, usd))
	}

	assert.True(t, balance.Equals(valueobjects.NewDecimalFromInt(0, usd)))
}

func TestDecimal_Neg_Abs(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	d := valueobjects.NewDecimalFromInt(-42, usd)
	assert.True(t, d.Neg().IsPositive())
	assert.True(t, d.Abs().Equals(valueobjects.NewDecimalFromInt(42, usd)))
}

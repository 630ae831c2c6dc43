package valueobjects_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/wallethub/internal/domain/valueobjects"
)

func TestBalance_UnboundedAlwaysCovers(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	b := valueobjects.UnboundedBalance(usd)

	ok, err := b.GreaterThanOrEqual(valueobjects.NewDecimalFromInt(1_000_000, usd))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, b.IsUnbounded())
}

func TestBalance_UnboundedSubStaysUnbounded(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	b := valueobjects.UnboundedBalance(usd)

	after, err := b.Sub(valueobjects.NewDecimalFromInt(500, usd))
	require.NoError(t, err)
	assert.True(t, after.IsUnbounded())
}

func TestBalance_FiniteArithmetic(t *testing.T) {
	usd := valueobjects.MustNewCurrency("USD")
	b := valueobjects.FiniteBalance(valueobjects.NewDecimalFromInt(100, usd))

	after, err := b.Sub(valueobjects.NewDecimalFromInt(80, usd))
	require.NoError(t, err)

	finite, ok := after.Finite()
	require.True(t, ok)
	assert.True(t, finite.Equals(valueobjects.NewDecimalFromInt(20, usd)))
}

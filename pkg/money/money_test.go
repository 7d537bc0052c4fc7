package money

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFromFloatRejectsInvalidAmounts(t *testing.T) {
	for _, amount := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := FromFloat(amount)
		require.ErrorIs(t, err, ErrInvalidAmount, "amount %v", amount)
	}
}

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"299.00", 29900},
		{"299", 29900},
		{"0.01", 1},
		{"10.005", 1001},
		{"499.99", 49999},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ToMinorUnits(decimal.RequireFromString(tc.amount)), tc.amount)
	}
}

func TestFromFloatRoundTrip(t *testing.T) {
	amount, err := FromFloat(299.0)
	require.NoError(t, err)
	require.Equal(t, int64(29900), ToMinorUnits(amount))
	require.True(t, FromMinorUnits(29900).Equal(decimal.RequireFromString("299")))
}

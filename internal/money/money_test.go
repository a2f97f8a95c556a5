package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"stockfolio/internal/money"
)

func TestFixed(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1005.00", money.Fixed(decimal.NewFromInt(1005)))
	require.Equal(t, "0.13", money.Fixed(decimal.RequireFromString("0.125")))
	require.Equal(t, "-955.00", money.Fixed(decimal.NewFromInt(-955)))
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1234.5", "USD", "$1,234.50"},
		{"245", "", "$245.00"},
		{"-955", "USD", "-$955.00"},
		{"1.005", "USD", "$1.01"},
		{"12", "XYZ", "12.00 XYZ"},
	}
	for _, tt := range tests {
		t.Run(tt.amount+tt.currency, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, money.Format(decimal.RequireFromString(tt.amount), tt.currency))
		})
	}
}

func TestSigned(t *testing.T) {
	t.Parallel()

	require.Equal(t, "+$245.00", money.Signed(decimal.NewFromInt(245), "USD"))
	require.Equal(t, "$0.00", money.Signed(decimal.Zero, "USD"))
}

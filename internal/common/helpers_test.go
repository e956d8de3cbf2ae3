package common

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "0.024981836", LamportsToSOL(24981836))
	assert.Equal(t, "1.000000000", LamportsToSOL(1_000_000_000))
	assert.Equal(t, "0.000000", FormatUnits(0, 6))
	assert.Equal(t, "12.345678", FormatUnits(12345678, 6))
	assert.Equal(t, "42", FormatUnits(42, 0))
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     uint64
	}{
		{"0.024981836", 9, 24981836},
		{"1", 9, 1_000_000_000},
		{" 2.5 ", 6, 2_500_000},
		{"0.1234567", 6, 123456}, // truncated
		{"0", 6, 0},
	}
	for _, tt := range tests {
		got, err := ParseUnits(tt.in, tt.decimals)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "abc", "-1", "1.2.3", "99999999999999999999999"} {
		_, err := ParseUnits(bad, 9)
		assert.Error(t, err, bad)
	}

	lamports, err := SOLToLamports("0.5")
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), lamports)
}

func TestValidateBaseUnits(t *testing.T) {
	assert.NoError(t, ValidateBaseUnits("1000000"))
	assert.Error(t, ValidateBaseUnits("0"))
	assert.Error(t, ValidateBaseUnits("-5"))
	assert.Error(t, ValidateBaseUnits("1.5"))
	assert.Error(t, ValidateBaseUnits("ten"))
}

func TestUSDValue(t *testing.T) {
	v := USDValue(2_500_000, 6, decimal.RequireFromString("0.9998"))
	assert.Equal(t, "2.5", v.String())

	v = USDValue(1_500_000_000, 9, decimal.RequireFromString("150.123"))
	assert.Equal(t, "225.18", v.String())
}

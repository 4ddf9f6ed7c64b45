package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAmountToCents(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1250.50", 125050, false},
		{"10", 1000, false},
		{"0.01", 1, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"1.005", 0, true},
		{"abc", 0, true},
		{"92233720368547758.07", 9223372036854775807, false},
		{"92233720368547758.08", 0, true},
		{"184467440737095517.16", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseAmountToCents(tc.in)
		if tc.wantErr {
			require.ErrorIs(t, err, ErrInvalidAmount, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestFormatCents(t *testing.T) {
	require.Equal(t, "1250.50", FormatCents(125050))
	require.Equal(t, "0.05", FormatCents(5))
	require.Equal(t, "-3.00", FormatCents(-300))
}

func TestParseNonNegativeAmountToCents(t *testing.T) {
	got, err := ParseNonNegativeAmountToCents("0")
	require.NoError(t, err)
	require.Zero(t, got)

	got, err = ParseNonNegativeAmountToCents("300.10")
	require.NoError(t, err)
	require.Equal(t, int64(30010), got)

	_, err = ParseNonNegativeAmountToCents("-0.01")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

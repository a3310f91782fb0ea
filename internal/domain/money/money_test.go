package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		amount   string
		currency string
		want     string
		wantErr  error
	}{
		{"two decimals", "2500.00", "USD", "2500.00 USD", nil},
		{"integer", "40", "usd", "40.00 USD", nil},
		{"one decimal", "0.5", "EUR", "0.50 EUR", nil},
		{"negative", "-12.34", "USD", "-12.34 USD", nil},
		{"sub-cent", "0.001", "USD", "", ErrScaleExceeded},
		{"trailing zeros beyond scale", "1.2300", "USD", "1.23 USD", nil},
		{"garbage", "12,50", "USD", "", ErrInvalidAmount},
		{"bad currency", "1.00", "US", "", ErrInvalidCurrency},
		{"numeric currency", "1.00", "U5D", "", ErrInvalidCurrency},
		{"exponent in range", "1e2", "USD", "100.00 USD", nil},
		{"largest storable", "999999999999999999.99", "USD", "999999999999999999.99 USD", nil},
		{"exponent beyond storable range", "1e30", "USD", "", ErrAmountOutOfRange},
		{"negative beyond storable range", "-1000000000000000000", "USD", "", ErrAmountOutOfRange},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Parse(tc.amount, tc.currency)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, m.String())
		})
	}
}

func TestArithmetic_IsExact(t *testing.T) {
	// 0.1 + 0.2 must be exactly 0.3, which floating point cannot do
	sum, err := MustParse("0.10", "USD").Add(MustParse("0.20", "USD"))
	require.NoError(t, err)
	assert.True(t, sum.Equal(MustParse("0.30", "USD")))

	diff, err := MustParse("100.00", "USD").Sub(MustParse("60.00", "USD"))
	require.NoError(t, err)
	assert.Equal(t, "40.00", diff.StringFixed())

	assert.Equal(t, "-40.00", diff.Neg().StringFixed())
	assert.True(t, diff.Neg().IsNegative())
	assert.True(t, Zero("USD").IsZero())
	assert.Equal(t, "12.34", FromMinorUnits(1234, "USD").StringFixed())
}

func TestArithmetic_StaysInStorableRange(t *testing.T) {
	top := MustParse("999999999999999999.00", "USD")

	_, err := top.Add(MustParse("1.00", "USD"))
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	_, err = top.Neg().Sub(MustParse("1.00", "USD"))
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	sum, err := top.Add(MustParse("0.99", "USD"))
	require.NoError(t, err)
	assert.Equal(t, "999999999999999999.99", sum.StringFixed())
}

func TestCurrencyMismatch(t *testing.T) {
	usd := MustParse("1.00", "USD")
	eur := MustParse("1.00", "EUR")

	_, err := usd.Add(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
	_, err = usd.Sub(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
	_, err = usd.Cmp(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
	assert.False(t, usd.Equal(eur))
}

func TestCmp(t *testing.T) {
	c, err := MustParse("60.00", "USD").Cmp(MustParse("100", "USD"))
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = MustParse("100.0", "USD").Cmp(MustParse("100.00", "USD"))
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestRatio_RoundsHalfUpOnce(t *testing.T) {
	twelveHundred := decimal.NewFromInt(1200)

	testCases := []struct {
		balance string
		rate    string
		want    string
	}{
		{"5000.00", "6", "25.00"},
		{"1000.00", "0", "0.00"},
		{"0.00", "4.5", "0.00"},
		// 1234.56 * 3.5 / 1200 = 3.6008 -> 3.60
		{"1234.56", "3.5", "3.60"},
		// 3.00 * 2 / 1200 = 0.005 -> 0.01 (half rounds up)
		{"3.00", "2", "0.01"},
		// 2.99 * 2 / 1200 = 0.004983.. -> 0.00
		{"2.99", "2", "0.00"},
		// non-terminating quotient: 100.00 * 1 / 1200 = 0.08333.. -> 0.08
		{"100.00", "1", "0.08"},
	}

	for _, tc := range testCases {
		t.Run(tc.balance+"@"+tc.rate, func(t *testing.T) {
			got := MustParse(tc.balance, "USD").Ratio(decimal.RequireFromString(tc.rate), twelveHundred)
			assert.Equal(t, tc.want, got.StringFixed())
			assert.Equal(t, "USD", got.Currency())
		})
	}
}

func TestJSON(t *testing.T) {
	m := MustParse("2350", "USD")
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"2350.00","currency":"USD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equal(m))

	err = json.Unmarshal([]byte(`{"amount":"1.999","currency":"USD"}`), &decoded)
	assert.ErrorIs(t, err, ErrScaleExceeded)
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("abc", "USD") })
}

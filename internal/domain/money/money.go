// Package money implements an exact decimal amount bound to a currency.
// Amounts never pass through floating point; the only rounding that ever
// happens is the explicit half-away-from-zero step in Ratio.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by every supported currency.
const Scale int32 = 2

var (
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrInvalidCurrency  = errors.New("currency must be a 3-letter ISO code")
	ErrScaleExceeded    = fmt.Errorf("amount has more than %d fractional digits", Scale)
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrAmountOutOfRange = errors.New("amount exceeds the storable range")
)

// MaxAmount is the largest magnitude a balance or amount column holds (NUMERIC(20,2)).
var MaxAmount = decimal.RequireFromString("999999999999999999.99")

// Money is an immutable amount in a single currency.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New returns amount in currency, rejecting sub-cent precision.
func New(amount decimal.Decimal, currency string) (Money, error) {
	code, err := normalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	if !amount.Equal(amount.Truncate(Scale)) {
		return Money{}, ErrScaleExceeded
	}
	if amount.Abs().GreaterThan(MaxAmount) {
		return Money{}, ErrAmountOutOfRange
	}
	return Money{amount: amount, currency: code}, nil
}

// Parse reads a decimal string such as "2500.00".
func Parse(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return New(d, currency)
}

// MustParse is Parse for constants and tests.
func MustParse(amount, currency string) Money {
	m, err := Parse(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func Zero(currency string) Money {
	code, _ := normalizeCurrency(currency)
	return Money{amount: decimal.Zero, currency: code}
}

// FromMinorUnits builds an amount from cents.
func FromMinorUnits(minor int64, currency string) Money {
	code, _ := normalizeCurrency(currency)
	return Money{amount: decimal.New(minor, -Scale), currency: code}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }

func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, m.mismatch(other)
	}
	return bounded(m.amount.Add(other.amount), m.currency)
}

func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, m.mismatch(other)
	}
	return bounded(m.amount.Sub(other.amount), m.currency)
}

func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Cmp returns -1, 0 or +1 like decimal.Cmp.
func (m Money) Cmp(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, m.mismatch(other)
	}
	return m.amount.Cmp(other.amount), nil
}

// Equal reports whether both amount and currency match; 10.0 equals 10.00.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Ratio returns m * num / den. The product is exact and the quotient is
// rounded half away from zero to Scale digits in one step.
func (m Money) Ratio(num, den decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(num).DivRound(den, Scale), currency: m.currency}
}

func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }
func (m Money) IsZero() bool     { return m.amount.IsZero() }

// StringFixed renders the amount with exactly Scale digits, without the currency.
func (m Money) StringFixed() string {
	return m.amount.StringFixed(Scale)
}

func (m Money) String() string {
	return m.StringFixed() + " " + m.currency
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.StringFixed(), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func bounded(amount decimal.Decimal, currency string) (Money, error) {
	if amount.Abs().GreaterThan(MaxAmount) {
		return Money{}, ErrAmountOutOfRange
	}
	return Money{amount: amount, currency: currency}, nil
}

func (m Money) mismatch(other Money) error {
	return fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.currency, other.currency)
}

func normalizeCurrency(currency string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return "", ErrInvalidCurrency
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidCurrency
		}
	}
	return code, nil
}

package domain

import (
	"fmt"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money is an exact amount of one currency, stored as an integer count of
// minor units (cents for USD, yen for JPY). All ledger arithmetic happens on
// the minor-unit integer; decimals appear only at the parse/format boundary.
type Money struct {
	Amount   int64
	Currency string
}

// MinorUnitFactor returns the number of minor units per major unit of the
// currency (100 for two-decimal currencies, 1 for JPY). The currency table is
// the ISO 4217 registry shipped with go-money.
func MinorUnitFactor(code string) (int64, error) {
	c := gomoney.GetCurrency(code)
	if c == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}

	factor := int64(1)
	for i := 0; i < c.Fraction; i++ {
		factor *= 10
	}

	return factor, nil
}

// ValidateCurrency reports whether code is a known ISO 4217 currency.
func ValidateCurrency(code string) error {
	_, err := MinorUnitFactor(code)
	return err
}

// NewMoney builds a Money from an already-scaled minor-unit amount.
func NewMoney(minorUnits int64, currency string) (Money, error) {
	if err := ValidateCurrency(currency); err != nil {
		return Money{}, err
	}

	return Money{Amount: minorUnits, Currency: currency}, nil
}

// MoneyFromDecimal converts a major-unit decimal amount to Money.
//
// Rounding contract: amounts finer than the currency's minor unit are rounded
// half away from zero (2.345 USD -> 235 cents, -2.345 USD -> -235 cents).
func MoneyFromDecimal(major decimal.Decimal, currency string) (Money, error) {
	factor, err := MinorUnitFactor(currency)
	if err != nil {
		return Money{}, err
	}

	minor := major.Mul(decimal.NewFromInt(factor)).Round(0)

	return Money{Amount: minor.IntPart(), Currency: currency}, nil
}

// Add returns m + o. Mixing currencies is a programming error and fails with
// ErrCurrencyMismatch, never a silent coercion.
func (m Money) Add(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}

	return Money{Amount: m.Amount + o.Amount, Currency: m.Currency}, nil
}

// Sub returns m - o, failing with ErrCurrencyMismatch on mixed currencies.
func (m Money) Sub(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}

	return Money{Amount: m.Amount - o.Amount, Currency: m.Currency}, nil
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

// Major returns the amount as a major-unit decimal. Pure formatting; no
// currency-crossing logic.
func (m Money) Major() decimal.Decimal {
	c := gomoney.GetCurrency(m.Currency)
	if c == nil {
		return decimal.NewFromInt(m.Amount)
	}

	return decimal.New(m.Amount, -int32(c.Fraction))
}

// String renders the amount with the currency's full minor precision,
// e.g. "12.34 USD" or "1200 JPY".
func (m Money) String() string {
	c := gomoney.GetCurrency(m.Currency)
	if c == nil {
		return fmt.Sprintf("%d %s", m.Amount, m.Currency)
	}

	return m.Major().StringFixed(int32(c.Fraction)) + " " + m.Currency
}

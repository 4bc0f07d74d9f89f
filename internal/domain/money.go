package domain

import "fmt"

// Money pairs an exact decimal magnitude with a Currency.
type Money struct {
	Amount   Decimal
	Currency Currency
}

// NewMoney constructs a Money value.
func NewMoney(amount Decimal, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

// ZeroMoney returns zero in the given currency.
func ZeroMoney(currency Currency) Money {
	return Money{Amount: ZeroDecimal(), Currency: currency}
}

// Add returns m + other. Fails with CurrencyMismatch if currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if !m.Currency.Equal(other.Currency) {
		return Money{}, fmt.Errorf("domain: add %s + %s: %w", m.Currency, other.Currency, ErrCurrencyMismatch)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other. Fails with CurrencyMismatch if currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if !m.Currency.Equal(other.Currency) {
		return Money{}, fmt.Errorf("domain: sub %s - %s: %w", m.Currency, other.Currency, ErrCurrencyMismatch)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Mul returns m scaled by a plain decimal factor (e.g. quantity).
func (m Money) Mul(factor Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.String(), m.Currency.Code)
}

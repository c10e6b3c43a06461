package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

// INR is the only settlement currency of the marketplace
const INR Currency = "INR"

// DefaultCurrency is the default currency for the system
const DefaultCurrency = INR

var hundred = decimal.NewFromInt(100)

// Money is a value object representing monetary amounts.
// It is immutable - all operations return new Money instances.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewINR creates Money in rupees
func NewINR(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: INR}
}

// NewINRFromString creates rupees from a string such as "199.50"
func NewINRFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewINR(d), nil
}

// FromPaise converts an integer paise amount (as used by Razorpay) to rupees
func FromPaise(paise int64) Money {
	return NewINR(decimal.New(paise, -2))
}

// ZeroINR returns zero rupees
func ZeroINR() Money {
	return Money{amount: decimal.Zero, currency: INR}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	if m.currency == "" {
		return DefaultCurrency
	}
	return m.currency
}

// Paise returns the amount in the smallest currency unit, rounded half up
func (m Money) Paise() int64 {
	return m.amount.Mul(hundred).Round(0).IntPart()
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns a new Money with the sum of both amounts
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount), currency: m.Currency()}
}

// Subtract returns a new Money with the difference
func (m Money) Subtract(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount), currency: m.Currency()}
}

// Multiply returns a new Money multiplied by the given factor
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.Currency()}
}

// MultiplyByInt returns a new Money multiplied by an integer
func (m Money) MultiplyByInt(factor int64) Money {
	return m.Multiply(decimal.NewFromInt(factor))
}

// Percent returns pct percent of m, unrounded
func (m Money) Percent(pct decimal.Decimal) Money {
	return m.Multiply(pct).divideBy(hundred)
}

func (m Money) divideBy(d decimal.Decimal) Money {
	return Money{amount: m.amount.Div(d), currency: m.Currency()}
}

// Round2 rounds half away from zero to paise
func (m Money) Round2() Money {
	return Money{amount: m.amount.Round(2), currency: m.Currency()}
}

// Equals returns true if both Money values are equal
func (m Money) Equals(other Money) bool {
	return m.Currency() == other.Currency() && m.amount.Equal(other.amount)
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// String returns the amount with its currency, e.g. "INR 1234.50"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency(), m.amount.StringFixed(2))
}

// MarshalJSON encodes money as a fixed two-decimal string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.amount.StringFixed(2))
}

// UnmarshalJSON accepts a number or a numeric string
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid money: %w", err)
	}
	m.amount = d
	m.currency = INR
	return nil
}

// Value implements driver.Valuer
func (m Money) Value() (driver.Value, error) {
	return m.amount.StringFixed(2), nil
}

// Scan implements sql.Scanner
func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	m.amount = d
	m.currency = INR
	return nil
}

// Allocate splits total across the weights proportionally, rounding each share
// to paise. The last non-zero weight absorbs the rounding remainder so the shares
// always sum exactly to total, and no share of a non-negative total goes below
// zero. When every weight is zero the total is split evenly.
func Allocate(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	if len(weights) == 0 {
		return shares
	}

	sum := decimal.Zero
	for _, w := range weights {
		sum = sum.Add(w)
	}
	if sum.IsZero() {
		weights = make([]decimal.Decimal, len(shares))
		for i := range weights {
			weights[i] = decimal.NewFromInt(1)
		}
		sum = decimal.NewFromInt(int64(len(weights)))
	}

	last := len(weights) - 1
	for last > 0 && weights[last].IsZero() {
		last--
	}

	allocated := decimal.Zero
	for i, w := range weights {
		if i == last {
			continue
		}
		shares[i] = total.Mul(w).Div(sum).Round(2)
		allocated = allocated.Add(shares[i])
	}
	shares[last] = total.Sub(allocated)

	// Rounding every share up can overshoot a non-negative total. The last
	// share then stays at zero and the excess comes off the largest shares.
	if !total.IsNegative() {
		for shares[last].IsNegative() {
			largest := largestShare(shares, last)
			if largest < 0 {
				break
			}
			take := decimal.Min(shares[largest], shares[last].Neg())
			shares[largest] = shares[largest].Sub(take)
			shares[last] = shares[last].Add(take)
		}
	}
	return shares
}

func largestShare(shares []decimal.Decimal, skip int) int {
	idx := -1
	for i, s := range shares {
		if i == skip || !s.IsPositive() {
			continue
		}
		if idx < 0 || s.GreaterThan(shares[idx]) {
			idx = i
		}
	}
	return idx
}

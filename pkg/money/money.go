// Package money provides currency-safe financial arithmetic using integer paise
// and the Fowler Money pattern. Amounts parsed out of emails and user profiles
// flow through this package so ratio and limit calculations stay exact.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// INR is the only currency the tracker deals in.
const INR = "INR"

// Money represents a monetary value with currency.
// It wraps go-money for safe arithmetic and shopspring/decimal for precision calculations.
type Money struct {
	m *money.Money
}

// New creates a new Money value from paise (minor units).
func New(amountPaise int64) *Money {
	return &Money{m: money.New(amountPaise, INR)}
}

// NewFromDecimal creates Money from a decimal rupee value.
func NewFromDecimal(amount decimal.Decimal) *Money {
	paise := amount.Mul(decimal.New(1, 2)).Round(0).IntPart()
	return New(paise)
}

// NewFromString parses a rupee amount string such as "4500", "4,500.50" or
// "Rs. 4500". Thousands separators and common currency markers are stripped.
func NewFromString(amount string) (*Money, error) {
	amount = strings.TrimSpace(strings.ToLower(amount))
	amount = strings.ReplaceAll(amount, " ", "")
	for _, marker := range []string{"rs.", "rs", "inr", "₹"} {
		amount = strings.TrimPrefix(amount, marker)
	}
	amount = strings.ReplaceAll(amount, ",", "")

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	return NewFromDecimal(d), nil
}

// Zero returns a zero rupee value
func Zero() *Money {
	return New(0)
}

// Amount returns the amount in paise
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// IsZero returns true if the amount is zero
func (m *Money) IsZero() bool {
	return m == nil || m.m == nil || m.m.IsZero()
}

// IsPositive returns true if the amount is greater than zero
func (m *Money) IsPositive() bool {
	return m != nil && m.m != nil && m.m.IsPositive()
}

// IsNegative returns true if the amount is less than zero
func (m *Money) IsNegative() bool {
	return m != nil && m.m != nil && m.m.IsNegative()
}

// Add adds two rupee values.
func (m *Money) Add(other *Money) *Money {
	if m == nil || m.m == nil {
		return other
	}
	if other == nil || other.m == nil {
		return m
	}
	result, err := m.m.Add(other.m)
	if err != nil {
		// Single-currency package, mismatch is unreachable.
		panic(err)
	}
	return &Money{m: result}
}

// Subtract subtracts other from m.
func (m *Money) Subtract(other *Money) *Money {
	if other == nil || other.m == nil {
		return m
	}
	if m == nil || m.m == nil {
		return &Money{m: other.m.Negative()}
	}
	result, err := m.m.Subtract(other.m)
	if err != nil {
		panic(err)
	}
	return &Money{m: result}
}

// Multiply multiplies by an integer factor
func (m *Money) Multiply(factor int64) *Money {
	if m == nil || m.m == nil {
		return Zero()
	}
	return &Money{m: m.m.Multiply(factor)}
}

// MultiplyDecimal multiplies by a decimal factor, rounding to the nearest paise.
func (m *Money) MultiplyDecimal(factor decimal.Decimal) *Money {
	return NewFromDecimal(m.ToDecimal().Mul(factor))
}

// DivideDecimal divides by a decimal divisor, rounding to the nearest paise.
// Division by zero yields zero, matching the analysis formulas' degradation.
func (m *Money) DivideDecimal(divisor decimal.Decimal) *Money {
	if divisor.IsZero() {
		return Zero()
	}
	return NewFromDecimal(m.ToDecimal().Div(divisor))
}

// Ratio returns m/other as a decimal, or zero when other is zero.
func (m *Money) Ratio(other *Money) decimal.Decimal {
	if other.IsZero() {
		return decimal.Zero
	}
	return m.ToDecimal().Div(other.ToDecimal()).Round(4)
}

// Equals returns true if both values are equal
func (m *Money) Equals(other *Money) bool {
	return m.Amount() == other.Amount()
}

// LessThan returns true if m < other
func (m *Money) LessThan(other *Money) bool {
	return m.Amount() < other.Amount()
}

// GreaterThan returns true if m > other
func (m *Money) GreaterThan(other *Money) bool {
	return m.Amount() > other.Amount()
}

// Display returns a formatted string for display (e.g., "₹4,500.00")
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return money.New(0, INR).Display()
	}
	return m.m.Display()
}

// String returns the amount as a decimal string (e.g., "4500.00")
func (m *Money) String() string {
	if m == nil || m.m == nil {
		return "0"
	}
	return m.ToDecimal().String()
}

// ToDecimal converts to decimal.Decimal for precise calculations
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(m.m.Amount()).Div(decimal.New(1, 2))
}

// ToFloat64 converts to float64 (use for JSON responses only)
func (m *Money) ToFloat64() float64 {
	return m.ToDecimal().InexactFloat64()
}

// MarshalJSON renders the value as a plain decimal rupee number.
func (m *Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.ToFloat64())
}

// UnmarshalJSON accepts a plain decimal rupee number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.m = money.New(NewFromDecimal(decimal.NewFromFloat(v)).Amount(), INR)
	return nil
}

// Scan implements sql.Scanner for NUMERIC(12,2) columns.
func (m *Money) Scan(value interface{}) error {
	if value == nil {
		m.m = money.New(0, INR)
		return nil
	}

	switch v := value.(type) {
	case int64:
		m.m = money.New(v*100, INR)
		return nil
	case float64:
		m.m = money.New(NewFromDecimal(decimal.NewFromFloat(v)).Amount(), INR)
		return nil
	case string:
		parsed, err := NewFromString(v)
		if err != nil {
			return err
		}
		m.m = parsed.m
		return nil
	case []byte:
		parsed, err := NewFromString(string(v))
		if err != nil {
			return err
		}
		m.m = parsed.m
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}
}

// Value implements driver.Valuer, emitting a decimal string for NUMERIC columns.
func (m *Money) Value() (driver.Value, error) {
	if m == nil || m.m == nil {
		return "0", nil
	}
	return m.ToDecimal().StringFixed(2), nil
}

package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantPaise int64
		wantErr   bool
	}{
		{name: "plain integer", input: "4500", wantPaise: 450000},
		{name: "with decimals", input: "4500.50", wantPaise: 450050},
		{name: "thousands separator", input: "1,23,456", wantPaise: 12345600},
		{name: "rs prefix", input: "Rs. 4500", wantPaise: 450000},
		{name: "inr prefix", input: "INR 999", wantPaise: 99900},
		{name: "rupee symbol", input: "₹250", wantPaise: 25000},
		{name: "garbage", input: "not-a-number", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewFromString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPaise, m.Amount())
		})
	}
}

func TestArithmetic(t *testing.T) {
	salary := NewFromDecimal(decimal.NewFromInt(30000))
	emi := NewFromDecimal(decimal.NewFromInt(4500))

	t.Run("add and subtract", func(t *testing.T) {
		total := emi.Add(emi)
		assert.Equal(t, int64(900000), total.Amount())

		left := salary.Subtract(total)
		assert.Equal(t, int64(2100000), left.Amount())
	})

	t.Run("ratio", func(t *testing.T) {
		ratio := emi.Ratio(salary)
		assert.True(t, ratio.Equal(decimal.NewFromFloat(0.15)))
	})

	t.Run("ratio of zero denominator degrades to zero", func(t *testing.T) {
		assert.True(t, emi.Ratio(Zero()).IsZero())
	})

	t.Run("multiply decimal", func(t *testing.T) {
		limit := salary.MultiplyDecimal(decimal.NewFromFloat(0.3))
		assert.Equal(t, int64(900000), limit.Amount())
	})

	t.Run("divide decimal", func(t *testing.T) {
		perInstallment := emi.DivideDecimal(decimal.NewFromInt(3))
		assert.Equal(t, int64(150000), perInstallment.Amount())
		assert.True(t, emi.DivideDecimal(decimal.Zero).IsZero())
	})
}

func TestComparisons(t *testing.T) {
	a := New(100)
	b := New(200)

	assert.True(t, a.LessThan(b))
	assert.True(t, b.GreaterThan(a))
	assert.False(t, a.Equals(b))
	assert.True(t, a.Equals(New(100)))
	assert.True(t, Zero().IsZero())
	assert.True(t, b.IsPositive())
	assert.True(t, Zero().Subtract(a).IsNegative())
}

func TestNilSafety(t *testing.T) {
	var m *Money

	assert.Equal(t, int64(0), m.Amount())
	assert.True(t, m.IsZero())
	assert.False(t, m.IsPositive())
	assert.Equal(t, "0", m.String())
	assert.True(t, m.ToDecimal().IsZero())

	sum := m.Add(New(500))
	assert.Equal(t, int64(500), sum.Amount())
}

func TestSQLRoundTrip(t *testing.T) {
	m := NewFromDecimal(decimal.NewFromFloat(4500.50))

	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, "4500.50", v)

	var scanned Money
	require.NoError(t, scanned.Scan("4500.50"))
	assert.Equal(t, m.Amount(), scanned.Amount())

	require.NoError(t, scanned.Scan([]byte("120.25")))
	assert.Equal(t, int64(12025), scanned.Amount())
}

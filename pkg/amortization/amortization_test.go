package amortization

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyPayment(t *testing.T) {
	tests := []struct {
		name       string
		principal  decimal.Decimal
		annualRate decimal.Decimal
		termMonths int
		expected   decimal.Decimal
		expectErr  error
	}{
		{
			name:       "standard amortization table value",
			principal:  decimal.NewFromInt(10000),
			annualRate: decimal.NewFromInt(12),
			termMonths: 12,
			expected:   decimal.RequireFromString("888.49"),
		},
		{
			name:       "two year loan at 6 percent",
			principal:  decimal.NewFromInt(5000),
			annualRate: decimal.NewFromInt(6),
			termMonths: 24,
			expected:   decimal.RequireFromString("221.60"),
		},
		{
			name:       "zero interest splits evenly",
			principal:  decimal.NewFromInt(1200),
			annualRate: decimal.Zero,
			termMonths: 12,
			expected:   decimal.NewFromInt(100),
		},
		{
			name:       "zero interest rounds to cents",
			principal:  decimal.NewFromInt(100),
			annualRate: decimal.Zero,
			termMonths: 3,
			expected:   decimal.RequireFromString("33.33"),
		},
		{
			name:       "single month",
			principal:  decimal.NewFromInt(1000),
			annualRate: decimal.NewFromInt(12),
			termMonths: 1,
			expected:   decimal.NewFromInt(1010),
		},
		{
			name:       "zero term",
			principal:  decimal.NewFromInt(1000),
			annualRate: decimal.NewFromInt(12),
			termMonths: 0,
			expectErr:  ErrInvalidTerm,
		},
		{
			name:       "negative principal",
			principal:  decimal.NewFromInt(-1),
			annualRate: decimal.NewFromInt(12),
			termMonths: 12,
			expectErr:  ErrInvalidPrincipal,
		},
		{
			name:       "negative rate",
			principal:  decimal.NewFromInt(1000),
			annualRate: decimal.NewFromInt(-1),
			termMonths: 12,
			expectErr:  ErrInvalidRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MonthlyPayment(tt.principal, tt.annualRate, tt.termMonths)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, result.Equal(tt.expected), "Expected %v, but got %v", tt.expected, result)
		})
	}
}

func TestCalculate_StandardLoan(t *testing.T) {
	approvedAt := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	terms, err := Calculate(decimal.NewFromInt(10000), decimal.NewFromInt(12), 12, approvedAt)
	require.NoError(t, err)

	assert.True(t, terms.MonthlyPayment.Equal(decimal.RequireFromString("888.49")))
	assert.True(t, terms.TotalAmount.Equal(decimal.RequireFromString("10661.88")))
	require.Len(t, terms.Schedule, 12)

	first := terms.Schedule[0]
	assert.True(t, first.InterestAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, first.PrincipalAmount.Equal(decimal.RequireFromString("788.49")))

	principalSum := decimal.Zero
	amountSum := decimal.Zero
	for i, entry := range terms.Schedule {
		assert.Equal(t, i+1, entry.InstallmentNumber)
		assert.True(t, entry.Amount.Equal(entry.PrincipalAmount.Add(entry.InterestAmount)),
			"row %d amount %s != principal %s + interest %s", entry.InstallmentNumber, entry.Amount, entry.PrincipalAmount, entry.InterestAmount)
		if i < len(terms.Schedule)-1 {
			assert.True(t, entry.Amount.Equal(terms.MonthlyPayment))
		}
		principalSum = principalSum.Add(entry.PrincipalAmount)
		amountSum = amountSum.Add(entry.Amount)
	}

	assert.True(t, principalSum.Equal(decimal.NewFromInt(10000)), "principal sum %s", principalSum)
	assert.True(t, amountSum.Sub(terms.TotalAmount).Abs().LessThanOrEqual(decimal.RequireFromString("0.05")),
		"schedule total %s drifted from %s", amountSum, terms.TotalAmount)
}

func TestCalculate_PrincipalReconciles(t *testing.T) {
	cases := []struct {
		principal string
		rate      string
		term      int
	}{
		{"10000", "12", 12},
		{"5000", "6", 24},
		{"2500.55", "9.75", 36},
		{"150000", "4.5", 360},
		{"777", "18", 7},
	}

	for _, c := range cases {
		principal := decimal.RequireFromString(c.principal)
		terms, err := Calculate(principal, decimal.RequireFromString(c.rate), c.term, time.Now())
		require.NoError(t, err)
		require.Len(t, terms.Schedule, c.term)

		sum := decimal.Zero
		for _, entry := range terms.Schedule {
			sum = sum.Add(entry.PrincipalAmount)
		}
		assert.True(t, sum.Sub(principal).Abs().LessThanOrEqual(decimal.RequireFromString("0.01")),
			"principal %s: schedule sums to %s", c.principal, sum)
	}
}

func TestCalculate_ZeroInterest(t *testing.T) {
	terms, err := Calculate(decimal.NewFromInt(100), decimal.Zero, 3, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, terms.MonthlyPayment.Equal(decimal.RequireFromString("33.33")))
	assert.True(t, terms.TotalAmount.Equal(decimal.RequireFromString("99.99")))

	expectedAmounts := []string{"33.33", "33.33", "33.34"}
	for i, entry := range terms.Schedule {
		assert.True(t, entry.InterestAmount.IsZero())
		assert.True(t, entry.PrincipalAmount.Equal(entry.Amount))
		assert.True(t, entry.Amount.Equal(decimal.RequireFromString(expectedAmounts[i])),
			"row %d: expected %s got %s", i+1, expectedAmounts[i], entry.Amount)
	}
}

func TestCalculate_DueDates(t *testing.T) {
	approvedAt := time.Date(2024, 1, 31, 16, 45, 0, 0, time.UTC)

	terms, err := Calculate(decimal.NewFromInt(3000), decimal.NewFromInt(10), 3, approvedAt)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), terms.Schedule[0].DueDate)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), terms.Schedule[1].DueDate)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), terms.Schedule[2].DueDate)
}

func TestCalculate_InvalidInput(t *testing.T) {
	_, err := Calculate(decimal.Zero, decimal.NewFromInt(12), 12, time.Now())
	assert.ErrorIs(t, err, ErrInvalidPrincipal)

	_, err = Calculate(decimal.NewFromInt(1000), decimal.NewFromInt(12), 0, time.Now())
	assert.ErrorIs(t, err, ErrInvalidTerm)
}

func TestCalculate_PaymentTooSmall(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		term      int
	}{
		{name: "one cent over a year at zero rate", principal: "0.01", rate: "0", term: 12},
		{name: "five cents over a year at low rate", principal: "0.05", rate: "1", term: 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Calculate(decimal.RequireFromString(tt.principal), decimal.RequireFromString(tt.rate), tt.term, time.Now())
			assert.ErrorIs(t, err, ErrPaymentTooSmall)
		})
	}

	terms, err := Calculate(decimal.RequireFromString("0.12"), decimal.Zero, 12, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "0.01", terms.MonthlyPayment.StringFixed(2))
}

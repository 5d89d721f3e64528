package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name     string
		part     decimal.Decimal
		whole    decimal.Decimal
		expected decimal.Decimal
	}{
		{
			name:     "full collection",
			part:     decimal.RequireFromString("888.49"),
			whole:    decimal.RequireFromString("888.49"),
			expected: decimal.NewFromInt(100),
		},
		{
			name:     "partial collection rounds to 2 places",
			part:     decimal.NewFromInt(1),
			whole:    decimal.NewFromInt(3),
			expected: decimal.RequireFromString("33.33"),
		},
		{
			name:     "zero whole",
			part:     decimal.NewFromInt(50),
			whole:    decimal.Zero,
			expected: decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Percentage(tt.part, tt.whole)
			assert.True(t, result.Equal(tt.expected), "Expected %v, but got %v", tt.expected, result)
		})
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		months   int
		expected time.Time
	}{
		{
			name:     "mid month",
			start:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			months:   1,
			expected: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "end of month clamps in leap year",
			start:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months:   1,
			expected: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "end of month keeps anchor",
			start:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			months:   2,
			expected: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "crosses year",
			start:    time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC),
			months:   3,
			expected: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AddMonths(tt.start, tt.months))
		})
	}
}

func TestCalculateDueDate(t *testing.T) {
	approvedAt := time.Date(2024, 1, 10, 14, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), CalculateDueDate(approvedAt, 1))
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), CalculateDueDate(approvedAt, 12))
}

func TestEndOfDay(t *testing.T) {
	day := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	end := EndOfDay(day)

	assert.Equal(t, 5, end.Day())
	assert.True(t, end.Add(time.Microsecond).Equal(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)))
}

func TestIsDateOverdue(t *testing.T) {
	now := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsDateOverdue(now.AddDate(0, 0, -1), now))
	assert.False(t, IsDateOverdue(now, now))
	assert.False(t, IsDateOverdue(now.AddDate(0, 0, 1), now))
}

func TestFitsScale(t *testing.T) {
	tests := []struct {
		value    string
		places   int32
		expected bool
	}{
		{value: "87.92", places: 2, expected: true},
		{value: "100", places: 2, expected: true},
		{value: "100.500", places: 2, expected: true},
		{value: "37.915", places: 2, expected: false},
		{value: "12.5", places: 4, expected: true},
		{value: "12.00005", places: 4, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, FitsScale(decimal.RequireFromString(tt.value), tt.places))
		})
	}
}

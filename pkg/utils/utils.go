package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RoundCurrency rounds an amount to currency precision (2 decimal places)
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FitsScale reports whether d has no more than places fractional digits
func FitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// Percentage returns part/whole*100 rounded to 2 decimal places.
// A zero whole yields zero.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// DateOnly truncates t to midnight UTC of the same calendar day
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of t's calendar day in UTC.
// Postgres timestamps carry microsecond precision.
func EndOfDay(t time.Time) time.Time {
	return DateOnly(t).AddDate(0, 0, 1).Add(-time.Microsecond)
}

// AddMonths advances t by n calendar months, clamping the day to the last day
// of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// CalculateDueDate returns the due date of the given installment (1-based),
// one calendar month per installment after the start date.
func CalculateDueDate(startDate time.Time, installmentNumber int) time.Time {
	return AddMonths(DateOnly(startDate), installmentNumber)
}

// IsDateOverdue reports whether dueDate lies strictly before now
func IsDateOverdue(dueDate, now time.Time) bool {
	return dueDate.Before(now)
}

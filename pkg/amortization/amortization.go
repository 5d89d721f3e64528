// Package amortization computes fixed-rate annuity repayment schedules.
//
// All arithmetic is done on decimal.Decimal. The monthly payment is rounded to
// currency precision before the schedule is built so that every row and the
// published total agree on the same value. The final row absorbs rounding drift
// so that the principal column sums to the original principal exactly.
package amortization

import (
	"errors"
	"time"

	"github.com/segyhp/coop-engine/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrincipal = errors.New("principal must be greater than 0")
	ErrInvalidRate      = errors.New("annual interest rate must not be negative")
	ErrInvalidTerm      = errors.New("term must be at least 1 month")
	ErrPaymentTooSmall  = errors.New("monthly payment rounds to zero, principal is too small for the term")
)

// rateDivisor converts an annual percentage into a monthly fraction (100 * 12).
var rateDivisor = decimal.NewFromInt(1200)

// ratePrecision is the number of fractional digits kept for the monthly rate.
const ratePrecision = 20

// Entry is one row of the repayment schedule.
type Entry struct {
	InstallmentNumber int             `json:"installment_number"`
	DueDate           time.Time       `json:"due_date"`
	Amount            decimal.Decimal `json:"amount"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount"`
	InterestAmount    decimal.Decimal `json:"interest_amount"`
}

// Terms is the outcome of a calculation.
type Terms struct {
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Schedule       []Entry         `json:"schedule"`
}

// MonthlyRate converts an annual percentage rate into the periodic monthly rate.
func MonthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.DivRound(rateDivisor, ratePrecision)
}

// MonthlyPayment returns the level monthly payment rounded to 2 decimal places.
//
//	r > 0:  P * r * (1+r)^n / ((1+r)^n - 1)
//	r == 0: P / n
func MonthlyPayment(principal, annualRate decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	if err := validate(principal, annualRate, termMonths); err != nil {
		return decimal.Zero, err
	}

	n := decimal.NewFromInt(int64(termMonths))
	r := MonthlyRate(annualRate)
	var payment decimal.Decimal
	if r.IsZero() {
		payment = utils.RoundCurrency(principal.Div(n))
	} else {
		factor := decimal.NewFromInt(1).Add(r).Pow(n)
		payment = utils.RoundCurrency(principal.Mul(r).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1))))
	}

	// Rows of zero could never be paid
	if !payment.IsPositive() {
		return decimal.Zero, ErrPaymentTooSmall
	}
	return payment, nil
}

// Calculate builds the full schedule. Installment k is due k calendar months
// after startDate.
func Calculate(principal, annualRate decimal.Decimal, termMonths int, startDate time.Time) (*Terms, error) {
	payment, err := MonthlyPayment(principal, annualRate, termMonths)
	if err != nil {
		return nil, err
	}

	r := MonthlyRate(annualRate)
	remaining := principal
	schedule := make([]Entry, 0, termMonths)

	for number := 1; number <= termMonths; number++ {
		interest := utils.RoundCurrency(remaining.Mul(r))
		principalPart := payment.Sub(interest)
		amount := payment

		if number == termMonths {
			principalPart = remaining
			amount = remaining.Add(interest)
		}

		schedule = append(schedule, Entry{
			InstallmentNumber: number,
			DueDate:           utils.CalculateDueDate(startDate, number),
			Amount:            amount,
			PrincipalAmount:   principalPart,
			InterestAmount:    interest,
		})

		remaining = remaining.Sub(principalPart)
	}

	return &Terms{
		MonthlyPayment: payment,
		TotalAmount:    payment.Mul(decimal.NewFromInt(int64(termMonths))),
		Schedule:       schedule,
	}, nil
}

func validate(principal, annualRate decimal.Decimal, termMonths int) error {
	if !principal.IsPositive() {
		return ErrInvalidPrincipal
	}
	if annualRate.IsNegative() {
		return ErrInvalidRate
	}
	if termMonths < 1 {
		return ErrInvalidTerm
	}
	return nil
}

package domain

import (
	"time"

	"github.com/segyhp/coop-engine/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanInstallment represents one scheduled repayment of a loan
type LoanInstallment struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	LoanID            uuid.UUID       `json:"loan_id" db:"loan_id"`
	InstallmentNumber int             `json:"installment_number" db:"installment_number"`
	DueDate           time.Time       `json:"due_date" db:"due_date"`
	Amount            decimal.Decimal `json:"amount" db:"amount"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	InterestAmount    decimal.Decimal `json:"interest_amount" db:"interest_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	IsPaid            bool            `json:"is_paid" db:"is_paid"`
	PaidAt            *time.Time      `json:"paid_at" db:"paid_at"`
	RecordedBy        *uuid.UUID      `json:"recorded_by" db:"recorded_by"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// Outstanding is the part of the installment still owed
func (i *LoanInstallment) Outstanding() decimal.Decimal {
	return i.Amount.Sub(i.PaidAmount)
}

// IsPartiallyPaid reports whether some but not all of the installment is paid
func (i *LoanInstallment) IsPartiallyPaid() bool {
	return !i.IsPaid && i.PaidAmount.IsPositive()
}

// IsOverdue is derived, never stored: due before now and not fully paid
func (i *LoanInstallment) IsOverdue(now time.Time) bool {
	return !i.IsPaid && utils.IsDateOverdue(i.DueDate, now)
}

type RecordPaymentRequest struct {
	InstallmentID uuid.UUID       `json:"-"`
	PaidAmount    decimal.Decimal `json:"paid_amount" validate:"required,gt=0"`
	RecordedBy    uuid.UUID       `json:"recorded_by" validate:"required"`
}

// OverdueSummary aggregates unpaid installments past their due date
type OverdueSummary struct {
	AsOf         time.Time          `json:"as_of"`
	Count        int                `json:"count"`
	Amount       decimal.Decimal    `json:"amount"`
	Installments []*LoanInstallment `json:"installments"`
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger transaction types summed in the savings section
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeWithdrawal = "withdrawal"
)

// ReportPeriod is an inclusive time window [Start, End]
type ReportPeriod struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

type SavingsSummary struct {
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	NetSavings       decimal.Decimal `json:"net_savings"`
	TotalBalance     decimal.Decimal `json:"total_balance"`
}

type LoanPortfolioSummary struct {
	TotalDisbursed       decimal.Decimal `json:"total_disbursed"`
	TotalRepaid          decimal.Decimal `json:"total_repaid"`
	OutstandingPrincipal decimal.Decimal `json:"outstanding_principal"`
	InterestEarned       decimal.Decimal `json:"interest_earned"`
	ActiveLoans          int             `json:"active_loans"`
	CompletedLoans       int             `json:"completed_loans"`
}

type InstallmentSummary struct {
	TotalExpected  decimal.Decimal `json:"total_expected"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	OverdueAmount  decimal.Decimal `json:"overdue_amount"`
	CollectionRate decimal.Decimal `json:"collection_rate"`
}

// FinancialReport is the aggregated view over a report window
type FinancialReport struct {
	Period       ReportPeriod         `json:"period"`
	Savings      SavingsSummary       `json:"savings"`
	Loans        LoanPortfolioSummary `json:"loans"`
	Installments InstallmentSummary   `json:"installments"`
}

// RepaymentTotals are sums over installments fully paid within a window
type RepaymentTotals struct {
	Repaid   decimal.Decimal `db:"repaid"`
	Interest decimal.Decimal `db:"interest"`
}

type FinancialReportQuery struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

package repository

import (
	"context"
	"time"

	"github.com/segyhp/coop-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const loanColumns = `id, user_id, amount, interest_rate, term_months, monthly_payment, total_amount,
	remaining_balance, status, purpose, approved_by, approved_at, disbursed_at, created_at, updated_at`

type loanRepository struct {
	db queryer
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.UserID,
		loan.Amount,
		loan.InterestRate,
		loan.TermMonths,
		loan.MonthlyPayment,
		loan.TotalAmount,
		loan.RemainingBalance,
		loan.Status,
		loan.Purpose,
		loan.ApprovedBy,
		loan.ApprovedAt,
		loan.DisbursedAt,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, loanID)
}

func (r *loanRepository) GetByIDForUpdate(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	return r.get(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, loanID)
}

func (r *loanRepository) get(ctx context.Context, query string, loanID uuid.UUID) (*domain.Loan, error) {
	var loan domain.Loan
	if err := sqlx.GetContext(ctx, r.db, &loan, query, loanID); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	loans := make([]*domain.Loan, 0)
	if err := sqlx.SelectContext(ctx, r.db, &loans, query, userID); err != nil {
		return nil, err
	}
	return loans, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET interest_rate = $2, monthly_payment = $3, total_amount = $4, remaining_balance = $5,
			status = $6, approved_by = $7, approved_at = $8, disbursed_at = $9, updated_at = $10
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.InterestRate,
		loan.MonthlyPayment,
		loan.TotalAmount,
		loan.RemainingBalance,
		loan.Status,
		loan.ApprovedBy,
		loan.ApprovedAt,
		loan.DisbursedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) DecrementBalance(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE loans
		SET remaining_balance = GREATEST(remaining_balance - $2, 0), updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, loanID, amount)
	return err
}

func (r *loanRepository) SumPrincipalDisbursed(ctx context.Context, status domain.LoanStatus, start, end time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM loans
		WHERE status = $1 AND disbursed_at BETWEEN $2 AND $3
	`

	var total decimal.Decimal
	err := sqlx.GetContext(ctx, r.db, &total, query, status, start, end)
	return total, err
}

func (r *loanRepository) SumRemainingBalance(ctx context.Context, status domain.LoanStatus) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(remaining_balance), 0) FROM loans WHERE status = $1`

	var total decimal.Decimal
	err := sqlx.GetContext(ctx, r.db, &total, query, status)
	return total, err
}

func (r *loanRepository) CountByStatus(ctx context.Context) (map[domain.LoanStatus]int, error) {
	query := `SELECT status, COUNT(*) AS count FROM loans GROUP BY status`

	var rows []struct {
		Status domain.LoanStatus `db:"status"`
		Count  int               `db:"count"`
	}
	if err := sqlx.SelectContext(ctx, r.db, &rows, query); err != nil {
		return nil, err
	}

	counts := make(map[domain.LoanStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

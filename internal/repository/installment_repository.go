package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/segyhp/coop-engine/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const installmentColumns = `id, loan_id, installment_number, due_date, amount, principal_amount, interest_amount,
	paid_amount, is_paid, paid_at, recorded_by, created_at, updated_at`

type installmentRepository struct {
	db queryer
}

// calendarDate renders t as a UTC date literal so due_date comparisons do not
// depend on the session time zone.
func calendarDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

func (r *installmentRepository) CreateBatch(ctx context.Context, installments []*domain.LoanInstallment) error {
	if len(installments) == 0 {
		return nil
	}

	query := `
		INSERT INTO loan_installments (` + installmentColumns + `)
		VALUES (:id, :loan_id, :installment_number, :due_date, :amount, :principal_amount, :interest_amount,
			:paid_amount, :is_paid, :paid_at, :recorded_by, :created_at, :updated_at)
	`

	_, err := sqlx.NamedExecContext(ctx, r.db, query, installments)
	return err
}

func (r *installmentRepository) GetByID(ctx context.Context, installmentID uuid.UUID) (*domain.LoanInstallment, error) {
	return r.get(ctx, `SELECT `+installmentColumns+` FROM loan_installments WHERE id = $1`, installmentID)
}

func (r *installmentRepository) GetByIDForUpdate(ctx context.Context, installmentID uuid.UUID) (*domain.LoanInstallment, error) {
	return r.get(ctx, `SELECT `+installmentColumns+` FROM loan_installments WHERE id = $1 FOR UPDATE`, installmentID)
}

func (r *installmentRepository) get(ctx context.Context, query string, installmentID uuid.UUID) (*domain.LoanInstallment, error) {
	var inst domain.LoanInstallment
	if err := sqlx.GetContext(ctx, r.db, &inst, query, installmentID); err != nil {
		return nil, err
	}
	return &inst, nil
}

func (r *installmentRepository) ListByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanInstallment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM loan_installments
		WHERE loan_id = $1
		ORDER BY installment_number
	`

	installments := make([]*domain.LoanInstallment, 0)
	if err := sqlx.SelectContext(ctx, r.db, &installments, query, loanID); err != nil {
		return nil, err
	}
	return installments, nil
}

func (r *installmentRepository) ApplyPayment(ctx context.Context, installmentID uuid.UUID, amount decimal.Decimal, recordedBy uuid.UUID, at time.Time) (*domain.LoanInstallment, bool, error) {
	// The WHERE guard makes the increment a compare-and-set: a concurrent
	// payment that would push paid_amount past amount updates nothing.
	query := `
		UPDATE loan_installments
		SET paid_amount = paid_amount + $2,
			is_paid = (paid_amount + $2 >= amount),
			paid_at = CASE WHEN paid_at IS NULL AND paid_amount + $2 >= amount THEN $4 ELSE paid_at END,
			recorded_by = $3,
			updated_at = $4
		WHERE id = $1 AND paid_amount + $2 <= amount
		RETURNING ` + installmentColumns

	var inst domain.LoanInstallment
	err := sqlx.GetContext(ctx, r.db, &inst, query, installmentID, amount, recordedBy, at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &inst, true, nil
}

func (r *installmentRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*domain.LoanInstallment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM loan_installments
		WHERE is_paid = FALSE AND due_date < $1::date
		ORDER BY due_date, loan_id, installment_number
	`

	installments := make([]*domain.LoanInstallment, 0)
	if err := sqlx.SelectContext(ctx, r.db, &installments, query, calendarDate(asOf)); err != nil {
		return nil, err
	}
	return installments, nil
}

func (r *installmentRepository) SumRepaid(ctx context.Context, start, end time.Time) (domain.RepaymentTotals, error) {
	query := `
		SELECT COALESCE(SUM(paid_amount), 0) AS repaid, COALESCE(SUM(interest_amount), 0) AS interest
		FROM loan_installments
		WHERE is_paid = TRUE AND paid_at BETWEEN $1 AND $2
	`

	var totals domain.RepaymentTotals
	err := sqlx.GetContext(ctx, r.db, &totals, query, start, end)
	return totals, err
}

func (r *installmentRepository) SumDue(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM loan_installments
		WHERE due_date BETWEEN $1::date AND $2::date
	`

	var total decimal.Decimal
	err := sqlx.GetContext(ctx, r.db, &total, query, calendarDate(start), calendarDate(end))
	return total, err
}

func (r *installmentRepository) SumCollected(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(paid_amount), 0)
		FROM loan_installments
		WHERE paid_amount > 0 AND paid_at BETWEEN $1 AND $2
	`

	var total decimal.Decimal
	err := sqlx.GetContext(ctx, r.db, &total, query, start, end)
	return total, err
}

func (r *installmentRepository) SumOutstandingDueBy(ctx context.Context, end time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount - paid_amount), 0)
		FROM loan_installments
		WHERE is_paid = FALSE AND due_date <= $1::date
	`

	var total decimal.Decimal
	err := sqlx.GetContext(ctx, r.db, &total, query, calendarDate(end))
	return total, err
}

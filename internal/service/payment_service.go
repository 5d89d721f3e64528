package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/segyhp/coop-engine/internal/cache"
	"github.com/segyhp/coop-engine/internal/domain"
	"github.com/segyhp/coop-engine/internal/events"
	"github.com/segyhp/coop-engine/internal/repository"
	customError "github.com/segyhp/coop-engine/pkg/errors"
	"github.com/segyhp/coop-engine/pkg/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type PaymentService struct {
	uow    repository.UnitOfWork
	notify notifier
	log    zerolog.Logger

	Now func() time.Time
}

func NewPaymentService(
	uow repository.UnitOfWork,
	publisher events.Publisher,
	reports cache.ReportCache,
	log zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		uow:    uow,
		notify: notifier{publisher: publisher, reports: reports, log: log},
		log:    log,
		Now:    time.Now,
	}
}

// RecordPayment applies a payment to one installment and lowers the loan's
// remaining balance by the same amount. Both writes commit together.
func (s *PaymentService) RecordPayment(ctx context.Context, request *domain.RecordPaymentRequest) (*domain.LoanInstallment, error) {
	if !request.PaidAmount.IsPositive() {
		return nil, customError.WrapValidation("paid_amount must be greater than 0")
	}
	if !utils.FitsScale(request.PaidAmount, domain.CurrencyPlaces) {
		return nil, customError.WrapValidation("paid_amount must have at most 2 decimal places")
	}
	if request.RecordedBy == uuid.Nil {
		return nil, customError.WrapValidation("recorded_by is required")
	}

	var installment *domain.LoanInstallment

	err := s.uow.WithinTx(ctx, func(r repository.Repos) error {
		inst, err := r.Installments.GetByIDForUpdate(ctx, request.InstallmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapInstallmentNotFound(request.InstallmentID.String())
		}
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		loan, err := r.Loans.GetByIDForUpdate(ctx, inst.LoanID)
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapLoanNotFound(inst.LoanID.String())
		}
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if loan.Status != domain.LoanStatusActive {
			return customError.WrapInvalidLoanState(loan.ID.String(), string(loan.Status), "record payment on")
		}

		if inst.PaidAmount.Add(request.PaidAmount).GreaterThan(inst.Amount) {
			return overpayment(inst, request)
		}

		updated, ok, err := r.Installments.ApplyPayment(ctx, inst.ID, request.PaidAmount, request.RecordedBy, s.Now().UTC())
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if !ok {
			return overpayment(inst, request)
		}

		if err := r.Loans.DecrementBalance(ctx, loan.ID, request.PaidAmount); err != nil {
			return customError.WrapDatabaseError(err)
		}

		installment = updated
		return nil
	})
	if err != nil {
		if customError.CodeOf(err) == customError.ErrCodeOverpayment {
			s.log.Warn().
				Str("installment_id", request.InstallmentID.String()).
				Str("paid_amount", request.PaidAmount.StringFixed(2)).
				Msg("payment rejected")
		}
		return nil, txError(err)
	}

	normalize(installment)

	s.log.Info().
		Str("installment_id", installment.ID.String()).
		Str("loan_id", installment.LoanID.String()).
		Str("paid_amount", request.PaidAmount.StringFixed(2)).
		Str("total_paid", installment.PaidAmount.StringFixed(2)).
		Bool("is_paid", installment.IsPaid).
		Bool("partial", installment.IsPartiallyPaid()).
		Msg("installment payment recorded")

	s.notify.committed(ctx, events.New(events.InstallmentPaymentMade, installment), true)

	return installment, nil
}

func overpayment(inst *domain.LoanInstallment, request *domain.RecordPaymentRequest) error {
	return customError.WrapOverpayment(
		inst.ID.String(),
		request.PaidAmount.StringFixed(2),
		inst.Outstanding().StringFixed(2),
	)
}

// normalize rounds the monetary fields to currency precision
func normalize(inst *domain.LoanInstallment) {
	inst.Amount = utils.RoundCurrency(inst.Amount)
	inst.PrincipalAmount = utils.RoundCurrency(inst.PrincipalAmount)
	inst.InterestAmount = utils.RoundCurrency(inst.InterestAmount)
	inst.PaidAmount = utils.RoundCurrency(inst.PaidAmount)
}

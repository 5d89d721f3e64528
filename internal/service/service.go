package service

import (
	"context"
	"time"

	"github.com/segyhp/coop-engine/internal/cache"
	"github.com/segyhp/coop-engine/internal/domain"
	"github.com/segyhp/coop-engine/internal/events"
	customError "github.com/segyhp/coop-engine/pkg/errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LoanManager is the loan lifecycle exposed to transports
type LoanManager interface {
	Apply(ctx context.Context, request *domain.ApplyLoanRequest) (*domain.Loan, error)
	Process(ctx context.Context, request *domain.ProcessLoanRequest) (*domain.Loan, []*domain.LoanInstallment, error)
	GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)
	ListInstallments(ctx context.Context, loanID uuid.UUID) ([]*domain.LoanInstallment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Loan, error)
	Complete(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)
	ListOverdue(ctx context.Context, asOf time.Time) (*domain.OverdueSummary, error)
}

// PaymentRecorder records installment repayments
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, request *domain.RecordPaymentRequest) (*domain.LoanInstallment, error)
}

// ReportGenerator builds financial reports over a date window
type ReportGenerator interface {
	Generate(ctx context.Context, start, end time.Time) (*domain.FinancialReport, error)
}

// notifier runs the side effects of a committed unit of work. Failures are
// logged only, the write they follow is already durable.
type notifier struct {
	publisher events.Publisher
	reports   cache.ReportCache
	log       zerolog.Logger
}

func (n notifier) committed(ctx context.Context, event events.Event, invalidateReports bool) {
	if invalidateReports && n.reports != nil {
		if err := n.reports.Invalidate(ctx); err != nil {
			n.log.Warn().Err(err).Str("event_type", event.Type).Msg("failed to invalidate report cache")
		}
	}

	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, event); err != nil {
		n.log.Error().Err(err).
			Str("event_id", event.ID.String()).
			Str("event_type", event.Type).
			Msg("failed to publish event")
	}
}

// txError keeps business errors raised inside a unit of work and classifies
// everything else (begin, commit) as a database failure.
func txError(err error) error {
	if customError.IsBusinessError(err) {
		return err
	}
	return customError.WrapDatabaseError(err)
}

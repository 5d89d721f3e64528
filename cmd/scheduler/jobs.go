package main

import (
	"context"
	"time"

	"github.com/segyhp/coop-engine/internal/events"
	"github.com/segyhp/coop-engine/internal/service"
	"github.com/segyhp/coop-engine/pkg/utils"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// jobs holds the periodic work run by the scheduler
type jobs struct {
	loans     service.LoanManager
	reports   service.ReportGenerator
	publisher events.Publisher
	log       zerolog.Logger
	now       func() time.Time
	timeout   time.Duration
}

// overduePayload is the body of an installments.overdue event
type overduePayload struct {
	AsOf   time.Time `json:"as_of"`
	Count  int       `json:"count"`
	Amount string    `json:"amount"`
}

// sweepOverdue reports installments still unpaid after their due date
func (j *jobs) sweepOverdue(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	asOf := utils.DateOnly(j.now())
	summary, err := j.loans.ListOverdue(ctx, asOf)
	if err != nil {
		return err
	}

	j.log.Info().
		Time("as_of", asOf).
		Int("count", summary.Count).
		Str("amount", summary.Amount.StringFixed(2)).
		Msg("overdue sweep finished")

	if summary.Count == 0 {
		return nil
	}

	event := events.New(events.InstallmentsOverdue, overduePayload{
		AsOf:   asOf,
		Count:  summary.Count,
		Amount: summary.Amount.StringFixed(2),
	})
	if err := j.publisher.Publish(ctx, event); err != nil {
		j.log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to publish overdue event")
	}
	return nil
}

// warmReports primes the report cache for the current month to date and the
// previous full month.
func (j *jobs) warmReports(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	today := utils.DateOnly(j.now())
	monthStart := today.AddDate(0, 0, 1-today.Day())
	prevStart := monthStart.AddDate(0, -1, 0)

	windows := [][2]time.Time{
		{monthStart, utils.EndOfDay(today)},
		{prevStart, monthStart.Add(-time.Microsecond)},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range windows {
		start, end := w[0], w[1]
		g.Go(func() error {
			if _, err := j.reports.Generate(gctx, start, end); err != nil {
				return err
			}
			j.log.Debug().Time("start", start).Time("end", end).Msg("report warmed")
			return nil
		})
	}
	return g.Wait()
}

// run adapts a job to cron, logging failures
func (j *jobs) run(name string, job func(context.Context) error) func() {
	return func() {
		started := j.now()
		if err := job(context.Background()); err != nil {
			j.log.Error().Err(err).Str("job", name).Msg("scheduled job failed")
			return
		}
		j.log.Info().Str("job", name).Dur("duration", j.now().Sub(started)).Msg("scheduled job completed")
	}
}

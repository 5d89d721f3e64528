package main

import (
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/coop-engine/internal/cache"
	"github.com/segyhp/coop-engine/internal/config"
	"github.com/segyhp/coop-engine/internal/events"
	"github.com/segyhp/coop-engine/internal/repository"
	"github.com/segyhp/coop-engine/internal/service"
	"github.com/segyhp/coop-engine/pkg/logger"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog := logger.Component(logger.New(cfg.Logging.Level, cfg.Logging.Format), "scheduler")
	appLog.Info().Msg("starting coop scheduler")

	db, err := repository.OpenDatabase(cfg.Database)
	if err != nil {
		appLog.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	redisClient, err := cache.OpenRedis(cfg.Redis)
	if err != nil {
		appLog.Fatal().Err(err).Msg("failed to initialize redis")
	}
	defer redisClient.Close()

	publisher, closePublisher, err := events.NewPublisher(cfg.AMQP, logger.Component(appLog, "events"))
	if err != nil {
		appLog.Fatal().Err(err).Msg("failed to initialize event publisher")
	}
	defer closePublisher()

	uow := repository.NewUnitOfWork(db)
	reportCache := cache.NewRedisReportCache(redisClient, cfg.Business.ReportCacheTTL)

	j := &jobs{
		loans:     service.NewLoanService(uow, publisher, reportCache, appLog),
		reports:   service.NewReportService(uow, reportCache, appLog),
		publisher: publisher,
		log:       appLog,
		now:       time.Now,
		timeout:   5 * time.Minute,
	}

	cronLog := cron.PrintfLogger(stdlog.New(appLog, "cron: ", 0))
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(cfg.SchedulerLocation()),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	// Schedule tasks
	if err := setupCronJobs(c, cfg, j); err != nil {
		appLog.Fatal().Err(err).Msg("failed to schedule jobs")
	}

	c.Start()
	appLog.Info().Str("timezone", cfg.Scheduler.Timezone).Msg("scheduler started")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info().Msg("shutting down scheduler")
	<-c.Stop().Done()
	appLog.Info().Msg("scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, j *jobs) error {
	// Daily sweep of installments past their due date
	if _, err := c.AddFunc(cfg.Scheduler.OverdueSpec, j.run("overdue_sweep", j.sweepOverdue)); err != nil {
		return err
	}

	// Daily report cache warm-up ahead of office hours
	if _, err := c.AddFunc(cfg.Scheduler.WarmupSpec, j.run("report_warmup", j.warmReports)); err != nil {
		return err
	}

	return nil
}

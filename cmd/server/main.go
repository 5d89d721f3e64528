package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segyhp/coop-engine/internal/cache"
	"github.com/segyhp/coop-engine/internal/config"
	"github.com/segyhp/coop-engine/internal/events"
	"github.com/segyhp/coop-engine/internal/handler"
	"github.com/segyhp/coop-engine/internal/middleware"
	"github.com/segyhp/coop-engine/internal/repository"
	"github.com/segyhp/coop-engine/internal/service"
	"github.com/segyhp/coop-engine/pkg/logger"
	"github.com/segyhp/coop-engine/pkg/response"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Logger = appLog

	// Money travels as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Initialize database
	db, err := repository.OpenDatabase(cfg.Database)
	if err != nil {
		appLog.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	// Initialize Redis
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
	if !cfg.EventsEnabled() {
		appLog.Warn().Msg("AMQP_URL not set, domain events are discarded")
	}

	// Initialize services
	uow := repository.NewUnitOfWork(db)
	reportCache := cache.NewRedisReportCache(redisClient, cfg.Business.ReportCacheTTL)
	serviceLog := logger.Component(appLog, "service")

	loanService := service.NewLoanService(uow, publisher, reportCache, serviceLog)
	paymentService := service.NewPaymentService(uow, publisher, reportCache, serviceLog)
	reportService := service.NewReportService(uow, reportCache, serviceLog)

	validator := handler.NewValidator()
	handlers := routeHandlers{
		loan:    handler.NewLoanHandler(loanService, validator),
		payment: handler.NewPaymentHandler(paymentService, validator),
		report:  handler.NewReportHandler(reportService, validator),
		health:  handler.NewHealthHandler(db, redisClient, cfg.Health.Timeout),
	}

	// Setup routes
	router := setupRoutes(handlers, redisClient, cfg, logger.Component(appLog, "http"))

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLog.Info().Str("addr", server.Addr).Str("env", cfg.Server.Env).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLog.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLog.Error().Err(err).Msg("server stopped with error")
		return
	}

	appLog.Info().Msg("server exited")
}

type routeHandlers struct {
	loan    *handler.LoanHandler
	payment *handler.PaymentHandler
	report  *handler.ReportHandler
	health  *handler.HealthHandler
}

func setupRoutes(h routeHandlers, redisClient *redis.Client, cfg *config.Config, httpLog zerolog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(httpLog))
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", h.health.Health).Methods("GET")
	router.HandleFunc("/health/ready", h.health.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Idempotency(redisClient, cfg.Business.IdempotencyTTL, httpLog))

	api.HandleFunc("/loans", h.loan.ApplyForLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}", h.loan.GetLoan).Methods("GET")
	api.HandleFunc("/loans/{loanId}/installments", h.loan.ListInstallments).Methods("GET")
	api.HandleFunc("/loans/{loanId}/process", h.loan.ProcessLoan).Methods("POST")
	api.HandleFunc("/loans/{loanId}/complete", h.loan.CompleteLoan).Methods("POST")
	api.HandleFunc("/users/{userId}/loans", h.loan.ListUserLoans).Methods("GET")
	api.HandleFunc("/installments/{installmentId}/payments", h.payment.RecordPayment).Methods("POST")
	api.HandleFunc("/reports/financial", h.report.FinancialReport).Methods("GET")

	return router
}

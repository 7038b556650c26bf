package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"github.com/sirupsen/logrus"

	"github.com/harmonia-labs/lessonbook/internal/adapter/fsm"
	"github.com/harmonia-labs/lessonbook/internal/adapter/otel"
	"github.com/harmonia-labs/lessonbook/internal/adapter/river"
	"github.com/harmonia-labs/lessonbook/internal/adapter/sched"
	"github.com/harmonia-labs/lessonbook/internal/adapter/sqlite"
	"github.com/harmonia-labs/lessonbook/internal/app"
	"github.com/harmonia-labs/lessonbook/internal/infra/config"
	"github.com/harmonia-labs/lessonbook/internal/infra/logger"

	handler "github.com/harmonia-labs/lessonbook/internal/adapter/http"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("exiting")
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg)

	// --- Telemetry ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("telemetry shutdown")
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		return err
	}

	riverClient, err := river.Setup(ctx, db, log)
	if err != nil {
		return err
	}
	if err := riverClient.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			log.WithError(err).Warn("river shutdown")
		}
	}()

	publisher := otel.NewTracingPublisher(river.NewPublisher(riverClient))
	validator := otel.NewTracingValidator(fsm.New())

	// --- Application ---
	ledger := app.NewLedger()
	engine := app.NewEngine(ledger, validator)

	requests := app.NewRequestService(repo)
	quotes := app.NewQuoteService(repo, engine, ledger, publisher, log)
	lessons := app.NewLessonService(repo, engine, ledger, publisher, log)
	rates := app.NewRateService(repo, engine, ledger, publisher, log)
	plans := app.NewPlanService(repo, engine, ledger, publisher, log)

	// --- Background jobs ---
	sweeper, err := sched.New(cfg.CronSpecQuoteExpiry, quotes, log)
	if err != nil {
		return err
	}
	sweeper.Start()
	defer sweeper.Stop()

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(otelchi.Middleware("lessonbook", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("lessonbook", "0.1.0"))
	handler.Register(api, handler.Services{
		Requests: requests,
		Quotes:   quotes,
		Lessons:  lessons,
		Rates:    rates,
		Plans:    plans,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("lessonbook listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}

	log.Info("stopped")
	return nil
}

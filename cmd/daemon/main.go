// Package main provides the long-running daemon that schedules selection
// and calibration cycles.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/database"
	"github.com/yourusername/slipsmith/internal/health"
	"github.com/yourusername/slipsmith/internal/logger"
	"github.com/yourusername/slipsmith/internal/metrics"
	"github.com/yourusername/slipsmith/internal/notify"
	"github.com/yourusername/slipsmith/internal/repository"
	"github.com/yourusername/slipsmith/internal/scheduler"
	"github.com/yourusername/slipsmith/internal/service"
	slipsignal "github.com/yourusername/slipsmith/internal/signal"
)

func main() {
	cfg, err := config.LoadWithDefaults(os.Getenv("SLIPSMITH_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
	}).Info("Slipsmith daemon starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewDB(ctx, cfg.GetDatabaseDSN(), cfg.Database.MaxConnections)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()
	appLog.Info("Database connection established")

	repos := &repository.Repositories{
		Slip:       repository.NewPostgresSlipRepository(db),
		Outcome:    repository.NewPostgresOutcomeRepository(db),
		Weight:     repository.NewPostgresWeightRepository(db),
		Pattern:    repository.NewPostgresPatternRepository(db),
		Adaptation: repository.NewPostgresAdaptationRepository(db),
	}

	fetcher := buildFetcher(cfg, appLog)
	notifier := buildNotifier(cfg, appLog)

	selectionSvc := service.NewSelectionService(repos, cfg, fetcher, notifier, appLog)
	calibrationSvc := service.NewCalibrationService(repos, cfg, service.NewFetcherSlateSource(fetcher), appLog)

	sched := scheduler.NewScheduler(selectionSvc, calibrationSvc, appLog)
	if err := sched.ScheduleSelection(cfg.Schedule.SelectionCron); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule selection cycle")
	}
	if err := sched.ScheduleCalibration(cfg.Schedule.CalibrationCron); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule calibration cycle")
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Port:        cfg.Metrics.HealthPort,
		Logger:      appLog,
		DB:          db,
		Scheduler:   sched,
	})
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}
	healthServer.SetReady(true)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			appLog.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLog.WithError(err).Error("Metrics server error")
			}
		}()
	}

	appLog.WithFields(logrus.Fields{
		"selection_cron":   cfg.Schedule.SelectionCron,
		"calibration_cron": cfg.Schedule.CalibrationCron,
		"next_run":         sched.GetNextRun().UTC().Format(time.RFC3339),
	}).Info("Daemon is running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	cancel()
	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Error during scheduler shutdown")
	}
	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLog.WithError(err).Error("Error during metrics server shutdown")
		}
	}

	appLog.Info("Slipsmith daemon shut down successfully")
}

func buildFetcher(cfg *config.Config, log *logrus.Logger) *slipsignal.Fetcher {
	httpCfg := slipsignal.DefaultHTTPClientConfig()
	httpCfg.RateLimit = cfg.Sources.RateLimit
	httpCfg.MaxRetries = cfg.Sources.MaxRetries
	client := slipsignal.NewRateLimitedHTTPClient(httpCfg, log)

	engines := make([]slipsignal.Engine, 0, len(cfg.Sources.Engines))
	for _, ec := range cfg.EnabledEngines() {
		engines = append(engines, slipsignal.NewHTTPEngine(client, ec.Name, ec.URL, ec.APIKey, ec.Enabled, log))
	}

	feedCache := slipsignal.NewFeedCache(time.Duration(cfg.Sources.CacheTTLSeconds) * time.Second)
	return slipsignal.NewFetcher(engines, feedCache, time.Duration(cfg.Sources.FanoutTimeoutSeconds)*time.Second, log)
}

func buildNotifier(cfg *config.Config, log *logrus.Logger) notify.Notifier {
	if !cfg.Notify.Enabled {
		return notify.NoopNotifier{}
	}
	return notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChat, log)
}

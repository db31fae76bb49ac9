// Package main provides the entry point for the calibration CLI tool.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/slipsmith/internal/calibration"
	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/database"
	"github.com/yourusername/slipsmith/internal/logger"
	"github.com/yourusername/slipsmith/internal/repository"
	"github.com/yourusername/slipsmith/internal/service"
	"github.com/yourusername/slipsmith/internal/signal"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "Path to config file")
		skipSlate  = flag.Bool("skip-slate", false, "Skip the live slate fetch for regime detection")
	)
	flag.Parse()

	ctx := context.Background()

	cfg := loadConfigWithSecrets(*configPath)
	appLog := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	db, err := database.NewDB(ctx, cfg.GetDatabaseDSN(), cfg.Database.MaxConnections)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	repos := &repository.Repositories{
		Slip:       repository.NewPostgresSlipRepository(db),
		Outcome:    repository.NewPostgresOutcomeRepository(db),
		Weight:     repository.NewPostgresWeightRepository(db),
		Pattern:    repository.NewPostgresPatternRepository(db),
		Adaptation: repository.NewPostgresAdaptationRepository(db),
	}

	var slate calibration.SlateSource
	if !*skipSlate {
		slate = service.NewFetcherSlateSource(buildFetcher(cfg, appLog))
	}
	svc := service.NewCalibrationService(repos, cfg, slate, appLog)

	appLog.Info("Starting calibration cycle")
	state, err := svc.Run(ctx)
	if err != nil {
		appLog.WithError(err).Fatal("Calibration cycle failed")
	}

	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		appLog.WithError(err).Fatal("Failed to render adaptation state")
	}
	fmt.Println(string(out))
}

func loadConfigWithSecrets(path string) *config.Config {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			fmt.Fprintln(os.Stderr, "AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
			os.Exit(1)
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load secrets: %v\n", err)
			os.Exit(1)
		}
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func buildFetcher(cfg *config.Config, log *logrus.Logger) *signal.Fetcher {
	httpCfg := signal.DefaultHTTPClientConfig()
	httpCfg.RateLimit = cfg.Sources.RateLimit
	httpCfg.MaxRetries = cfg.Sources.MaxRetries
	client := signal.NewRateLimitedHTTPClient(httpCfg, log)

	engines := make([]signal.Engine, 0, len(cfg.Sources.Engines))
	for _, ec := range cfg.EnabledEngines() {
		engines = append(engines, signal.NewHTTPEngine(client, ec.Name, ec.URL, ec.APIKey, ec.Enabled, log))
	}

	feedCache := signal.NewFeedCache(time.Duration(cfg.Sources.CacheTTLSeconds) * time.Second)
	return signal.NewFetcher(engines, feedCache, time.Duration(cfg.Sources.FanoutTimeoutSeconds)*time.Second, log)
}

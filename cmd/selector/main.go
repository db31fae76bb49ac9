// Package main provides the on-demand selection CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/slipsmith/internal/calibration"
	"github.com/yourusername/slipsmith/internal/config"
	"github.com/yourusername/slipsmith/internal/database"
	"github.com/yourusername/slipsmith/internal/logger"
	"github.com/yourusername/slipsmith/internal/notify"
	"github.com/yourusername/slipsmith/internal/repository"
	"github.com/yourusername/slipsmith/internal/service"
	"github.com/yourusername/slipsmith/internal/signal"
)

var (
	configPath   string
	force        bool
	replay       bool
	historyLimit int

	cfg    *config.Config
	appLog *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "selector",
	Short: "Slipsmith selection cycle tool",
	Long:  "Runs slip selection cycles on demand and inspects the current quality gates.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(configPath)
		if err != nil {
			return err
		}
		appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one selection cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := connectDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := buildSelectionService(db)
		result, err := svc.RunCycle(ctx, service.RunOptions{Force: force, Replay: replay})
		if err != nil {
			return fmt.Errorf("selection cycle failed: %w", err)
		}

		return printJSON(result.Summary)
	},
}

var gatesCmd = &cobra.Command{
	Use:   "gates",
	Short: "Show the current quality gates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := connectDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		adaptationRepo := repository.NewPostgresAdaptationRepository(db)
		if historyLimit > 0 {
			states, err := adaptationRepo.GetHistory(ctx, historyLimit)
			if err != nil {
				return fmt.Errorf("failed to load adaptation history: %w", err)
			}
			return printJSON(states)
		}

		state, err := adaptationRepo.GetLatest(ctx)
		if err != nil {
			appLog.WithError(err).Warn("No adaptation state found, showing initial gates")
			return printJSON(calibration.InitialGates(cfg.Gates))
		}
		return printJSON(state.Gates)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "Path to config file")
	runCmd.Flags().BoolVar(&force, "force", false, "Bypass the one-output-per-period guard")
	runCmd.Flags().BoolVar(&replay, "replay", false, "Reproduce the prior cycle's categorical pattern")
	gatesCmd.Flags().IntVar(&historyLimit, "history", 0, "Show the last N adaptation states instead of the current gates")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(gatesCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return nil, fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return nil, fmt.Errorf("failed to load secrets: %w", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func connectDB(ctx context.Context) (*database.DB, error) {
	db, err := database.NewDB(ctx, cfg.GetDatabaseDSN(), cfg.Database.MaxConnections)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func buildSelectionService(db *database.DB) *service.SelectionService {
	repos := &repository.Repositories{
		Slip:       repository.NewPostgresSlipRepository(db),
		Outcome:    repository.NewPostgresOutcomeRepository(db),
		Weight:     repository.NewPostgresWeightRepository(db),
		Pattern:    repository.NewPostgresPatternRepository(db),
		Adaptation: repository.NewPostgresAdaptationRepository(db),
	}
	return service.NewSelectionService(repos, cfg, buildFetcher(cfg, appLog), buildNotifier(cfg, appLog), appLog)
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

func buildNotifier(cfg *config.Config, log *logrus.Logger) notify.Notifier {
	if !cfg.Notify.Enabled {
		return notify.NoopNotifier{}
	}
	return notify.NewTelegramNotifier(cfg.Notify.TelegramToken, cfg.Notify.TelegramChat, log)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

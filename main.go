package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Dhimazz28/SecureHive/config"
	"github.com/Dhimazz28/SecureHive/handlers"
	"github.com/Dhimazz28/SecureHive/services"
	"github.com/Dhimazz28/SecureHive/storage"
	"github.com/Dhimazz28/SecureHive/system"
)

// Overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

// configKeys lists every viper key so SECUREHIVE_* environment variables
// reach Unmarshal even without a config file or flag.
var configKeys = []string{
	"server.listen_address",
	"server.static_dir",
	"database.path",
	"database.retention_days",
	"simulator.enabled",
	"simulator.seed_on_empty",
	"simulator.log_interval_min_seconds",
	"simulator.log_interval_max_seconds",
	"simulator.pattern_interval_min_seconds",
	"simulator.pattern_interval_max_seconds",
	"simulator.pattern_inject_chance",
	"simulator.new_pattern_random_rate",
	"simulator.anomaly_interval_minutes",
	"simulator.anomaly_batch_size",
	"analysis.api_key",
	"analysis.model",
	"analysis.base_url",
	"analysis.timeout_seconds",
	"analysis.min_call_seconds",
	"analysis.cooldown_minutes",
	"alerts.webhook_url",
	"alerts.risk_threshold",
	"alerts.cooldown_minutes",
	"geoip.db_path",
	"environment",
	"log_level",
	"log_file",
}

var rootCmd = &cobra.Command{
	Use:           "securehive",
	Short:         "Honeypot telemetry dashboard backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and exit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("securehive " + version)
	},
}

func init() {
	viper.SetEnvPrefix("SECUREHIVE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	for _, key := range configKeys {
		viper.BindEnv(key)
	}

	// Booleans cannot distinguish unset from false, so they default here
	// instead of in Validate.
	viper.SetDefault("simulator.enabled", true)
	viper.SetDefault("simulator.seed_on_empty", true)

	flags := rootCmd.PersistentFlags()
	flags.String("listen", ":8080", "listen address")
	flags.String("db", "./securehive.db", "sqlite database path")
	flags.String("static-dir", "./frontend/dist", "dashboard static files directory")
	flags.String("log-level", "info", "log level (trace|debug|info|warn|error)")
	flags.String("log-file", "", "optional log file, teed with stdout")
	flags.String("environment", "development", "environment (development|production)")

	viper.BindPFlag("server.listen_address", flags.Lookup("listen"))
	viper.BindPFlag("database.path", flags.Lookup("db"))
	viper.BindPFlag("server.static_dir", flags.Lookup("static-dir"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_file", flags.Lookup("log-file"))
	viper.BindPFlag("environment", flags.Lookup("environment"))

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	viper.SetConfigName("securehive")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/securehive")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := system.InitLogger(system.LogConfig{
		Level:   cfg.LogLevel,
		Console: !cfg.IsProduction(),
		File:    cfg.LogFile,
	}); err != nil {
		return err
	}
	defer system.CloseLogger()

	system.Info().
		Str("version", version).
		Str("environment", cfg.Environment).
		Msg("SecureHive backend starting")

	store, err := storage.OpenDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	system.Info().Str("path", cfg.Database.Path).Msg("database ready")

	geoip := services.NewGeoIPService(cfg.GeoIP.DBPath)
	defer geoip.Close()

	gen := services.NewGenerator(nil)
	scorer := services.NewScorer(nil, cfg.Simulator.NewPatternRandomRate)
	analyzer := services.NewAIAnalyzer(cfg.Analysis, nil)
	sysInfo := services.NewSysInfoService()
	webhook := services.NewWebhookService(cfg.Alerts.WebhookURL, cfg.Alerts.RiskThreshold, cfg.AlertCooldown())

	if analyzer.Enabled() {
		system.Info().Str("model", cfg.Analysis.Model).Msg("remote analysis enabled")
	} else {
		system.Info().Msg("no analysis API key, running heuristic-only")
	}

	sim := services.NewSimulator(store, gen, scorer, analyzer, webhook, cfg, nil)

	if cfg.Simulator.SeedOnEmpty {
		if err := sim.SeedIfEmpty(); err != nil {
			system.Warn().Err(err).Msg("initial seed failed")
		}
	}

	sim.Start()
	system.AddEvent("startup", "SecureHive backend started")

	h := handlers.NewHandler(store, gen, scorer, analyzer, geoip, sysInfo, webhook, cfg)

	app := fiber.New(fiber.Config{
		AppName: "SecureHive " + version,
	})

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		Output:     os.Stdout,
	}))
	app.Use(cors.New())

	api := app.Group("/api")

	// Dashboard
	api.Get("/metrics", h.GetMetrics)
	api.Get("/health", h.GetHealth)

	// Traffic logs
	api.Get("/traffic-logs", h.GetTrafficLogs)
	api.Post("/traffic-logs", h.CreateTrafficLog)

	// Attack patterns
	api.Get("/attack-patterns", h.GetAttackPatterns)
	api.Patch("/attack-patterns/:id", h.UpdatePatternStatus)

	// Analysis & model
	api.Get("/ai-analysis", h.GetAIAnalyses)
	api.Get("/dataset-stats", h.GetDatasetStats)
	api.Post("/retrain-model", h.RetrainModel)

	// Threat views
	api.Get("/threat-intelligence", h.GetThreatIntelligence)
	api.Get("/threat-trends", h.GetThreatTrends)
	api.Get("/geographic-threats", h.GetGeographicThreats)

	// System
	api.Get("/system-status", h.GetSystemStatus)
	api.Get("/events", h.GetEvents)
	api.Get("/security-config", h.GetSecurityConfig)
	api.Post("/security-config", h.UpdateSecurityConfig)
	api.Get("/export-report", h.ExportReport)
	api.Post("/test-alert", h.SendTestAlert)

	// Prometheus scrape endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Serve the dashboard build when present, with SPA fallback
	if _, err := os.Stat(cfg.Server.StaticDir); err == nil {
		app.Static("/", cfg.Server.StaticDir, fiber.Static{
			ByteRange: true,
			MaxAge:    3600,
		})
		app.Get("/*", func(c *fiber.Ctx) error {
			return c.SendFile(filepath.Join(cfg.Server.StaticDir, "index.html"))
		})
	}

	go func() {
		// Wait for the listener to come up before announcing.
		time.Sleep(2 * time.Second)

		msg := fmt.Sprintf("Backend running on **%s** (%s)", cfg.Server.ListenAddress, cfg.Environment)
		if err := webhook.SendSystemAlert("🚀 SecureHive Started", msg, services.ColorGreen); err != nil {
			system.Warn().Err(err).Msg("startup alert failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		system.Info().Msg("gracefully shutting down")

		sim.Stop()

		if err := webhook.SendSystemAlert("🛑 SecureHive Stopping", "Backend is shutting down", services.ColorOrange); err != nil {
			system.Warn().Err(err).Msg("shutdown alert failed")
		}

		_ = app.Shutdown()
	}()

	system.Info().Str("listen", cfg.Server.ListenAddress).Msg("server starting")

	if err := app.Listen(cfg.Server.ListenAddress); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	return nil
}

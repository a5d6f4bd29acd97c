package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the full application configuration, populated by viper from
// flags and SECUREHIVE_* environment variables.
type Config struct {
	Server      ServerConfig    `mapstructure:"server"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Simulator   SimulatorConfig `mapstructure:"simulator"`
	Analysis    AnalysisConfig  `mapstructure:"analysis"`
	Alerts      AlertsConfig    `mapstructure:"alerts"`
	GeoIP       GeoIPConfig     `mapstructure:"geoip"`
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	LogFile     string          `mapstructure:"log_file"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
	StaticDir     string `mapstructure:"static_dir"`
}

// DatabaseConfig contains sqlite storage configuration.
type DatabaseConfig struct {
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// SimulatorConfig controls the background telemetry feed.
type SimulatorConfig struct {
	Enabled              bool    `mapstructure:"enabled"`
	SeedOnEmpty          bool    `mapstructure:"seed_on_empty"`
	LogIntervalMin       int     `mapstructure:"log_interval_min_seconds"`
	LogIntervalMax       int     `mapstructure:"log_interval_max_seconds"`
	PatternIntervalMin   int     `mapstructure:"pattern_interval_min_seconds"`
	PatternIntervalMax   int     `mapstructure:"pattern_interval_max_seconds"`
	PatternInjectChance  float64 `mapstructure:"pattern_inject_chance"`
	NewPatternRandomRate float64 `mapstructure:"new_pattern_random_rate"`
	AnomalyIntervalMins  int     `mapstructure:"anomaly_interval_minutes"`
	AnomalyBatchSize     int     `mapstructure:"anomaly_batch_size"`
}

// AnalysisConfig contains the remote analysis API configuration. An empty
// APIKey leaves the adapter in permanent heuristic-fallback mode.
type AnalysisConfig struct {
	APIKey          string `mapstructure:"api_key"`
	Model           string `mapstructure:"model"`
	BaseURL         string `mapstructure:"base_url"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	MinCallSeconds  int    `mapstructure:"min_call_seconds"`
	CooldownMinutes int    `mapstructure:"cooldown_minutes"`
}

// AlertsConfig contains webhook alerting configuration. An empty WebhookURL
// disables alerting.
type AlertsConfig struct {
	WebhookURL      string `mapstructure:"webhook_url"`
	RiskThreshold   int    `mapstructure:"risk_threshold"`
	CooldownMinutes int    `mapstructure:"cooldown_minutes"`
}

// GeoIPConfig contains the optional MaxMind database location.
type GeoIPConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// Validate fills defaults and rejects values the server cannot run with.
func (c *Config) Validate() error {
	var errors []string

	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = ":8080"
	}

	if c.Database.Path == "" {
		c.Database.Path = "./securehive.db"
	}

	if c.Database.RetentionDays < 0 {
		errors = append(errors, "database.retention_days must not be negative")
	}

	if c.Simulator.LogIntervalMin <= 0 {
		c.Simulator.LogIntervalMin = 30
	}

	if c.Simulator.LogIntervalMax <= 0 {
		c.Simulator.LogIntervalMax = 60
	}

	if c.Simulator.LogIntervalMax < c.Simulator.LogIntervalMin {
		errors = append(errors, "simulator.log_interval_max_seconds must be >= simulator.log_interval_min_seconds")
	}

	if c.Simulator.PatternIntervalMin <= 0 {
		c.Simulator.PatternIntervalMin = 120
	}

	if c.Simulator.PatternIntervalMax <= 0 {
		c.Simulator.PatternIntervalMax = 180
	}

	if c.Simulator.PatternIntervalMax < c.Simulator.PatternIntervalMin {
		errors = append(errors, "simulator.pattern_interval_max_seconds must be >= simulator.pattern_interval_min_seconds")
	}

	if c.Simulator.PatternInjectChance == 0 {
		c.Simulator.PatternInjectChance = 0.4
	}

	if c.Simulator.PatternInjectChance < 0 || c.Simulator.PatternInjectChance > 1 {
		errors = append(errors, "simulator.pattern_inject_chance must be between 0 and 1")
	}

	if c.Simulator.NewPatternRandomRate == 0 {
		c.Simulator.NewPatternRandomRate = 0.15
	}

	if c.Simulator.NewPatternRandomRate < 0 || c.Simulator.NewPatternRandomRate > 1 {
		errors = append(errors, "simulator.new_pattern_random_rate must be between 0 and 1")
	}

	if c.Simulator.AnomalyIntervalMins <= 0 {
		c.Simulator.AnomalyIntervalMins = 5
	}

	if c.Simulator.AnomalyBatchSize <= 0 {
		c.Simulator.AnomalyBatchSize = 50
	}

	if c.Analysis.Model == "" {
		c.Analysis.Model = "gpt-4o-mini"
	}

	if c.Analysis.BaseURL == "" {
		c.Analysis.BaseURL = "https://api.openai.com/v1"
	}

	if c.Analysis.TimeoutSeconds <= 0 {
		c.Analysis.TimeoutSeconds = 30
	}

	if c.Analysis.MinCallSeconds <= 0 {
		c.Analysis.MinCallSeconds = 2
	}

	if c.Analysis.CooldownMinutes <= 0 {
		c.Analysis.CooldownMinutes = 5
	}

	if c.Alerts.RiskThreshold == 0 {
		c.Alerts.RiskThreshold = 8
	}

	if c.Alerts.RiskThreshold < 1 || c.Alerts.RiskThreshold > 10 {
		errors = append(errors, "alerts.risk_threshold must be between 1 and 10")
	}

	if c.Alerts.CooldownMinutes <= 0 {
		c.Alerts.CooldownMinutes = 10
	}

	if c.Environment == "" {
		c.Environment = "development"
	}

	if c.Environment != "development" && c.Environment != "production" {
		errors = append(errors, "environment must be development or production")
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	levelValid := false

	for _, level := range validLevels {
		if strings.ToLower(c.LogLevel) == level {
			levelValid = true
			break
		}
	}

	if !levelValid {
		errors = append(errors, fmt.Sprintf("log_level must be one of: %s", strings.Join(validLevels, ", ")))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasAnalysisKey reports whether a remote analysis API key is configured.
func (c *Config) HasAnalysisKey() bool {
	return c.Analysis.APIKey != ""
}

// AnalysisTimeout returns the remote request timeout.
func (c *Config) AnalysisTimeout() time.Duration {
	return time.Duration(c.Analysis.TimeoutSeconds) * time.Second
}

// AnalysisMinInterval returns the minimum gap between remote calls.
func (c *Config) AnalysisMinInterval() time.Duration {
	return time.Duration(c.Analysis.MinCallSeconds) * time.Second
}

// AnalysisCooldown returns the pause entered after a quota error.
func (c *Config) AnalysisCooldown() time.Duration {
	return time.Duration(c.Analysis.CooldownMinutes) * time.Minute
}

// AlertCooldown returns the per-category webhook alert suppression window.
func (c *Config) AlertCooldown() time.Duration {
	return time.Duration(c.Alerts.CooldownMinutes) * time.Minute
}

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Dhimazz28/SecureHive/models"
	"github.com/Dhimazz28/SecureHive/system"
)

// SecurityConfig is the dashboard's protection toggle view. The honeypot
// has no enforcement plane, so posted changes are accepted for display but
// never persisted.
type SecurityConfig struct {
	FirewallEnabled  bool `json:"firewallEnabled"`
	IDSEnabled       bool `json:"idsEnabled"`
	AutoBlocking     bool `json:"autoBlocking"`
	GeoBlocking      bool `json:"geoBlocking"`
	AlertingEnabled  bool `json:"alertingEnabled"`
	AlertRiskScore   int  `json:"alertRiskScore"`
	RetentionDays    int  `json:"retentionDays"`
	RemoteAnalysisOn bool `json:"remoteAnalysisOn"`
}

// GetSecurityConfig - Current effective protection toggles
// GET /api/security-config
func (h *Handler) GetSecurityConfig(c *fiber.Ctx) error {
	cfg := SecurityConfig{
		FirewallEnabled:  true,
		IDSEnabled:       true,
		AutoBlocking:     true,
		GeoBlocking:      false,
		AlertingEnabled:  h.Webhook.IsEnabled(),
		AlertRiskScore:   h.Config.Alerts.RiskThreshold,
		RetentionDays:    h.Config.Database.RetentionDays,
		RemoteAnalysisOn: h.Analyzer.Enabled(),
	}

	return c.JSON(cfg)
}

// UpdateSecurityConfig - Accept a posted toggle set without persisting it
// POST /api/security-config
func (h *Handler) UpdateSecurityConfig(c *fiber.Ctx) error {
	var input SecurityConfig
	if err := c.BodyParser(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid input"})
	}

	system.AddEvent("config", "Security configuration update accepted")

	return c.JSON(fiber.Map{
		"message":   "Configuration accepted",
		"persisted": false,
		"config":    input,
	})
}

// SendTestAlert - Fire a test notification at the configured webhook
// POST /api/test-alert
func (h *Handler) SendTestAlert(c *fiber.Ctx) error {
	if !h.Webhook.IsEnabled() {
		return c.Status(400).JSON(fiber.Map{"error": "No webhook configured"})
	}

	if err := h.Webhook.SendTestAlert(); err != nil {
		return serverError(c, err, "test alert delivery failed")
	}

	return c.JSON(fiber.Map{"message": "Test alert sent"})
}

// ThreatReport is the downloadable state-of-the-system export.
type ThreatReport struct {
	ReportID         string                    `json:"reportId"`
	GeneratedAt      time.Time                 `json:"generatedAt"`
	Metrics          *models.SystemMetrics     `json:"metrics,omitempty"`
	DatasetStats     *models.DatasetStats      `json:"datasetStats,omitempty"`
	ActivePatterns   []models.AttackPattern    `json:"activePatterns"`
	RecentAnalyses   []models.AIAnalysisResult `json:"recentAnalyses"`
	TotalLogs        int64                     `json:"totalLogs"`
	TotalPatterns    int64                     `json:"totalPatterns"`
	TotalAnalyses    int64                     `json:"totalAnalyses"`
	CountryBreakdown []models.CountryCount     `json:"countryBreakdown"`
}

// ExportReport - Generate a downloadable threat report
// GET /api/export-report
func (h *Handler) ExportReport(c *fiber.Ctx) error {
	report := ThreatReport{
		ReportID:    uuid.NewString(),
		GeneratedAt: time.Now(),
	}

	// Snapshots may be absent on a fresh install, the report tolerates that.
	if m, err := h.Store.SystemMetrics(); err == nil {
		report.Metrics = m
	}
	if s, err := h.Store.DatasetStats(); err == nil {
		report.DatasetStats = s
	}

	patterns, err := h.Store.ActiveAttackPatterns()
	if err != nil {
		return serverError(c, err, "active patterns query failed")
	}
	report.ActivePatterns = patterns

	analyses, err := h.Store.RecentAnalyses(25)
	if err != nil {
		return serverError(c, err, "recent analyses query failed")
	}
	report.RecentAnalyses = analyses

	if report.TotalLogs, err = h.Store.CountTrafficLogs(); err != nil {
		return serverError(c, err, "log count query failed")
	}
	if report.TotalPatterns, err = h.Store.CountAttackPatterns(); err != nil {
		return serverError(c, err, "pattern count query failed")
	}
	if report.TotalAnalyses, err = h.Store.CountAnalyses(); err != nil {
		return serverError(c, err, "analysis count query failed")
	}

	countries, err := h.Store.CountLogsByCountry()
	if err != nil {
		return serverError(c, err, "country counts query failed")
	}
	report.CountryBreakdown = countries

	filename := "securehive-report-" + time.Now().Format("2006-01-02") + ".json"
	c.Set("Content-Disposition", "attachment; filename="+filename)
	c.Set("Content-Type", "application/json")

	system.AddEvent("report", "Threat report exported")

	return c.JSON(report)
}

package handlers

import (
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Dhimazz28/SecureHive/models"
	"github.com/Dhimazz28/SecureHive/storage"
	"github.com/Dhimazz28/SecureHive/system"
)

// attackTypeAliases maps the dashboard's short filter values to stored
// attack type names. Unknown values apply no filter.
var attackTypeAliases = map[string]string{
	"sql":   "SQL Injection",
	"xss":   "XSS",
	"brute": "Brute Force",
	"ddos":  "DDoS",
}

// GetTrafficLogs - Paginated traffic log listing with filters
// GET /api/traffic-logs?severity=&attackType=&ipAddress=&page=&limit=
func (h *Handler) GetTrafficLogs(c *fiber.Ctx) error {
	page, limit := storage.NormalizePage(c.QueryInt("page", 1), c.QueryInt("limit", 20))

	filter := storage.TrafficLogFilter{
		Severity: c.Query("severity", ""),
		SourceIP: c.Query("ipAddress", ""),
		Page:     page,
		Limit:    limit,
	}

	if alias := c.Query("attackType", ""); alias != "" {
		if mapped, ok := attackTypeAliases[alias]; ok {
			filter.AttackType = mapped
		}
	}

	logs, total, err := h.Store.TrafficLogs(filter)
	if err != nil {
		return serverError(c, err, "traffic logs query failed")
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	return c.JSON(fiber.Map{
		"data":       logs,
		"total":      total,
		"page":       page,
		"limit":      limit,
		"totalPages": totalPages,
	})
}

// CreateTrafficLog - Ingest a log from an external producer
// POST /api/traffic-logs
func (h *Handler) CreateTrafficLog(c *fiber.Ctx) error {
	var log models.TrafficLog
	if err := c.BodyParser(&log); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid input"})
	}

	if log.SourceIP == "" || log.AttackType == "" {
		return c.Status(400).JSON(fiber.Map{"error": "sourceIp and attackType are required"})
	}

	log.ID = 0
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}
	if !models.ValidSeverity(log.Severity) {
		log.Severity = models.SeverityMedium
	}
	if !models.ValidLogStatus(log.Status) {
		log.Status = models.StatusMonitored
	}
	if log.SourceCountry == "" {
		log.SourceCountry = h.GeoIP.Lookup(log.SourceIP)
	}
	if log.Method == "" {
		log.Method = "GET"
	}
	if log.Port == 0 {
		log.Port = 80
	}

	if err := h.Store.CreateTrafficLog(&log); err != nil {
		return serverError(c, err, "failed to store ingested log")
	}

	system.LogsIngested.Inc()

	fallback := h.Scorer.ScoreLog(log)
	analysis := h.Analyzer.AnalyzeLog(c.UserContext(), log, fallback)

	result := analysis.Result(&log.ID)
	if err := h.Store.CreateAnalysis(&result); err != nil {
		return serverError(c, err, "failed to store analysis")
	}
	system.AnalysesStored.WithLabelValues("ingest").Inc()

	if pattern, ok := analysis.PatternRecord(log); ok {
		if err := h.Store.CreateAttackPattern(&pattern); err != nil {
			system.Warn().Err(err).Msg("failed to store flagged pattern")
		} else {
			system.PatternsDetected.WithLabelValues("scorer").Inc()

			if err := h.Webhook.AlertPattern(pattern); err != nil {
				system.Warn().Err(err).Msg("pattern alert failed")
			}
		}
	}

	if err := h.Webhook.AlertAnalysis(log, analysis); err != nil {
		system.Warn().Err(err).Msg("analysis alert failed")
	}

	system.AddEvent("ingest", fmt.Sprintf("Log ingested from %s (%s)", log.SourceIP, log.AttackType))

	return c.Status(201).JSON(fiber.Map{
		"log":      log,
		"analysis": analysis,
	})
}

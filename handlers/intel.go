package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Dhimazz28/SecureHive/models"
	"github.com/Dhimazz28/SecureHive/services"
)

// criticalRiskScore marks an analysis as worth surfacing on the intel view.
const criticalRiskScore = 8

// GetThreatIntelligence - High-level IOC view for the dashboard
// GET /api/threat-intelligence
func (h *Handler) GetThreatIntelligence(c *fiber.Ctx) error {
	attackers, err := h.Store.TopAttackers(10)
	if err != nil {
		return serverError(c, err, "top attackers query failed")
	}

	techniques, err := h.Store.TopTechniques(10)
	if err != nil {
		return serverError(c, err, "top techniques query failed")
	}

	patternCount, err := h.Store.CountAttackPatterns()
	if err != nil {
		return serverError(c, err, "pattern count query failed")
	}

	recent, err := h.Store.RecentAnalyses(50)
	if err != nil {
		return serverError(c, err, "recent analyses query failed")
	}

	critical := make([]models.AIAnalysisResult, 0, 10)
	for _, a := range recent {
		if a.RiskScore >= criticalRiskScore {
			critical = append(critical, a)
			if len(critical) == 10 {
				break
			}
		}
	}

	return c.JSON(fiber.Map{
		"topAttackers":     attackers,
		"topTechniques":    techniques,
		"trackedPatterns":  patternCount,
		"criticalAnalyses": critical,
		"generatedAt":      time.Now(),
	})
}

// GetThreatTrends - Hourly severity breakdown over the last 24 hours
// GET /api/threat-trends
func (h *Handler) GetThreatTrends(c *fiber.Ctx) error {
	// Anchored to UTC hour boundaries so bucket keys are stable regardless
	// of the zone logs were stored in.
	endHour := time.Now().UTC().Truncate(time.Hour)
	startHour := endHour.Add(-23 * time.Hour)

	logs, err := h.Store.TrafficLogsSince(startHour)
	if err != nil {
		return serverError(c, err, "trend window query failed")
	}

	buckets := make([]models.TrendBucket, 0, 24)
	index := make(map[string]int, 24)

	for t := startHour; !t.After(endHour); t = t.Add(time.Hour) {
		key := t.Format(time.RFC3339)
		index[key] = len(buckets)
		buckets = append(buckets, models.TrendBucket{Hour: key})
	}

	for _, log := range logs {
		key := log.Timestamp.UTC().Truncate(time.Hour).Format(time.RFC3339)

		i, ok := index[key]
		if !ok {
			continue
		}

		switch log.Severity {
		case models.SeverityHigh:
			buckets[i].High++
		case models.SeverityMedium:
			buckets[i].Medium++
		default:
			buckets[i].Low++
		}
		buckets[i].Total++
	}

	return c.JSON(fiber.Map{
		"since":  startHour,
		"trends": buckets,
	})
}

// GetGeographicThreats - Per-country log volume with high-risk flags
// GET /api/geographic-threats
func (h *Handler) GetGeographicThreats(c *fiber.Ctx) error {
	counts, err := h.Store.CountLogsByCountry()
	if err != nil {
		return serverError(c, err, "country counts query failed")
	}

	var total int64
	for i := range counts {
		counts[i].HighRisk = services.IsHighRiskCountry(counts[i].Country)
		total += counts[i].Count
	}

	return c.JSON(fiber.Map{
		"countries": counts,
		"total":     total,
	})
}

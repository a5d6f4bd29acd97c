package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Dhimazz28/SecureHive/models"
	"github.com/Dhimazz28/SecureHive/storage"
	"github.com/Dhimazz28/SecureHive/system"
)

// GetAIAnalyses - Most recent analysis results, newest first
// GET /api/ai-analysis?limit=10
func (h *Handler) GetAIAnalyses(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	analyses, err := h.Store.RecentAnalyses(limit)
	if err != nil {
		return serverError(c, err, "recent analyses query failed")
	}

	return c.JSON(analyses)
}

// GetDatasetStats - Current training dataset snapshot
// GET /api/dataset-stats
func (h *Handler) GetDatasetStats(c *fiber.Ctx) error {
	stats, err := h.Store.DatasetStats()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.JSON(fiber.Map{})
		}
		return serverError(c, err, "dataset stats query failed")
	}

	return c.JSON(stats)
}

// RetrainModel - Simulate a model retraining run
// POST /api/retrain-model
func (h *Handler) RetrainModel(c *fiber.Ctx) error {
	stats, err := h.Store.DatasetStats()
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return serverError(c, err, "dataset stats query failed")
		}

		// First retrain on a fresh install starts from a generated baseline.
		generated := h.Generator.DatasetStats()
		stats = &generated
	}

	stats.ModelAccuracy = models.ClampAccuracy(stats.ModelAccuracy + h.Generator.RetrainGain())
	stats.LastTrained = time.Now()
	stats.LastUpdated = time.Now()

	if err := h.Store.SaveDatasetStats(stats); err != nil {
		return serverError(c, err, "failed to save dataset stats")
	}

	system.ModelAccuracy.Set(stats.ModelAccuracy)
	system.AddEvent("retrain", fmt.Sprintf("Model retrained, accuracy now %.2f%%", stats.ModelAccuracy))

	if err := h.Webhook.NotifyRetrain(*stats); err != nil {
		system.Warn().Err(err).Msg("retrain notification failed")
	}

	return c.JSON(stats)
}

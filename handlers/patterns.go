package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/Dhimazz28/SecureHive/models"
	"github.com/Dhimazz28/SecureHive/storage"
	"github.com/Dhimazz28/SecureHive/system"
)

// GetAttackPatterns - Patterns still awaiting review
// GET /api/attack-patterns
func (h *Handler) GetAttackPatterns(c *fiber.Ctx) error {
	patterns, err := h.Store.ActiveAttackPatterns()
	if err != nil {
		return serverError(c, err, "active patterns query failed")
	}

	return c.JSON(patterns)
}

// UpdatePatternStatus - Move a pattern through the review workflow
// PATCH /api/attack-patterns/:id
func (h *Handler) UpdatePatternStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid pattern id"})
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid input"})
	}

	if body.Status == "" {
		return c.Status(400).JSON(fiber.Map{"error": "status is required"})
	}

	if !models.ValidPatternStatus(body.Status) {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid status value"})
	}

	pattern, err := h.Store.UpdateAttackPatternStatus(uint(id), body.Status)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "Pattern not found"})
		}
		return serverError(c, err, "pattern status update failed")
	}

	system.AddEvent("pattern", fmt.Sprintf("Pattern %q moved to %s", pattern.Name, pattern.Status))

	return c.JSON(pattern)
}

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Dhimazz28/SecureHive/config"
	"github.com/Dhimazz28/SecureHive/services"
	"github.com/Dhimazz28/SecureHive/storage"
	"github.com/Dhimazz28/SecureHive/system"
)

type Handler struct {
	Store     storage.Store
	Generator *services.Generator
	Scorer    *services.Scorer
	Analyzer  *services.AIAnalyzer
	GeoIP     *services.GeoIPService
	SysInfo   *services.SysInfoService
	Webhook   *services.WebhookService
	Config    *config.Config
}

func NewHandler(store storage.Store, gen *services.Generator, scorer *services.Scorer, analyzer *services.AIAnalyzer, geoip *services.GeoIPService, sysInfo *services.SysInfoService, webhook *services.WebhookService, cfg *config.Config) *Handler {
	return &Handler{
		Store:     store,
		Generator: gen,
		Scorer:    scorer,
		Analyzer:  analyzer,
		GeoIP:     geoip,
		SysInfo:   sysInfo,
		Webhook:   webhook,
		Config:    cfg,
	}
}

// serverError logs the failure and answers with a fixed body. Internal
// error detail goes to the server log only, never to the client.
func serverError(c *fiber.Ctx, err error, msg string) error {
	system.Error().Err(err).Str("path", c.Path()).Msg(msg)

	return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
}

// GetMetrics - Current dashboard metrics snapshot
// GET /api/metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	m, err := h.Store.SystemMetrics()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// No snapshot yet, the dashboard treats {} as "warming up"
			return c.JSON(fiber.Map{})
		}
		return serverError(c, err, "metrics snapshot query failed")
	}

	return c.JSON(m)
}

// GetHealth - Liveness probe
// GET /api/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

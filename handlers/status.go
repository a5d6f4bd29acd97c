package handlers

import (
	"runtime"

	"github.com/gofiber/fiber/v2"

	"github.com/Dhimazz28/SecureHive/services"
	"github.com/Dhimazz28/SecureHive/system"
)

// SystemStatus is the operational state reported to the dashboard.
type SystemStatus struct {
	Environment      string                  `json:"environment"`
	OS               string                  `json:"os"`
	Uptime           string                  `json:"uptime"`
	CPUUsage         int                     `json:"cpuUsage"`
	MemoryUsage      int                     `json:"memoryUsage"`
	TotalLogs        int64                   `json:"totalLogs"`
	TotalPatterns    int64                   `json:"totalPatterns"`
	TotalAnalyses    int64                   `json:"totalAnalyses"`
	SimulatorEnabled bool                    `json:"simulatorEnabled"`
	Analyzer         services.AnalyzerStatus `json:"analyzer"`
	Events           []system.SystemEvent    `json:"events"`
}

// GetSystemStatus - Current process and store state
// GET /api/system-status
func (h *Handler) GetSystemStatus(c *fiber.Ctx) error {
	totalLogs, err := h.Store.CountTrafficLogs()
	if err != nil {
		return serverError(c, err, "log count query failed")
	}

	totalPatterns, err := h.Store.CountAttackPatterns()
	if err != nil {
		return serverError(c, err, "pattern count query failed")
	}

	totalAnalyses, err := h.Store.CountAnalyses()
	if err != nil {
		return serverError(c, err, "analysis count query failed")
	}

	status := SystemStatus{
		Environment:      h.Config.Environment,
		OS:               runtime.GOOS,
		Uptime:           h.SysInfo.GetUptime(),
		CPUUsage:         h.SysInfo.GetCPUUsage(),
		MemoryUsage:      h.SysInfo.GetMemoryUsage(),
		TotalLogs:        totalLogs,
		TotalPatterns:    totalPatterns,
		TotalAnalyses:    totalAnalyses,
		SimulatorEnabled: h.Config.Simulator.Enabled,
		Analyzer:         h.Analyzer.Status(),
		Events:           system.RecentEvents(20),
	}

	return c.JSON(status)
}

// GetEvents - Recent system events, newest first
// GET /api/events
func (h *Handler) GetEvents(c *fiber.Ctx) error {
	return c.JSON(system.RecentEvents(100))
}

package services

import (
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SysInfoService reports host health for the system-status view.
type SysInfoService struct{}

func NewSysInfoService() *SysInfoService {
	return &SysInfoService{}
}

// GetUptime returns host uptime as a human-readable string.
func (s *SysInfoService) GetUptime() string {
	seconds, err := host.Uptime()
	if err != nil {
		return "unknown"
	}

	duration := time.Duration(seconds) * time.Second
	days := int(duration.Hours()) / 24
	hours := int(duration.Hours()) % 24
	minutes := int(duration.Minutes()) % 60

	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

// GetCPUUsage returns aggregate CPU usage percentage (0-100).
func (s *SysInfoService) GetCPUUsage() int {
	percents, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(percents) == 0 {
		return 0
	}

	return int(percents[0])
}

// GetMemoryUsage returns used memory percentage (0-100).
func (s *SysInfoService) GetMemoryUsage() int {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}

	return int(vm.UsedPercent)
}

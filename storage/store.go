package storage

import (
	"errors"
	"time"

	"github.com/Dhimazz28/SecureHive/models"
)

// ErrNotFound is returned when a requested record does not exist, regardless
// of the backing implementation.
var ErrNotFound = errors.New("record not found")

// TrafficLogFilter narrows and paginates traffic log listings. AttackType is
// matched as a substring; Severity and SourceIP match exactly. Zero values
// leave the corresponding filter off.
type TrafficLogFilter struct {
	Severity   string
	AttackType string
	SourceIP   string
	Page       int
	Limit      int
}

// Store is the persistence gateway. Two implementations exist: DBStore on
// sqlite for normal operation and MemoryStore for tests. Callers never
// branch on which one they hold.
type Store interface {
	// Traffic logs. Logs are immutable; the only delete path is retention.
	CreateTrafficLog(log *models.TrafficLog) error
	TrafficLogs(filter TrafficLogFilter) ([]models.TrafficLog, int64, error)
	RecentTrafficLogs(n int) ([]models.TrafficLog, error)
	TrafficLogsSince(t time.Time) ([]models.TrafficLog, error)
	CountTrafficLogs() (int64, error)
	CountTrafficLogsSince(t time.Time) (int64, error)
	CountTrafficLogsByStatus(status string) (int64, error)
	CountUniqueSourceIPs() (int64, error)
	CountLogsByCountry() ([]models.CountryCount, error)
	TopAttackers(n int) ([]models.AttackerCount, error)
	DeleteTrafficLogsBefore(t time.Time) (int64, error)

	// Attack patterns. Status is the only mutable field.
	CreateAttackPattern(p *models.AttackPattern) error
	AttackPatterns() ([]models.AttackPattern, error)
	ActiveAttackPatterns() ([]models.AttackPattern, error)
	AttackPattern(id uint) (*models.AttackPattern, error)
	UpdateAttackPatternStatus(id uint, status string) (*models.AttackPattern, error)
	CountAttackPatterns() (int64, error)

	// Analysis results. Created once per analyzed log, never mutated.
	CreateAnalysis(a *models.AIAnalysisResult) error
	RecentAnalyses(n int) ([]models.AIAnalysisResult, error)
	CountAnalyses() (int64, error)
	TopTechniques(n int) ([]models.TechniqueCount, error)

	// Snapshots. One current row each, replaced on save.
	SystemMetrics() (*models.SystemMetrics, error)
	SaveSystemMetrics(m *models.SystemMetrics) error
	DatasetStats() (*models.DatasetStats, error)
	SaveDatasetStats(s *models.DatasetStats) error

	Close() error
}

// NormalizePage clamps pagination inputs to the supported window: page
// starts at 1, limit defaults to 20 and is capped at 100.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}

	if limit <= 0 {
		limit = 20
	}

	if limit > 100 {
		limit = 100
	}

	return page, limit
}

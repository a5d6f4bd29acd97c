package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/Dhimazz28/SecureHive/models"
	"github.com/Dhimazz28/SecureHive/system"
)

// DBStore is the sqlite-backed Store used in normal operation.
type DBStore struct {
	db *gorm.DB
}

var _ Store = (*DBStore)(nil)

// OpenDB opens (or creates) the sqlite database at path and migrates the
// schema. WAL mode prevents "database is locked" errors while the simulator
// writes and the API reads concurrently.
func OpenDB(path string) (*DBStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.Exec("PRAGMA journal_mode=WAL;").Error; err != nil {
		system.Warn().Err(err).Msg("failed to enable WAL mode")
	}

	if err := db.AutoMigrate(
		&models.TrafficLog{},
		&models.AttackPattern{},
		&models.AIAnalysisResult{},
		&models.SystemMetrics{},
		&models.DatasetStats{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &DBStore{db: db}, nil
}

// DB exposes the underlying handle for diagnostics.
func (s *DBStore) DB() *gorm.DB {
	return s.db
}

func (s *DBStore) CreateTrafficLog(log *models.TrafficLog) error {
	return s.db.Create(log).Error
}

func (s *DBStore) TrafficLogs(filter TrafficLogFilter) ([]models.TrafficLog, int64, error) {
	page, limit := NormalizePage(filter.Page, filter.Limit)

	query := s.db.Model(&models.TrafficLog{})

	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.AttackType != "" {
		query = query.Where("attack_type LIKE ?", "%"+filter.AttackType+"%")
	}
	if filter.SourceIP != "" {
		query = query.Where("source_ip = ?", filter.SourceIP)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.TrafficLog

	offset := (page - 1) * limit
	if err := query.Order("timestamp DESC").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

func (s *DBStore) RecentTrafficLogs(n int) ([]models.TrafficLog, error) {
	var logs []models.TrafficLog

	err := s.db.Order("timestamp DESC").Limit(n).Find(&logs).Error

	return logs, err
}

func (s *DBStore) TrafficLogsSince(t time.Time) ([]models.TrafficLog, error) {
	var logs []models.TrafficLog

	err := s.db.Where("timestamp >= ?", t).Order("timestamp ASC").Find(&logs).Error

	return logs, err
}

func (s *DBStore) CountTrafficLogs() (int64, error) {
	var n int64

	err := s.db.Model(&models.TrafficLog{}).Count(&n).Error

	return n, err
}

func (s *DBStore) CountTrafficLogsSince(t time.Time) (int64, error) {
	var n int64

	err := s.db.Model(&models.TrafficLog{}).Where("timestamp >= ?", t).Count(&n).Error

	return n, err
}

func (s *DBStore) CountTrafficLogsByStatus(status string) (int64, error) {
	var n int64

	err := s.db.Model(&models.TrafficLog{}).Where("status = ?", status).Count(&n).Error

	return n, err
}

func (s *DBStore) CountUniqueSourceIPs() (int64, error) {
	var n int64

	err := s.db.Model(&models.TrafficLog{}).Distinct("source_ip").Count(&n).Error

	return n, err
}

func (s *DBStore) CountLogsByCountry() ([]models.CountryCount, error) {
	var rows []models.CountryCount

	err := s.db.Model(&models.TrafficLog{}).
		Select("source_country AS country, COUNT(*) AS count").
		Group("source_country").
		Order("count DESC").
		Scan(&rows).Error

	return rows, err
}

func (s *DBStore) TopAttackers(n int) ([]models.AttackerCount, error) {
	var rows []models.AttackerCount

	err := s.db.Model(&models.TrafficLog{}).
		Select("source_ip AS source_ip, MAX(source_country) AS country, COUNT(*) AS count").
		Group("source_ip").
		Order("count DESC").
		Limit(n).
		Scan(&rows).Error

	return rows, err
}

func (s *DBStore) DeleteTrafficLogsBefore(t time.Time) (int64, error) {
	res := s.db.Where("timestamp < ?", t).Delete(&models.TrafficLog{})

	return res.RowsAffected, res.Error
}

func (s *DBStore) CreateAttackPattern(p *models.AttackPattern) error {
	return s.db.Create(p).Error
}

func (s *DBStore) AttackPatterns() ([]models.AttackPattern, error) {
	var patterns []models.AttackPattern

	err := s.db.Order("last_seen DESC").Find(&patterns).Error

	return patterns, err
}

func (s *DBStore) ActiveAttackPatterns() ([]models.AttackPattern, error) {
	var patterns []models.AttackPattern

	err := s.db.Where("status IN ?", []string{models.PatternStatusNew, models.PatternStatusUnderReview}).
		Order("last_seen DESC").
		Find(&patterns).Error

	return patterns, err
}

func (s *DBStore) AttackPattern(id uint) (*models.AttackPattern, error) {
	var pattern models.AttackPattern

	if err := s.db.First(&pattern, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &pattern, nil
}

func (s *DBStore) UpdateAttackPatternStatus(id uint, status string) (*models.AttackPattern, error) {
	pattern, err := s.AttackPattern(id)
	if err != nil {
		return nil, err
	}

	pattern.Status = status
	if err := s.db.Save(pattern).Error; err != nil {
		return nil, err
	}

	return pattern, nil
}

func (s *DBStore) CountAttackPatterns() (int64, error) {
	var n int64

	err := s.db.Model(&models.AttackPattern{}).Count(&n).Error

	return n, err
}

func (s *DBStore) CreateAnalysis(a *models.AIAnalysisResult) error {
	return s.db.Create(a).Error
}

func (s *DBStore) RecentAnalyses(n int) ([]models.AIAnalysisResult, error) {
	var results []models.AIAnalysisResult

	err := s.db.Order("timestamp DESC").Limit(n).Find(&results).Error

	return results, err
}

func (s *DBStore) CountAnalyses() (int64, error) {
	var n int64

	err := s.db.Model(&models.AIAnalysisResult{}).Count(&n).Error

	return n, err
}

func (s *DBStore) TopTechniques(n int) ([]models.TechniqueCount, error) {
	var rows []models.TechniqueCount

	err := s.db.Model(&models.AIAnalysisResult{}).
		Select("technique AS technique, COUNT(*) AS count").
		Group("technique").
		Order("count DESC").
		Limit(n).
		Scan(&rows).Error

	return rows, err
}

func (s *DBStore) SystemMetrics() (*models.SystemMetrics, error) {
	var m models.SystemMetrics

	if err := s.db.First(&m, models.SnapshotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &m, nil
}

func (s *DBStore) SaveSystemMetrics(m *models.SystemMetrics) error {
	m.ID = models.SnapshotID

	return s.db.Save(m).Error
}

func (s *DBStore) DatasetStats() (*models.DatasetStats, error) {
	var stats models.DatasetStats

	if err := s.db.First(&stats, models.SnapshotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return &stats, nil
}

func (s *DBStore) SaveDatasetStats(stats *models.DatasetStats) error {
	stats.ID = models.SnapshotID

	return s.db.Save(stats).Error
}

func (s *DBStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

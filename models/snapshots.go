package models

import "time"

// SnapshotID is the fixed primary key of the single current row kept for
// SystemMetrics and DatasetStats. Updates replace that row, they never
// accumulate history.
const SnapshotID uint = 1

// SystemMetrics is the dashboard headline snapshot.
type SystemMetrics struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AttacksToday    int       `json:"attacksToday"`
	UniqueIPs       int       `json:"uniqueIPs"`
	AIDetections    int       `json:"aiDetections"`
	BlockedAttempts int       `json:"blockedAttempts"`
	Uptime          string    `json:"uptime"` // formatted, e.g. "3d 4h 12m"
	LastUpdated     time.Time `json:"lastUpdated"`
}

// DatasetStats is the simulated training-set snapshot.
type DatasetStats struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TotalSamples  int       `json:"totalSamples"`
	AttackSamples int       `json:"attackSamples"`
	BenignSamples int       `json:"benignSamples"`
	ModelAccuracy float64   `json:"modelAccuracy"` // percent, capped at 99
	LastTrained   time.Time `json:"lastTrained"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

package models

import "time"

// Pattern review lifecycle. Statuses only move forward:
// new -> under_review -> confirmed -> added_to_dataset.
const (
	PatternStatusNew         = "new"
	PatternStatusUnderReview = "under_review"
	PatternStatusConfirmed   = "confirmed"
	PatternStatusAdded       = "added_to_dataset"
)

// ValidPatternStatus reports whether s is one of the four lifecycle states.
func ValidPatternStatus(s string) bool {
	switch s {
	case PatternStatusNew, PatternStatusUnderReview, PatternStatusConfirmed, PatternStatusAdded:
		return true
	}
	return false
}

// AttackPattern is a named recurring threat signature, created by the
// simulator or the anomaly analyzer. Status is the only mutable field.
type AttackPattern struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Confidence  int       `json:"confidence"` // 0-100
	Occurrences int       `json:"occurrences"`
	FirstSeen   time.Time `json:"firstSeen"`
	LastSeen    time.Time `json:"lastSeen"`
	Technique   string    `json:"technique"`
	RiskScore   int       `json:"riskScore"` // 1-10
	Status      string    `gorm:"default:'new'" json:"status"`
	AIGenerated bool      `json:"aiGenerated"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

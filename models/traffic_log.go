package models

import "time"

// Traffic log severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Traffic log handling states.
const (
	StatusBlocked   = "blocked"
	StatusMonitored = "monitored"
	StatusAnalyzed  = "analyzed"
)

// TrafficLog records one observed or synthesized security event.
// Logs are immutable after creation; retention deletes them wholesale.
type TrafficLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Timestamp     time.Time `gorm:"index" json:"timestamp"`
	SourceIP      string    `gorm:"index" json:"sourceIp"`
	SourceCountry string    `json:"sourceCountry"` // ISO 3166-1 alpha-2
	AttackType    string    `json:"attackType"`
	Target        string    `json:"target"`
	Severity      string    `json:"severity"` // high, medium, low
	Status        string    `json:"status"`   // blocked, monitored, analyzed
	Payload       string    `json:"payload,omitempty"`
	UserAgent     string    `json:"userAgent,omitempty"`
	Method        string    `json:"method"`
	Port          int       `json:"port"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ValidSeverity reports whether s is a known severity level.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// ValidLogStatus reports whether s is a known handling state.
func ValidLogStatus(s string) bool {
	switch s {
	case StatusBlocked, StatusMonitored, StatusAnalyzed:
		return true
	}
	return false
}

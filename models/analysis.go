package models

import (
	"encoding/json"
	"time"
)

// AIAnalysisResult is the stored outcome of analyzing one traffic log.
// The log reference is weak: results survive log retention deletes.
// Rows are never mutated after creation.
type AIAnalysisResult struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TrafficLogID    *uint     `gorm:"index" json:"trafficLogId"`
	AttackType      string    `json:"attackType"`
	Technique       string    `json:"technique"`
	RiskScore       int       `json:"riskScore"`       // 1-10
	Confidence      int       `json:"confidence"`      // 0-100
	Recommendations string    `json:"recommendations"` // JSON-encoded list of strings
	Timestamp       time.Time `gorm:"index" json:"timestamp"`
}

// EncodeRecommendations serializes a recommendation list for storage in the
// single TEXT column.
func EncodeRecommendations(recs []string) string {
	if len(recs) == 0 {
		return "[]"
	}

	data, err := json.Marshal(recs)
	if err != nil {
		return "[]"
	}

	return string(data)
}

// RecommendationList decodes the stored recommendations. Unparseable
// content yields an empty list rather than an error.
func (r *AIAnalysisResult) RecommendationList() []string {
	var recs []string
	if err := json.Unmarshal([]byte(r.Recommendations), &recs); err != nil {
		return []string{}
	}

	return recs
}

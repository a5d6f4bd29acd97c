package models

// ClampRiskScore forces a risk score into the documented 1-10 range.
// Every producer clamps before storing, not just the API boundary.
func ClampRiskScore(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}

// ClampConfidence forces a confidence value into the 0-100 range.
func ClampConfidence(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ClampAccuracy caps the simulated model accuracy at 99 percent.
func ClampAccuracy(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 99 {
		return 99
	}
	return v
}

// CountryCount aggregates log volume per source country.
type CountryCount struct {
	Country  string `json:"country"`
	Count    int64  `json:"count"`
	HighRisk bool   `json:"highRisk"`
}

// AttackerCount aggregates log volume per source address.
type AttackerCount struct {
	SourceIP string `json:"sourceIp"`
	Country  string `json:"country"`
	Count    int64  `json:"count"`
}

// TechniqueCount aggregates analyses per resolved technique.
type TechniqueCount struct {
	Technique string `json:"technique"`
	Count     int64  `json:"count"`
}

// TrendBucket holds one hour of log counts split by severity.
type TrendBucket struct {
	Hour   string `json:"hour"` // RFC3339, truncated to the hour
	High   int64  `json:"high"`
	Medium int64  `json:"medium"`
	Low    int64  `json:"low"`
	Total  int64  `json:"total"`
}

package services

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Dhimazz28/SecureHive/models"
)

// Countries treated as elevated-risk origins by the scorer and the
// geographic views.
var highRiskCountries = map[string]bool{
	"CN": true,
	"RU": true,
	"KP": true,
	"IR": true,
}

// IsHighRiskCountry reports whether a 2-letter country code is in the
// fixed high-risk set.
func IsHighRiskCountry(code string) bool {
	return highRiskCountries[strings.ToUpper(code)]
}

// Names assigned to heuristically flagged new patterns.
var newPatternNames = []string{
	"Anomalous Encoding Probe",
	"Unclassified Scanner Fingerprint",
	"Emergent Injection Variant",
	"Suspicious Automation Burst",
	"Novel Evasion Sequence",
}

var generalRecommendations = []string{
	"Keep intrusion detection signatures up to date",
	"Centralize request logs for forensic analysis",
	"Review firewall and WAF rules on a fixed schedule",
}

// Analysis is the outcome of scoring one traffic log. It is produced by the
// heuristic scorer and optionally refined by the remote analyzer.
type Analysis struct {
	AttackType         string   `json:"attackType"`
	Technique          string   `json:"technique"`
	RiskScore          int      `json:"riskScore"`
	Confidence         int      `json:"confidence"`
	Recommendations    []string `json:"recommendations"`
	IsNewPattern       bool     `json:"isNewPattern"`
	PatternName        string   `json:"patternName,omitempty"`
	PatternDescription string   `json:"patternDescription,omitempty"`
}

// Result converts the analysis into its stored form.
func (a Analysis) Result(logID *uint) models.AIAnalysisResult {
	return models.AIAnalysisResult{
		TrafficLogID:    logID,
		AttackType:      a.AttackType,
		Technique:       a.Technique,
		RiskScore:       models.ClampRiskScore(a.RiskScore),
		Confidence:      models.ClampConfidence(a.Confidence),
		Recommendations: models.EncodeRecommendations(a.Recommendations),
		Timestamp:       time.Now(),
	}
}

// PatternRecord builds the attack pattern for a flagged analysis. The second
// return is false when the analysis did not flag a new pattern.
func (a Analysis) PatternRecord(log models.TrafficLog) (models.AttackPattern, bool) {
	if !a.IsNewPattern {
		return models.AttackPattern{}, false
	}

	return models.AttackPattern{
		Name:        a.PatternName,
		Description: a.PatternDescription,
		Technique:   a.Technique,
		Confidence:  models.ClampConfidence(a.Confidence),
		Occurrences: 1,
		FirstSeen:   log.Timestamp,
		LastSeen:    time.Now(),
		RiskScore:   models.ClampRiskScore(a.RiskScore),
		Status:      models.PatternStatusNew,
		AIGenerated: true,
	}, true
}

// Scorer derives an analysis from log content alone. Deterministic except
// for the random new-pattern fallback. Safe for concurrent use.
type Scorer struct {
	mu             sync.Mutex
	rng            *rand.Rand
	newPatternRate float64
}

// NewScorer wraps the given random source. rate is the probability of
// flagging an otherwise unremarkable log as a new pattern.
func NewScorer(rng *rand.Rand, rate float64) *Scorer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Scorer{rng: rng, newPatternRate: rate}
}

// ScoreLog synthesizes an analysis for one log. Missing payload or
// user-agent are treated as empty strings; every input yields an output.
func (s *Scorer) ScoreLog(log models.TrafficLog) Analysis {
	attackType := strings.ToLower(log.AttackType)
	payload := strings.ToLower(log.Payload)
	target := strings.ToLower(log.Target)
	userAgent := strings.ToLower(log.UserAgent)

	technique := resolveTechnique(attackType, payload)
	risk := scoreRisk(log, attackType, payload, target)
	confidence := scoreConfidence(payload, target)
	recs := buildRecommendations(attackType, log.SourceCountry)

	analysis := Analysis{
		AttackType:      log.AttackType,
		Technique:       technique,
		RiskScore:       risk,
		Confidence:      confidence,
		Recommendations: recs,
	}

	if s.flagNewPattern(payload, target, userAgent) {
		analysis.IsNewPattern = true
		analysis.PatternName = s.pickPatternName()
		analysis.PatternDescription = fmt.Sprintf(
			"Unrecognized request shape from %s against %s", log.SourceIP, log.Target)
	}

	return analysis
}

func resolveTechnique(attackType, payload string) string {
	switch {
	case strings.Contains(attackType, "sql"):
		switch {
		case strings.Contains(payload, "union"):
			return "Union-based SQL Injection"
		case strings.Contains(payload, "sleep") || strings.Contains(payload, "waitfor"):
			return "Time-based Blind SQL Injection"
		case strings.Contains(payload, "' or") || strings.Contains(payload, " or ") ||
			strings.Contains(payload, " and ") || strings.Contains(payload, "1'='1"):
			return "Boolean-based Blind SQL Injection"
		default:
			return "Error-based SQL Injection"
		}
	case strings.Contains(attackType, "xss"):
		switch {
		case strings.Contains(payload, "<script"):
			return "Script Tag XSS"
		case strings.Contains(payload, "onerror") || strings.Contains(payload, "onload"):
			return "Event Handler XSS"
		default:
			return "Reflected XSS"
		}
	case strings.Contains(attackType, "brute"):
		return "Credential Brute Force"
	case strings.Contains(attackType, "ddos"):
		return "Distributed Denial of Service"
	case strings.Contains(attackType, "directory"):
		return "Directory Traversal"
	default:
		return "Advanced Persistent Threat"
	}
}

func scoreRisk(log models.TrafficLog, attackType, payload, target string) int {
	risk := 1

	switch log.Severity {
	case models.SeverityHigh:
		risk += 4
	case models.SeverityMedium:
		risk += 2
	}

	switch {
	case strings.Contains(attackType, "command injection"):
		risk += 4
	case strings.Contains(attackType, "sql"):
		risk += 3
	case strings.Contains(attackType, "ddos"):
		risk += 3
	case strings.Contains(attackType, "xss"):
		risk += 2
	case strings.Contains(attackType, "brute"):
		risk += 2
	}

	if strings.Contains(payload, "drop table") {
		risk += 2
	}
	if strings.Contains(payload, "exec") || strings.Contains(payload, "system") {
		risk += 3
	}
	if strings.Contains(payload, "script") {
		risk++
	}

	if strings.Contains(target, "admin") || strings.Contains(target, "config") {
		risk += 2
	}
	if strings.Contains(target, "database") || strings.Contains(target, "backup") {
		risk += 2
	}

	if IsHighRiskCountry(log.SourceCountry) {
		risk++
	}

	return models.ClampRiskScore(risk)
}

func scoreConfidence(payload, target string) int {
	confidence := 70

	if len(payload) > 10 {
		confidence += 10
	}

	if strings.Contains(payload, "union select") || strings.Contains(payload, "<script>") {
		confidence += 15
	}

	if strings.Contains(target, "admin") || strings.Contains(target, "login") {
		confidence += 10
	}

	if confidence > 95 {
		confidence = 95
	}

	return models.ClampConfidence(confidence)
}

func buildRecommendations(attackType, country string) []string {
	var recs []string

	switch {
	case strings.Contains(attackType, "sql"):
		recs = append(recs,
			"Use parameterized queries for all database access",
			"Deploy a WAF rule blocking SQL meta-characters",
			"Audit code paths that assemble queries from input",
			"Run database accounts with least privilege")
	case strings.Contains(attackType, "xss"):
		recs = append(recs,
			"Set a restrictive Content-Security-Policy",
			"Sanitize all user-supplied input",
			"Encode output rendered into HTML contexts")
	case strings.Contains(attackType, "brute"):
		recs = append(recs,
			"Enforce rate limiting on authentication endpoints",
			"Require multi-factor authentication",
			"Add CAPTCHA after repeated failures")
	case strings.Contains(attackType, "ddos"):
		recs = append(recs,
			"Route traffic through a DDoS protection service",
			"Apply rate limiting at the network edge",
			"Distribute load across multiple backends",
			"Enable autoscaling for traffic spikes")
	}

	if IsHighRiskCountry(country) {
		code := strings.ToUpper(country)
		recs = append(recs,
			fmt.Sprintf("Consider additional verification for traffic from %s", code),
			fmt.Sprintf("Correlate %s activity with threat intelligence feeds", code))
	}

	return append(recs, generalRecommendations...)
}

func (s *Scorer) flagNewPattern(payload, target, userAgent string) bool {
	encodingMarkers := []string{"%3c", "%3e", "%2e%2e", "%u", "%27"}
	for _, marker := range encodingMarkers {
		if strings.Contains(payload, marker) {
			return true
		}
	}

	scannerAgents := []string{"sqlmap", "nikto", "masscan", "nmap", "zgrab", "scanbot"}
	for _, agent := range scannerAgents {
		if strings.Contains(userAgent, agent) {
			return true
		}
	}

	if strings.Contains(target, ".env") || strings.Contains(target, ".git") {
		return true
	}

	if strings.Contains(payload, "{{") || strings.Contains(payload, "${") {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rng.Float64() < s.newPatternRate
}

func (s *Scorer) pickPatternName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return newPatternNames[s.rng.Intn(len(newPatternNames))]
}

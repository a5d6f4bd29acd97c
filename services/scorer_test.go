package services

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhimazz28/SecureHive/models"
)

func newDeterministicScorer(rate float64) *Scorer {
	return NewScorer(rand.New(rand.NewSource(1)), rate)
}

func TestScoreLogBounds(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(42)))
	scorer := newDeterministicScorer(0.5)

	logs := make([]models.TrafficLog, 0, 204)
	for i := 0; i < 200; i++ {
		logs = append(logs, gen.TrafficLog())
	}

	// Boundary inputs: zero log, everything stacked, nonsense enum values,
	// and control characters.
	logs = append(logs,
		models.TrafficLog{},
		models.TrafficLog{
			AttackType:    "Command Injection",
			Severity:      models.SeverityHigh,
			Payload:       strings.Repeat("exec system drop table script ", 40),
			Target:        "/admin/config/database/backup",
			SourceCountry: "KP",
		},
		models.TrafficLog{AttackType: "sql xss ddos brute", Severity: "catastrophic"},
		models.TrafficLog{Payload: "\x00\xff\x7f", UserAgent: "‮"},
	)

	for _, log := range logs {
		analysis := scorer.ScoreLog(log)

		assert.GreaterOrEqual(t, analysis.RiskScore, 1)
		assert.LessOrEqual(t, analysis.RiskScore, 10)
		assert.GreaterOrEqual(t, analysis.Confidence, 0)
		assert.LessOrEqual(t, analysis.Confidence, 100)
		assert.NotEmpty(t, analysis.Technique)
	}
}

func TestScoreLogMaxRiskScenario(t *testing.T) {
	scorer := newDeterministicScorer(0)

	log := models.TrafficLog{
		Timestamp:     time.Now(),
		SourceIP:      "198.51.100.7",
		SourceCountry: "RU",
		AttackType:    "Command Injection",
		Target:        "/admin/login",
		Severity:      models.SeverityHigh,
		Payload:       "; drop table users; exec xp_cmdshell 'whoami'",
		Method:        "POST",
	}

	analysis := scorer.ScoreLog(log)

	// 1 base + 4 high + 4 command injection + 2 drop table + 3 exec + 2
	// admin target + 1 high-risk country = 17, clamped to 10.
	assert.Equal(t, 10, analysis.RiskScore)
}

func TestScoreLogBooleanBlindTechnique(t *testing.T) {
	scorer := newDeterministicScorer(0)

	analysis := scorer.ScoreLog(models.TrafficLog{
		AttackType: "SQL Injection",
		Payload:    "' OR '1'='1",
	})

	assert.Equal(t, "Boolean-based Blind SQL Injection", analysis.Technique)
}

func TestScoreLogTechniqueLadder(t *testing.T) {
	tests := []struct {
		name       string
		attackType string
		payload    string
		want       string
	}{
		{"union", "SQL Injection", "1 UNION SELECT password FROM users--", "Union-based SQL Injection"},
		{"waitfor", "SQL Injection", "1'; WAITFOR DELAY '0:0:5'--", "Time-based Blind SQL Injection"},
		{"sleep", "SQL Injection", "1 AND SLEEP(5)", "Time-based Blind SQL Injection"},
		{"plain sql", "SQL Injection", "id=5", "Error-based SQL Injection"},
		{"script tag", "XSS Attempt", "<script>alert(document.cookie)</script>", "Script Tag XSS"},
		{"event handler", "XSS Attempt", "<img src=x onerror=alert(1)>", "Event Handler XSS"},
		{"plain xss", "XSS Attempt", "hello", "Reflected XSS"},
		{"brute", "Brute Force", "", "Credential Brute Force"},
		{"ddos", "DDoS", "", "Distributed Denial of Service"},
		{"traversal", "Directory Traversal", "../../etc/passwd", "Directory Traversal"},
		{"unknown", "Zero-Day Probe", "", "Advanced Persistent Threat"},
	}

	scorer := newDeterministicScorer(0)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := scorer.ScoreLog(models.TrafficLog{
				AttackType: tt.attackType,
				Payload:    tt.payload,
			})
			assert.Equal(t, tt.want, analysis.Technique)
		})
	}
}

func TestScoreLogRecommendations(t *testing.T) {
	scorer := newDeterministicScorer(0)

	analysis := scorer.ScoreLog(models.TrafficLog{
		AttackType:    "SQL Injection",
		SourceCountry: "RU",
		Payload:       "1=1",
	})

	// 4 SQL items, 2 geo items for the high-risk origin, 3 general items.
	require.Len(t, analysis.Recommendations, 9)
	assert.Equal(t, "Use parameterized queries for all database access", analysis.Recommendations[0])
	assert.Contains(t, analysis.Recommendations, "Consider additional verification for traffic from RU")
	assert.Equal(t, generalRecommendations[len(generalRecommendations)-1],
		analysis.Recommendations[len(analysis.Recommendations)-1])

	benign := scorer.ScoreLog(models.TrafficLog{AttackType: "Port Scan", SourceCountry: "SE"})
	assert.Equal(t, generalRecommendations, benign.Recommendations)
}

func TestFlagNewPatternDeterministicTriggers(t *testing.T) {
	tests := []struct {
		name string
		log  models.TrafficLog
	}{
		{"encoded payload", models.TrafficLog{Payload: "%3Cscript%3E"}},
		{"scanner agent", models.TrafficLog{UserAgent: "sqlmap/1.7.2#stable"}},
		{"env probe", models.TrafficLog{Target: "/.env"}},
		{"template injection", models.TrafficLog{Payload: "{{7*7}}"}},
	}

	// Rate 0 means only the deterministic markers can flag.
	scorer := newDeterministicScorer(0)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := scorer.ScoreLog(tt.log)
			assert.True(t, analysis.IsNewPattern)
			assert.NotEmpty(t, analysis.PatternName)
		})
	}

	benign := scorer.ScoreLog(models.TrafficLog{Payload: "id=5", Target: "/products"})
	assert.False(t, benign.IsNewPattern)

	always := NewScorer(rand.New(rand.NewSource(3)), 1)
	flagged := always.ScoreLog(models.TrafficLog{Payload: "id=5", Target: "/products"})
	assert.True(t, flagged.IsNewPattern)
}

func TestPatternRecord(t *testing.T) {
	seen := time.Now().Add(-2 * time.Hour)
	log := models.TrafficLog{Timestamp: seen, SourceIP: "203.0.113.9", Target: "/.git/config"}

	analysis := Analysis{
		Technique:    "Directory Traversal",
		RiskScore:    14,
		Confidence:   120,
		IsNewPattern: true,
		PatternName:  "Novel Evasion Sequence",
	}

	pattern, ok := analysis.PatternRecord(log)
	require.True(t, ok)
	assert.Equal(t, "Novel Evasion Sequence", pattern.Name)
	assert.Equal(t, 1, pattern.Occurrences)
	assert.Equal(t, 10, pattern.RiskScore)
	assert.Equal(t, 100, pattern.Confidence)
	assert.Equal(t, seen, pattern.FirstSeen)
	assert.Equal(t, models.PatternStatusNew, pattern.Status)
	assert.True(t, pattern.AIGenerated)

	_, ok = Analysis{IsNewPattern: false}.PatternRecord(log)
	assert.False(t, ok)
}

func TestAnalysisResultClamps(t *testing.T) {
	id := uint(7)

	result := Analysis{
		AttackType:      "DDoS",
		Technique:       "Distributed Denial of Service",
		RiskScore:       25,
		Confidence:      -3,
		Recommendations: []string{"Apply rate limiting at the network edge"},
	}.Result(&id)

	assert.Equal(t, &id, result.TrafficLogID)
	assert.Equal(t, 10, result.RiskScore)
	assert.Equal(t, 0, result.Confidence)
	assert.Equal(t, []string{"Apply rate limiting at the network edge"}, result.RecommendationList())
}

func TestIsHighRiskCountry(t *testing.T) {
	assert.True(t, IsHighRiskCountry("CN"))
	assert.True(t, IsHighRiskCountry("ru"))
	assert.False(t, IsHighRiskCountry("US"))
	assert.False(t, IsHighRiskCountry(""))
}

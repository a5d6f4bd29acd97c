package services

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Dhimazz28/SecureHive/models"
)

// Fixed pools for synthetic telemetry. The payload pool deliberately covers
// every scorer branch, including the boolean-injection literal.
var (
	countryPool = []string{"CN", "RU", "US", "KP", "IR", "BR", "IN", "VN", "DE", "NL", "UA", "TR"}

	attackTypePool = []string{
		"SQL Injection",
		"XSS Attempt",
		"Brute Force",
		"DDoS",
		"Port Scan",
		"Command Injection",
		"Directory Traversal",
		"Credential Stuffing",
	}

	targetPool = []string{
		"/admin/login",
		"/api/users",
		"/wp-login.php",
		"/.env",
		"/api/v1/auth",
		"/database/backup",
		"/config.php",
		"/api/payments",
		"/login",
		"/phpmyadmin",
	}

	severityPool = []string{models.SeverityHigh, models.SeverityMedium, models.SeverityLow}

	logStatusPool = []string{models.StatusBlocked, models.StatusMonitored, models.StatusAnalyzed}

	userAgentPool = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64; rv:115.0) Gecko/20100101 Firefox/115.0",
		"sqlmap/1.7.2#stable (https://sqlmap.org)",
		"Nikto/2.5.0",
		"python-requests/2.31.0",
		"curl/8.4.0",
		"masscan/1.3.2",
		"Mozilla/5.0 (compatible; scanbot/1.1)",
	}

	payloadPool = []string{
		"' OR '1'='1",
		"admin' UNION SELECT username, password FROM users--",
		"1'; WAITFOR DELAY '0:0:5'--",
		"<script>alert(document.cookie)</script>",
		"<img src=x onerror=alert(1)>",
		"../../../../etc/passwd",
		"; DROP TABLE users; --",
		"'; exec master..xp_cmdshell 'whoami'--",
		"%u003cscript%u003ealert(1)%u003c/script%u003e",
		"cGFzc3dvcmQ9YWRtaW4= base64",
		"{{7*7}}",
		"",
	}

	// POST-shaped categories. Everything else is generated as a GET.
	postAttackTypes = map[string]bool{
		"SQL Injection":       true,
		"Command Injection":   true,
		"Brute Force":         true,
		"Credential Stuffing": true,
	}
)

// patternTemplate is one named technique the generator can emit.
type patternTemplate struct {
	name        string
	description string
	technique   string
}

var patternTemplates = []patternTemplate{
	{
		name:        "Automated SQLi Scanner Wave",
		description: "Burst of structured injection probes against authentication endpoints from rotating addresses",
		technique:   "Union-based SQL Injection",
	},
	{
		name:        "Distributed Credential Stuffing",
		description: "Replay of leaked credential pairs across login endpoints at low per-address rates",
		technique:   "Credential Brute Force",
	},
	{
		name:        "Session Hijacking via Stored XSS",
		description: "Script payloads targeting comment and profile fields to exfiltrate session cookies",
		technique:   "Script Tag XSS",
	},
	{
		name:        "Slowloris Connection Exhaustion",
		description: "Long-held partial requests saturating the connection pool of the public gateway",
		technique:   "Distributed Denial of Service",
	},
	{
		name:        "Hidden Path Enumeration",
		description: "Systematic traversal probing for dotfiles, backups and configuration remnants",
		technique:   "Directory Traversal",
	},
	{
		name:        "Staged API Token Abuse",
		description: "Low-and-slow reuse of harvested API tokens mimicking legitimate client traffic",
		technique:   "Advanced Persistent Threat",
	},
}

// Generator produces plausible-looking records from a seeded random source.
// Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator wraps the given random source. A nil rng gets a time-seeded
// one.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Generator{rng: rng}
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// TrafficLog synthesizes one security event dated within the last 24 hours.
func (g *Generator) TrafficLog() models.TrafficLog {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Octets are drawn independently; reserved ranges are not excluded.
	sourceIP := fmt.Sprintf("%d.%d.%d.%d",
		g.rng.Intn(255), g.rng.Intn(255), g.rng.Intn(255), g.rng.Intn(255))

	attackType := g.pick(attackTypePool)

	method := "GET"
	if postAttackTypes[attackType] {
		method = "POST"
	}

	port := 80
	if g.rng.Float64() < 0.2 {
		port = 443
	}

	return models.TrafficLog{
		Timestamp:     time.Now().Add(-time.Duration(g.rng.Intn(24*3600)) * time.Second),
		SourceIP:      sourceIP,
		SourceCountry: g.pick(countryPool),
		AttackType:    attackType,
		Target:        g.pick(targetPool),
		Severity:      g.pick(severityPool),
		Status:        g.pick(logStatusPool),
		Payload:       g.pick(payloadPool),
		UserAgent:     g.pick(userAgentPool),
		Method:        method,
		Port:          port,
	}
}

// AttackPattern synthesizes one pattern from the fixed template set.
func (g *Generator) AttackPattern() models.AttackPattern {
	g.mu.Lock()
	defer g.mu.Unlock()

	tmpl := patternTemplates[g.rng.Intn(len(patternTemplates))]

	status := models.PatternStatusNew
	if g.rng.Intn(2) == 1 {
		status = models.PatternStatusUnderReview
	}

	now := time.Now()

	return models.AttackPattern{
		Name:        tmpl.name,
		Description: tmpl.description,
		Technique:   tmpl.technique,
		Confidence:  models.ClampConfidence(70 + g.rng.Intn(30)),
		Occurrences: 5 + g.rng.Intn(50),
		FirstSeen:   now.Add(-time.Duration(g.rng.Intn(12*3600)) * time.Second),
		LastSeen:    now,
		RiskScore:   models.ClampRiskScore(6 + g.rng.Intn(4)),
		Status:      status,
		AIGenerated: true,
	}
}

// SystemMetrics synthesizes a plausible dashboard snapshot.
func (g *Generator) SystemMetrics() models.SystemMetrics {
	g.mu.Lock()
	defer g.mu.Unlock()

	return models.SystemMetrics{
		AttacksToday:    800 + g.rng.Intn(1500),
		UniqueIPs:       150 + g.rng.Intn(400),
		AIDetections:    80 + g.rng.Intn(300),
		BlockedAttempts: 500 + g.rng.Intn(1400),
		Uptime:          fmt.Sprintf("%dd %dh %dm", g.rng.Intn(30), g.rng.Intn(24), g.rng.Intn(60)),
		LastUpdated:     time.Now(),
	}
}

// RetrainGain returns the accuracy points a simulated retrain adds,
// uniform in [1,3).
func (g *Generator) RetrainGain() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return 1 + g.rng.Float64()*2
}

// DatasetStats synthesizes a plausible training-set snapshot.
func (g *Generator) DatasetStats() models.DatasetStats {
	g.mu.Lock()
	defer g.mu.Unlock()

	total := 80000 + g.rng.Intn(60000)
	attack := total * (30 + g.rng.Intn(20)) / 100

	return models.DatasetStats{
		TotalSamples:  total,
		AttackSamples: attack,
		BenignSamples: total - attack,
		ModelAccuracy: models.ClampAccuracy(94 + g.rng.Float64()*5),
		LastTrained:   time.Now().Add(-time.Duration(g.rng.Intn(72)) * time.Hour),
		LastUpdated:   time.Now(),
	}
}

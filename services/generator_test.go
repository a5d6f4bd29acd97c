package services

import (
	"math/rand"
	"net"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhimazz28/SecureHive/models"
)

func poolSet(pool []string) map[string]bool {
	set := make(map[string]bool, len(pool))
	for _, v := range pool {
		set[v] = true
	}
	return set
}

func TestGeneratorTrafficLogShape(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(11)))

	countries := poolSet(countryPool)
	types := poolSet(attackTypePool)
	targets := poolSet(targetPool)
	severities := poolSet(severityPool)
	statuses := poolSet(logStatusPool)
	agents := poolSet(userAgentPool)
	payloads := poolSet(payloadPool)

	start := time.Now()
	sawPost, saw443 := false, false

	for i := 0; i < 200; i++ {
		log := gen.TrafficLog()

		ip := net.ParseIP(log.SourceIP)
		require.NotNil(t, ip, "unparseable address %q", log.SourceIP)
		require.NotNil(t, ip.To4())

		assert.True(t, countries[log.SourceCountry])
		assert.True(t, types[log.AttackType])
		assert.True(t, targets[log.Target])
		assert.True(t, severities[log.Severity])
		assert.True(t, statuses[log.Status])
		assert.True(t, agents[log.UserAgent])
		assert.True(t, payloads[log.Payload])

		if postAttackTypes[log.AttackType] {
			assert.Equal(t, "POST", log.Method)
			sawPost = true
		} else {
			assert.Equal(t, "GET", log.Method)
		}

		if log.Port == 443 {
			saw443 = true
		} else {
			assert.Equal(t, 80, log.Port)
		}

		assert.False(t, log.Timestamp.After(time.Now()))
		assert.False(t, log.Timestamp.Before(start.Add(-24*time.Hour)))
	}

	assert.True(t, sawPost)
	assert.True(t, saw443)
}

func TestGeneratorAttackPatternShape(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(12)))

	templates := make(map[string]patternTemplate, len(patternTemplates))
	for _, tmpl := range patternTemplates {
		templates[tmpl.name] = tmpl
	}

	for i := 0; i < 100; i++ {
		p := gen.AttackPattern()

		tmpl, ok := templates[p.Name]
		require.True(t, ok, "unknown pattern name %q", p.Name)
		assert.Equal(t, tmpl.description, p.Description)
		assert.Equal(t, tmpl.technique, p.Technique)

		assert.GreaterOrEqual(t, p.Confidence, 70)
		assert.LessOrEqual(t, p.Confidence, 99)
		assert.GreaterOrEqual(t, p.Occurrences, 5)
		assert.LessOrEqual(t, p.Occurrences, 54)
		assert.GreaterOrEqual(t, p.RiskScore, 6)
		assert.LessOrEqual(t, p.RiskScore, 9)

		assert.Contains(t, []string{models.PatternStatusNew, models.PatternStatusUnderReview}, p.Status)
		assert.True(t, p.AIGenerated)
		assert.False(t, p.FirstSeen.After(p.LastSeen))
		assert.False(t, p.FirstSeen.Before(p.LastSeen.Add(-12*time.Hour)))
	}
}

func TestGeneratorSystemMetricsRanges(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(13)))
	uptimeForm := regexp.MustCompile(`^\d+d \d+h \d+m$`)

	for i := 0; i < 50; i++ {
		m := gen.SystemMetrics()

		assert.GreaterOrEqual(t, m.AttacksToday, 800)
		assert.Less(t, m.AttacksToday, 2300)
		assert.GreaterOrEqual(t, m.UniqueIPs, 150)
		assert.Less(t, m.UniqueIPs, 550)
		assert.GreaterOrEqual(t, m.AIDetections, 80)
		assert.Less(t, m.AIDetections, 380)
		assert.GreaterOrEqual(t, m.BlockedAttempts, 500)
		assert.Less(t, m.BlockedAttempts, 1900)
		assert.Regexp(t, uptimeForm, m.Uptime)
		assert.False(t, m.LastUpdated.IsZero())
	}
}

func TestGeneratorDatasetStatsConsistency(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(14)))

	for i := 0; i < 50; i++ {
		stats := gen.DatasetStats()

		assert.Equal(t, stats.TotalSamples, stats.AttackSamples+stats.BenignSamples)
		assert.GreaterOrEqual(t, stats.AttackSamples, stats.TotalSamples*30/100)
		assert.LessOrEqual(t, stats.AttackSamples, stats.TotalSamples*49/100)
		assert.GreaterOrEqual(t, stats.ModelAccuracy, 94.0)
		assert.LessOrEqual(t, stats.ModelAccuracy, 99.0)
		assert.False(t, stats.LastTrained.After(time.Now()))
		assert.False(t, stats.LastTrained.Before(time.Now().Add(-73*time.Hour)))
	}
}

func TestGeneratorRetrainGainRange(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(15)))

	for i := 0; i < 100; i++ {
		gain := gen.RetrainGain()
		assert.GreaterOrEqual(t, gain, 1.0)
		assert.Less(t, gain, 3.0)
	}
}

func TestGeneratorDeterministicWithSameSeed(t *testing.T) {
	a := NewGenerator(rand.New(rand.NewSource(7)))
	b := NewGenerator(rand.New(rand.NewSource(7)))

	for i := 0; i < 20; i++ {
		la, lb := a.TrafficLog(), b.TrafficLog()

		// Timestamps are wall-clock relative, everything else must match.
		la.Timestamp, lb.Timestamp = time.Time{}, time.Time{}
		assert.Equal(t, la, lb)
	}
}

package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhimazz28/SecureHive/models"
)

func seedLogs(t *testing.T, s Store, n int) []models.TrafficLog {
	t.Helper()

	base := time.Now()
	logs := make([]models.TrafficLog, 0, n)

	for i := 0; i < n; i++ {
		log := models.TrafficLog{
			Timestamp:     base.Add(-time.Duration(i) * time.Minute),
			SourceIP:      fmt.Sprintf("10.0.0.%d", i%5),
			SourceCountry: "US",
			AttackType:    "SQL Injection",
			Target:        "/login",
			Severity:      models.SeverityMedium,
			Status:        models.StatusMonitored,
		}
		require.NoError(t, s.CreateTrafficLog(&log))
		logs = append(logs, log)
	}

	return logs
}

func TestMemoryStorePagination(t *testing.T) {
	s := NewMemoryStore()
	seedLogs(t, s, 25)

	page, total, err := s.TrafficLogs(TrafficLogFilter{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	assert.Len(t, page, 5)

	// Past the last page yields an empty slice, not an error.
	page, total, err = s.TrafficLogs(TrafficLogFilter{Page: 4, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	assert.Empty(t, page)
}

func TestMemoryStorePaginationDefaults(t *testing.T) {
	s := NewMemoryStore()
	seedLogs(t, s, 30)

	// Zero values fall back to page 1 with the default limit.
	page, _, err := s.TrafficLogs(TrafficLogFilter{})
	require.NoError(t, err)
	assert.Len(t, page, 20)

	// Oversized limits are capped at 100.
	_, limit := NormalizePage(0, 5000)
	assert.Equal(t, 100, limit)
}

func TestMemoryStoreFilters(t *testing.T) {
	s := NewMemoryStore()

	logs := []models.TrafficLog{
		{Timestamp: time.Now(), SourceIP: "1.1.1.1", AttackType: "SQL Injection", Severity: models.SeverityHigh},
		{Timestamp: time.Now(), SourceIP: "2.2.2.2", AttackType: "XSS Attempt", Severity: models.SeverityLow},
		{Timestamp: time.Now(), SourceIP: "1.1.1.1", AttackType: "Brute Force", Severity: models.SeverityHigh},
	}
	for i := range logs {
		require.NoError(t, s.CreateTrafficLog(&logs[i]))
	}

	got, total, err := s.TrafficLogs(TrafficLogFilter{Severity: models.SeverityHigh})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, got, 2)

	// Substring matching on attack type is case-insensitive, mirroring
	// sqlite LIKE semantics.
	got, _, err = s.TrafficLogs(TrafficLogFilter{AttackType: "sql"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SQL Injection", got[0].AttackType)

	got, _, err = s.TrafficLogs(TrafficLogFilter{SourceIP: "1.1.1.1"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMemoryStoreRecentOrder(t *testing.T) {
	s := NewMemoryStore()
	seedLogs(t, s, 10)

	recent, err := s.RecentTrafficLogs(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	for i := 1; i < len(recent); i++ {
		assert.False(t, recent[i].Timestamp.After(recent[i-1].Timestamp))
	}
}

func TestMemoryStoreRetentionDelete(t *testing.T) {
	s := NewMemoryStore()

	old := models.TrafficLog{Timestamp: time.Now().Add(-48 * time.Hour), SourceIP: "9.9.9.9"}
	fresh := models.TrafficLog{Timestamp: time.Now(), SourceIP: "8.8.8.8"}
	require.NoError(t, s.CreateTrafficLog(&old))
	require.NoError(t, s.CreateTrafficLog(&fresh))

	removed, err := s.DeleteTrafficLogsBefore(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	n, err := s.CountTrafficLogs()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMemoryStoreUniqueIPs(t *testing.T) {
	s := NewMemoryStore()
	seedLogs(t, s, 25)

	n, err := s.CountUniqueSourceIPs()
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}

func TestMemoryStorePatternStatus(t *testing.T) {
	s := NewMemoryStore()

	p := models.AttackPattern{
		Name:      "Multi-Vector Coordinated Attack",
		Status:    models.PatternStatusNew,
		FirstSeen: time.Now().Add(-time.Hour),
		LastSeen:  time.Now(),
	}
	require.NoError(t, s.CreateAttackPattern(&p))
	require.NotZero(t, p.ID)

	updated, err := s.UpdateAttackPatternStatus(p.ID, models.PatternStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.PatternStatusConfirmed, updated.Status)

	_, err = s.UpdateAttackPatternStatus(9999, models.PatternStatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreActivePatterns(t *testing.T) {
	s := NewMemoryStore()

	statuses := []string{
		models.PatternStatusNew,
		models.PatternStatusUnderReview,
		models.PatternStatusConfirmed,
		models.PatternStatusAdded,
	}
	for _, status := range statuses {
		p := models.AttackPattern{Name: "p-" + status, Status: status, LastSeen: time.Now()}
		require.NoError(t, s.CreateAttackPattern(&p))
	}

	active, err := s.ActiveAttackPatterns()
	require.NoError(t, err)
	require.Len(t, active, 2)

	for _, p := range active {
		assert.Contains(t, []string{models.PatternStatusNew, models.PatternStatusUnderReview}, p.Status)
	}
}

func TestMemoryStoreSnapshots(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.SystemMetrics()
	assert.ErrorIs(t, err, ErrNotFound)

	first := models.SystemMetrics{AttacksToday: 10, LastUpdated: time.Now()}
	require.NoError(t, s.SaveSystemMetrics(&first))

	second := models.SystemMetrics{AttacksToday: 42, LastUpdated: time.Now()}
	require.NoError(t, s.SaveSystemMetrics(&second))

	got, err := s.SystemMetrics()
	require.NoError(t, err)
	assert.Equal(t, models.SnapshotID, got.ID)
	assert.Equal(t, 42, got.AttacksToday)

	_, err = s.DatasetStats()
	assert.ErrorIs(t, err, ErrNotFound)

	stats := models.DatasetStats{TotalSamples: 1000, ModelAccuracy: 97.5}
	require.NoError(t, s.SaveDatasetStats(&stats))

	gotStats, err := s.DatasetStats()
	require.NoError(t, err)
	assert.InDelta(t, 97.5, gotStats.ModelAccuracy, 0.001)
}

func TestMemoryStoreAggregates(t *testing.T) {
	s := NewMemoryStore()

	countries := []string{"BR", "BR", "BR", "US", "CN"}
	for i, country := range countries {
		log := models.TrafficLog{
			Timestamp:     time.Now(),
			SourceIP:      fmt.Sprintf("10.1.0.%d", i),
			SourceCountry: country,
		}
		require.NoError(t, s.CreateTrafficLog(&log))
	}

	rows, err := s.CountLogsByCountry()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "BR", rows[0].Country)
	assert.EqualValues(t, 3, rows[0].Count)

	for i := 0; i < 4; i++ {
		a := models.AIAnalysisResult{Technique: "Union-based SQL Injection", Timestamp: time.Now()}
		require.NoError(t, s.CreateAnalysis(&a))
	}

	techniques, err := s.TopTechniques(5)
	require.NoError(t, err)
	require.NotEmpty(t, techniques)
	assert.Equal(t, "Union-based SQL Injection", techniques[0].Technique)
	assert.EqualValues(t, 4, techniques[0].Count)
}

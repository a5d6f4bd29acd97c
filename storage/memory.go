package storage

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dhimazz28/SecureHive/models"
)

// MemoryStore keeps everything in process memory. It backs tests and mirrors
// DBStore semantics, including ordering and case-insensitive substring
// matching on attack types.
type MemoryStore struct {
	mu             sync.Mutex
	logs           []models.TrafficLog
	patterns       []models.AttackPattern
	analyses       []models.AIAnalysisResult
	metrics        *models.SystemMetrics
	stats          *models.DatasetStats
	nextLogID      uint
	nextPatternID  uint
	nextAnalysisID uint
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextLogID:      1,
		nextPatternID:  1,
		nextAnalysisID: 1,
	}
}

func (s *MemoryStore) CreateTrafficLog(log *models.TrafficLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.ID = s.nextLogID
	s.nextLogID++

	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	s.logs = append(s.logs, *log)

	return nil
}

func matchesFilter(log models.TrafficLog, filter TrafficLogFilter) bool {
	if filter.Severity != "" && log.Severity != filter.Severity {
		return false
	}

	if filter.AttackType != "" &&
		!strings.Contains(strings.ToLower(log.AttackType), strings.ToLower(filter.AttackType)) {
		return false
	}

	if filter.SourceIP != "" && log.SourceIP != filter.SourceIP {
		return false
	}

	return true
}

func sortLogsNewestFirst(logs []models.TrafficLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
}

func (s *MemoryStore) TrafficLogs(filter TrafficLogFilter) ([]models.TrafficLog, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page, limit := NormalizePage(filter.Page, filter.Limit)

	var matched []models.TrafficLog

	for _, log := range s.logs {
		if matchesFilter(log, filter) {
			matched = append(matched, log)
		}
	}

	sortLogsNewestFirst(matched)

	total := int64(len(matched))

	offset := (page - 1) * limit
	if offset >= len(matched) {
		return []models.TrafficLog{}, total, nil
	}

	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}

	return matched[offset:end], total, nil
}

func (s *MemoryStore) RecentTrafficLogs(n int) ([]models.TrafficLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs := make([]models.TrafficLog, len(s.logs))
	copy(logs, s.logs)
	sortLogsNewestFirst(logs)

	if n < len(logs) {
		logs = logs[:n]
	}

	return logs, nil
}

func (s *MemoryStore) TrafficLogsSince(t time.Time) ([]models.TrafficLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var logs []models.TrafficLog

	for _, log := range s.logs {
		if !log.Timestamp.Before(t) {
			logs = append(logs, log)
		}
	}

	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.Before(logs[j].Timestamp)
	})

	return logs, nil
}

func (s *MemoryStore) CountTrafficLogs() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.logs)), nil
}

func (s *MemoryStore) CountTrafficLogsSince(t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64

	for _, log := range s.logs {
		if !log.Timestamp.Before(t) {
			n++
		}
	}

	return n, nil
}

func (s *MemoryStore) CountTrafficLogsByStatus(status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64

	for _, log := range s.logs {
		if log.Status == status {
			n++
		}
	}

	return n, nil
}

func (s *MemoryStore) CountUniqueSourceIPs() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})

	for _, log := range s.logs {
		seen[log.SourceIP] = struct{}{}
	}

	return int64(len(seen)), nil
}

func (s *MemoryStore) CountLogsByCountry() ([]models.CountryCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int64)

	for _, log := range s.logs {
		counts[log.SourceCountry]++
	}

	rows := make([]models.CountryCount, 0, len(counts))
	for country, count := range counts {
		rows = append(rows, models.CountryCount{Country: country, Count: count})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})

	return rows, nil
}

func (s *MemoryStore) TopAttackers(n int) ([]models.AttackerCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]*models.AttackerCount)

	for _, log := range s.logs {
		row, ok := counts[log.SourceIP]
		if !ok {
			row = &models.AttackerCount{SourceIP: log.SourceIP}
			counts[log.SourceIP] = row
		}

		row.Count++

		if log.SourceCountry > row.Country {
			row.Country = log.SourceCountry
		}
	}

	rows := make([]models.AttackerCount, 0, len(counts))
	for _, row := range counts {
		rows = append(rows, *row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})

	if n < len(rows) {
		rows = rows[:n]
	}

	return rows, nil
}

func (s *MemoryStore) DeleteTrafficLogsBefore(t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.logs[:0]

	var removed int64

	for _, log := range s.logs {
		if log.Timestamp.Before(t) {
			removed++
			continue
		}

		kept = append(kept, log)
	}

	s.logs = kept

	return removed, nil
}

func (s *MemoryStore) CreateAttackPattern(p *models.AttackPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextPatternID
	s.nextPatternID++

	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	s.patterns = append(s.patterns, *p)

	return nil
}

func sortPatternsByLastSeen(patterns []models.AttackPattern) {
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].LastSeen.After(patterns[j].LastSeen)
	})
}

func (s *MemoryStore) AttackPatterns() ([]models.AttackPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	patterns := make([]models.AttackPattern, len(s.patterns))
	copy(patterns, s.patterns)
	sortPatternsByLastSeen(patterns)

	return patterns, nil
}

func (s *MemoryStore) ActiveAttackPatterns() ([]models.AttackPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var patterns []models.AttackPattern

	for _, p := range s.patterns {
		if p.Status == models.PatternStatusNew || p.Status == models.PatternStatusUnderReview {
			patterns = append(patterns, p)
		}
	}

	sortPatternsByLastSeen(patterns)

	return patterns, nil
}

func (s *MemoryStore) AttackPattern(id uint) (*models.AttackPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.patterns {
		if s.patterns[i].ID == id {
			p := s.patterns[i]
			return &p, nil
		}
	}

	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateAttackPatternStatus(id uint, status string) (*models.AttackPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.patterns {
		if s.patterns[i].ID == id {
			s.patterns[i].Status = status
			s.patterns[i].UpdatedAt = time.Now()

			p := s.patterns[i]

			return &p, nil
		}
	}

	return nil, ErrNotFound
}

func (s *MemoryStore) CountAttackPatterns() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.patterns)), nil
}

func (s *MemoryStore) CreateAnalysis(a *models.AIAnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.nextAnalysisID
	s.nextAnalysisID++

	s.analyses = append(s.analyses, *a)

	return nil
}

func (s *MemoryStore) RecentAnalyses(n int) ([]models.AIAnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]models.AIAnalysisResult, len(s.analyses))
	copy(results, s.analyses)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	if n < len(results) {
		results = results[:n]
	}

	return results, nil
}

func (s *MemoryStore) CountAnalyses() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(len(s.analyses)), nil
}

func (s *MemoryStore) TopTechniques(n int) ([]models.TechniqueCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int64)

	for _, a := range s.analyses {
		counts[a.Technique]++
	}

	rows := make([]models.TechniqueCount, 0, len(counts))
	for technique, count := range counts {
		rows = append(rows, models.TechniqueCount{Technique: technique, Count: count})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})

	if n < len(rows) {
		rows = rows[:n]
	}

	return rows, nil
}

func (s *MemoryStore) SystemMetrics() (*models.SystemMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.metrics == nil {
		return nil, ErrNotFound
	}

	m := *s.metrics

	return &m, nil
}

func (s *MemoryStore) SaveSystemMetrics(m *models.SystemMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = models.SnapshotID
	saved := *m
	s.metrics = &saved

	return nil
}

func (s *MemoryStore) DatasetStats() (*models.DatasetStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stats == nil {
		return nil, ErrNotFound
	}

	stats := *s.stats

	return &stats, nil
}

func (s *MemoryStore) SaveDatasetStats(stats *models.DatasetStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats.ID = models.SnapshotID
	saved := *stats
	s.stats = &saved

	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

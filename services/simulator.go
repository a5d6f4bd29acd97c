package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dhimazz28/SecureHive/config"
	"github.com/Dhimazz28/SecureHive/models"
	"github.com/Dhimazz28/SecureHive/storage"
	"github.com/Dhimazz28/SecureHive/system"
)

// Simulator drives the background telemetry feed: it generates logs, runs
// them through scoring and the remote adapter, sweeps batches for
// anomalies, injects occasional patterns, and enforces log retention.
// Failed ticks are logged and never stop a loop.
type Simulator struct {
	store     storage.Store
	gen       *Generator
	scorer    *Scorer
	analyzer  *AIAnalyzer
	webhook   *WebhookService
	cfg       *config.Config
	stopChan  chan struct{}
	log       zerolog.Logger
	startedAt time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator wires the feed. A nil rng gets a time-seeded one.
func NewSimulator(store storage.Store, gen *Generator, scorer *Scorer, analyzer *AIAnalyzer, webhook *WebhookService, cfg *config.Config, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Simulator{
		store:     store,
		gen:       gen,
		scorer:    scorer,
		analyzer:  analyzer,
		webhook:   webhook,
		cfg:       cfg,
		stopChan:  make(chan struct{}),
		log:       system.WithComponent("simulator"),
		startedAt: time.Now(),
		rng:       rng,
	}
}

// SeedIfEmpty fills an empty store with an initial dataset so the dashboard
// has something to show on first boot.
func (s *Simulator) SeedIfEmpty() error {
	n, err := s.store.CountTrafficLogs()
	if err != nil {
		return err
	}

	if n > 0 {
		return nil
	}

	s.log.Info().Msg("empty store, seeding initial dataset")

	for i := 0; i < 40; i++ {
		log := s.gen.TrafficLog()
		if err := s.store.CreateTrafficLog(&log); err != nil {
			return err
		}

		// Seeding stays heuristic-only; remote calls start with the feed.
		result := s.scorer.ScoreLog(log).Result(&log.ID)
		if err := s.store.CreateAnalysis(&result); err != nil {
			return err
		}
	}

	for i := 0; i < 6; i++ {
		p := s.gen.AttackPattern()
		if err := s.store.CreateAttackPattern(&p); err != nil {
			return err
		}
	}

	metrics := s.gen.SystemMetrics()
	if err := s.store.SaveSystemMetrics(&metrics); err != nil {
		return err
	}

	stats := s.gen.DatasetStats()
	if err := s.store.SaveDatasetStats(&stats); err != nil {
		return err
	}

	system.ModelAccuracy.Set(stats.ModelAccuracy)
	system.AddEvent("seed", "Initial dataset created")

	return nil
}

// Start launches the background loops.
func (s *Simulator) Start() {
	if !s.cfg.Simulator.Enabled {
		s.log.Info().Msg("simulator disabled")
		return
	}

	go s.feedLoop()
	go s.patternLoop()
	go s.anomalyLoop()

	if s.cfg.Database.RetentionDays > 0 {
		go s.retentionLoop()
	}
}

// Stop terminates all loops.
func (s *Simulator) Stop() {
	close(s.stopChan)
}

func (s *Simulator) randDuration(minSec, maxSec int) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	span := maxSec - minSec
	if span <= 0 {
		return time.Duration(minSec) * time.Second
	}

	return time.Duration(minSec+s.rng.Intn(span+1)) * time.Second
}

func (s *Simulator) chance(p float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rng.Float64() < p
}

func (s *Simulator) feedLoop() {
	s.log.Info().
		Int("min_seconds", s.cfg.Simulator.LogIntervalMin).
		Int("max_seconds", s.cfg.Simulator.LogIntervalMax).
		Msg("telemetry feed started")

	timer := time.NewTimer(s.randDuration(s.cfg.Simulator.LogIntervalMin, s.cfg.Simulator.LogIntervalMax))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.generateAndProcess()
			timer.Reset(s.randDuration(s.cfg.Simulator.LogIntervalMin, s.cfg.Simulator.LogIntervalMax))
		case <-s.stopChan:
			s.log.Info().Msg("telemetry feed stopped")
			return
		}
	}
}

func (s *Simulator) patternLoop() {
	timer := time.NewTimer(s.randDuration(s.cfg.Simulator.PatternIntervalMin, s.cfg.Simulator.PatternIntervalMax))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			if s.chance(s.cfg.Simulator.PatternInjectChance) {
				s.injectPattern()
			}

			timer.Reset(s.randDuration(s.cfg.Simulator.PatternIntervalMin, s.cfg.Simulator.PatternIntervalMax))
		case <-s.stopChan:
			return
		}
	}
}

func (s *Simulator) anomalyLoop() {
	ticker := time.NewTicker(time.Duration(s.cfg.Simulator.AnomalyIntervalMins) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepAnomalies()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Simulator) retentionLoop() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.enforceRetention()
		case <-s.stopChan:
			return
		}
	}
}

// generateAndProcess runs one full feed cycle: generate, store, score,
// refine, persist the analysis, and surface any flagged pattern.
func (s *Simulator) generateAndProcess() {
	log := s.gen.TrafficLog()

	if err := s.store.CreateTrafficLog(&log); err != nil {
		s.log.Error().Err(err).Msg("failed to store generated log")
		return
	}

	system.LogsGenerated.Inc()

	fallback := s.scorer.ScoreLog(log)
	analysis := s.analyzer.AnalyzeLog(context.Background(), log, fallback)

	result := analysis.Result(&log.ID)
	if err := s.store.CreateAnalysis(&result); err != nil {
		s.log.Error().Err(err).Msg("failed to store analysis")
	} else {
		system.AnalysesStored.WithLabelValues("simulator").Inc()
	}

	if pattern, ok := analysis.PatternRecord(log); ok {
		if err := s.store.CreateAttackPattern(&pattern); err != nil {
			s.log.Error().Err(err).Msg("failed to store flagged pattern")
		} else {
			system.PatternsDetected.WithLabelValues("scorer").Inc()
			system.AddEvent("pattern", fmt.Sprintf("New pattern flagged: %s", pattern.Name))

			if err := s.webhook.AlertPattern(pattern); err != nil {
				s.log.Warn().Err(err).Msg("pattern alert failed")
			}
		}
	}

	if err := s.webhook.AlertAnalysis(log, analysis); err != nil {
		s.log.Warn().Err(err).Msg("analysis alert failed")
	}

	s.refreshMetricsSnapshot()
}

func (s *Simulator) injectPattern() {
	p := s.gen.AttackPattern()

	if err := s.store.CreateAttackPattern(&p); err != nil {
		s.log.Error().Err(err).Msg("failed to store injected pattern")
		return
	}

	system.PatternsDetected.WithLabelValues("generator").Inc()
	system.AddEvent("pattern", fmt.Sprintf("Recurring pattern observed: %s", p.Name))

	if err := s.webhook.AlertPattern(p); err != nil {
		s.log.Warn().Err(err).Msg("pattern alert failed")
	}
}

// sweepAnomalies runs the batch detectors over the most recent logs and
// stores everything they (and the remote adapter) emit.
func (s *Simulator) sweepAnomalies() {
	logs, err := s.store.RecentTrafficLogs(s.cfg.Simulator.AnomalyBatchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load batch for anomaly sweep")
		return
	}

	if len(logs) == 0 {
		return
	}

	ruleBased := DetectAnomalies(logs)
	patterns := s.analyzer.DetectAnomalies(context.Background(), logs, ruleBased)

	for i := range patterns {
		if err := s.store.CreateAttackPattern(&patterns[i]); err != nil {
			s.log.Error().Err(err).Msg("failed to store anomaly pattern")
			continue
		}

		detector := "anomaly"
		if i >= len(ruleBased) {
			detector = "remote"
		}
		system.PatternsDetected.WithLabelValues(detector).Inc()

		if err := s.webhook.AlertPattern(patterns[i]); err != nil {
			s.log.Warn().Err(err).Msg("pattern alert failed")
		}
	}

	if len(patterns) > 0 {
		s.log.Info().Int("findings", len(patterns)).Int("batch", len(logs)).Msg("anomaly sweep completed")
		system.AddEvent("anomaly", fmt.Sprintf("Batch sweep produced %d findings", len(patterns)))
	}
}

func (s *Simulator) enforceRetention() {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.Database.RetentionDays)

	removed, err := s.store.DeleteTrafficLogsBefore(cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("retention sweep failed")
		return
	}

	if removed > 0 {
		s.log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("retention sweep deleted old logs")
	}
}

// refreshMetricsSnapshot replaces the headline snapshot with live counts.
func (s *Simulator) refreshMetricsSnapshot() {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	attacks, err := s.store.CountTrafficLogsSince(midnight)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count today's attacks")
		return
	}

	unique, _ := s.store.CountUniqueSourceIPs()
	detections, _ := s.store.CountAnalyses()
	blocked, _ := s.store.CountTrafficLogsByStatus(models.StatusBlocked)

	m := models.SystemMetrics{
		AttacksToday:    int(attacks),
		UniqueIPs:       int(unique),
		AIDetections:    int(detections),
		BlockedAttempts: int(blocked),
		Uptime:          formatUptime(time.Since(s.startedAt)),
		LastUpdated:     now,
	}

	if err := s.store.SaveSystemMetrics(&m); err != nil {
		s.log.Error().Err(err).Msg("failed to save metrics snapshot")
	}
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

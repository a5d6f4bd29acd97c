package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhimazz28/SecureHive/config"
	"github.com/Dhimazz28/SecureHive/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// chatServer plays an OpenAI-compatible endpoint with a swappable response.
type chatServer struct {
	mu     sync.Mutex
	hits   int
	status int
	body   string

	lastPath string
	lastAuth string
	lastReq  chatRequest

	*httptest.Server
}

func newChatServer(t *testing.T) *chatServer {
	t.Helper()

	cs := &chatServer{status: http.StatusOK}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		defer cs.mu.Unlock()

		cs.hits++
		cs.lastPath = r.URL.Path
		cs.lastAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&cs.lastReq)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(cs.status)
		_, _ = w.Write([]byte(cs.body))
	}))
	t.Cleanup(cs.Close)

	return cs
}

func (cs *chatServer) respond(status int, body string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.status = status
	cs.body = body
}

func (cs *chatServer) hitCount() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.hits
}

func (cs *chatServer) lastRequest() (string, string, chatRequest) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.lastPath, cs.lastAuth, cs.lastReq
}

func chatReply(t *testing.T, content string) string {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)

	return string(payload)
}

func testAnalyzerConfig(baseURL string) config.AnalysisConfig {
	return config.AnalysisConfig{
		APIKey:          "test-key",
		Model:           "gpt-4o-mini",
		BaseURL:         baseURL,
		TimeoutSeconds:  5,
		MinCallSeconds:  2,
		CooldownMinutes: 5,
	}
}

func heuristicFallback() Analysis {
	return Analysis{
		AttackType:      "XSS Attempt",
		Technique:       "Reflected XSS",
		RiskScore:       4,
		Confidence:      72,
		Recommendations: []string{"Sanitize all user-supplied input"},
	}
}

func TestAnalyzeLogDisabledReturnsFallback(t *testing.T) {
	server := newChatServer(t)

	cfg := testAnalyzerConfig(server.URL)
	cfg.APIKey = ""
	analyzer := NewAIAnalyzer(cfg, newFakeClock())

	assert.False(t, analyzer.Enabled())

	fallback := heuristicFallback()
	got := analyzer.AnalyzeLog(context.Background(), models.TrafficLog{}, fallback)

	assert.Equal(t, fallback, got)
	assert.Equal(t, 0, server.hitCount())
}

func TestAnalyzeLogMergesRemoteReply(t *testing.T) {
	server := newChatServer(t)
	server.respond(http.StatusOK, chatReply(t, `{"attackType": "SQL Injection", "riskScore": 23, "technique": 42, "isNewPattern": true, "patternName": "Chained Injection Probe"}`))

	analyzer := NewAIAnalyzer(testAnalyzerConfig(server.URL), newFakeClock())
	fallback := heuristicFallback()

	got := analyzer.AnalyzeLog(context.Background(), models.TrafficLog{SourceIP: "203.0.113.5"}, fallback)

	assert.Equal(t, "SQL Injection", got.AttackType)
	assert.Equal(t, 10, got.RiskScore)
	// Mistyped technique keeps the heuristic value.
	assert.Equal(t, "Reflected XSS", got.Technique)
	assert.Equal(t, 72, got.Confidence)
	assert.Equal(t, fallback.Recommendations, got.Recommendations)
	assert.True(t, got.IsNewPattern)
	assert.Equal(t, "Chained Injection Probe", got.PatternName)

	path, auth, req := server.lastRequest()
	assert.Equal(t, "/chat/completions", path)
	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "gpt-4o-mini", req.Model)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "203.0.113.5")
}

func TestAnalyzeLogParsesFencedReply(t *testing.T) {
	server := newChatServer(t)
	server.respond(http.StatusOK, chatReply(t, "```json\n{\"riskScore\": 9}\n```"))

	analyzer := NewAIAnalyzer(testAnalyzerConfig(server.URL), newFakeClock())

	got := analyzer.AnalyzeLog(context.Background(), models.TrafficLog{}, heuristicFallback())

	assert.Equal(t, 9, got.RiskScore)
	assert.Equal(t, "Reflected XSS", got.Technique)
}

func TestAnalyzeLogProseReplyFallsBack(t *testing.T) {
	server := newChatServer(t)
	server.respond(http.StatusOK, chatReply(t, "I am unable to analyze this event."))

	analyzer := NewAIAnalyzer(testAnalyzerConfig(server.URL), newFakeClock())
	fallback := heuristicFallback()

	got := analyzer.AnalyzeLog(context.Background(), models.TrafficLog{}, fallback)

	assert.Equal(t, fallback, got)
	assert.Equal(t, 1, server.hitCount())
}

func TestAnalyzeLogMinIntervalGate(t *testing.T) {
	server := newChatServer(t)
	server.respond(http.StatusOK, chatReply(t, `{"riskScore": 8}`))

	clock := newFakeClock()
	analyzer := NewAIAnalyzer(testAnalyzerConfig(server.URL), clock)
	fallback := heuristicFallback()

	first := analyzer.AnalyzeLog(context.Background(), models.TrafficLog{}, fallback)
	assert.Equal(t, 8, first.RiskScore)
	assert.Equal(t, 1, server.hitCount())

	// Same instant: inside the minimum delay, no second round trip.
	second := analyzer.AnalyzeLog(context.Background(), models.TrafficLog{}, fallback)
	assert.Equal(t, fallback, second)
	assert.Equal(t, 1, server.hitCount())

	clock.Advance(2 * time.Second)

	third := analyzer.AnalyzeLog(context.Background(), models.TrafficLog{}, fallback)
	assert.Equal(t, 8, third.RiskScore)
	assert.Equal(t, 2, server.hitCount())
}

func TestAnalyzeLogQuotaCooldown(t *testing.T) {
	server := newChatServer(t)
	server.respond(http.StatusTooManyRequests, `{"error":{"message":"You exceeded your current quota"}}`)

	clock := newFakeClock()
	analyzer := NewAIAnalyzer(testAnalyzerConfig(server.URL), clock)
	fallback := heuristicFallback()

	got := analyzer.AnalyzeLog(context.Background(), models.TrafficLog{}, fallback)
	assert.Equal(t, fallback, got)
	assert.Equal(t, 1, server.hitCount())

	status := analyzer.Status()
	assert.True(t, status.Enabled)
	assert.True(t, status.CoolingDown)
	assert.Equal(t, clock.Now().Add(5*time.Minute), status.CooldownUntil)

	// Past the call delay but still cooling down.
	clock.Advance(3 * time.Second)
	got = analyzer.AnalyzeLog(context.Background(), models.TrafficLog{}, fallback)
	assert.Equal(t, fallback, got)
	assert.Equal(t, 1, server.hitCount())

	server.respond(http.StatusOK, chatReply(t, `{"riskScore": 6}`))
	clock.Advance(5 * time.Minute)

	got = analyzer.AnalyzeLog(context.Background(), models.TrafficLog{}, fallback)
	assert.Equal(t, 6, got.RiskScore)
	assert.Equal(t, 2, server.hitCount())
	assert.False(t, analyzer.Status().CoolingDown)
}

func TestDetectAnomaliesAppendsValidatedRemote(t *testing.T) {
	server := newChatServer(t)
	server.respond(http.StatusOK, chatReply(t, `[
		{"name": "Credential Stuffing Wave", "technique": "Distributed Login Abuse", "confidence": 188, "riskScore": 7, "occurrences": 12},
		{"description": "dropped for missing name"},
		{"name": "Minimal Finding"}
	]`))

	analyzer := NewAIAnalyzer(testAnalyzerConfig(server.URL), newFakeClock())

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	logs := []models.TrafficLog{
		batchLog("203.0.113.5", "US", "Brute Force", "", base),
		batchLog("203.0.113.6", "US", "Brute Force", "", base.Add(10*time.Minute)),
	}
	ruleBased := []models.AttackPattern{{Name: "Multi-Vector Coordinated Attack"}}

	got := analyzer.DetectAnomalies(context.Background(), logs, ruleBased)

	require.Len(t, got, 3)
	assert.Equal(t, "Multi-Vector Coordinated Attack", got[0].Name)

	wave := got[1]
	assert.Equal(t, "Credential Stuffing Wave", wave.Name)
	assert.Equal(t, "Distributed Login Abuse", wave.Technique)
	assert.Equal(t, 100, wave.Confidence)
	assert.Equal(t, 7, wave.RiskScore)
	assert.Equal(t, 12, wave.Occurrences)
	assert.Equal(t, base, wave.FirstSeen)
	assert.Equal(t, base.Add(10*time.Minute), wave.LastSeen)
	assert.Equal(t, models.PatternStatusNew, wave.Status)
	assert.True(t, wave.AIGenerated)

	minimal := got[2]
	assert.Equal(t, "Minimal Finding", minimal.Name)
	assert.Equal(t, "Correlated Attack Activity", minimal.Technique)
	assert.Equal(t, 70, minimal.Confidence)
	assert.Equal(t, 5, minimal.RiskScore)
	assert.Equal(t, 1, minimal.Occurrences)
}

func TestDetectAnomaliesRefusalKeepsRuleBased(t *testing.T) {
	server := newChatServer(t)

	cfg := testAnalyzerConfig(server.URL)
	cfg.APIKey = ""
	analyzer := NewAIAnalyzer(cfg, newFakeClock())

	logs := []models.TrafficLog{batchLog("203.0.113.5", "US", "Brute Force", "", time.Now())}
	ruleBased := []models.AttackPattern{{Name: "Multi-Vector Coordinated Attack"}}

	got := analyzer.DetectAnomalies(context.Background(), logs, ruleBased)

	assert.Equal(t, ruleBased, got)
	assert.Equal(t, 0, server.hitCount())
}

func TestDetectAnomaliesEmptyBatchSkipsRemote(t *testing.T) {
	server := newChatServer(t)
	analyzer := NewAIAnalyzer(testAnalyzerConfig(server.URL), newFakeClock())

	got := analyzer.DetectAnomalies(context.Background(), nil, nil)

	assert.Empty(t, got)
	assert.Equal(t, 0, server.hitCount())
}

func TestDetectAnomaliesMalformedReplyKeepsRuleBased(t *testing.T) {
	server := newChatServer(t)
	server.respond(http.StatusOK, chatReply(t, "no findings"))

	analyzer := NewAIAnalyzer(testAnalyzerConfig(server.URL), newFakeClock())

	logs := []models.TrafficLog{batchLog("203.0.113.5", "US", "Brute Force", "", time.Now())}
	ruleBased := []models.AttackPattern{{Name: "Multi-Vector Coordinated Attack"}}

	got := analyzer.DetectAnomalies(context.Background(), logs, ruleBased)

	assert.Equal(t, ruleBased, got)
	assert.Equal(t, 1, server.hitCount())
}

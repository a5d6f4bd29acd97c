package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dhimazz28/SecureHive/config"
	"github.com/Dhimazz28/SecureHive/models"
	"github.com/Dhimazz28/SecureHive/system"
)

// Clock abstracts time for the adapter's delay and cooldown gates.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// chatRequest is an OpenAI-compatible chat completion request.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// AnalyzerStatus is the adapter state reported by the system-status view.
type AnalyzerStatus struct {
	Enabled       bool      `json:"enabled"`
	CoolingDown   bool      `json:"coolingDown"`
	CooldownUntil time.Time `json:"cooldownUntil,omitempty"`
}

// AIAnalyzer refines heuristic output through an OpenAI-compatible chat
// completion API. Without an API key every call returns the fallback. The
// adapter never lets remote output violate the data model: all numerics are
// clamped and missing or mistyped fields keep the fallback's values.
type AIAnalyzer struct {
	apiKey      string
	model       string
	baseURL     string
	minInterval time.Duration
	cooldown    time.Duration
	httpClient  *http.Client
	clock       Clock
	log         zerolog.Logger

	mu            sync.Mutex
	lastCall      time.Time
	cooldownUntil time.Time
}

// NewAIAnalyzer builds the adapter. A nil clock gets the wall clock.
func NewAIAnalyzer(cfg config.AnalysisConfig, clock Clock) *AIAnalyzer {
	if clock == nil {
		clock = systemClock{}
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	minInterval := time.Duration(cfg.MinCallSeconds) * time.Second
	if minInterval <= 0 {
		minInterval = 2 * time.Second
	}

	cooldown := time.Duration(cfg.CooldownMinutes) * time.Minute
	if cooldown <= 0 {
		cooldown = 5 * time.Minute
	}

	return &AIAnalyzer{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     baseURL,
		minInterval: minInterval,
		cooldown:    cooldown,
		httpClient:  &http.Client{Timeout: timeout},
		clock:       clock,
		log:         system.WithComponent("aianalyzer"),
	}
}

// Enabled reports whether remote analysis is configured at all.
func (a *AIAnalyzer) Enabled() bool {
	return a.apiKey != ""
}

// Status reports the adapter's current gate state.
func (a *AIAnalyzer) Status() AnalyzerStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	status := AnalyzerStatus{Enabled: a.apiKey != ""}

	if a.clock.Now().Before(a.cooldownUntil) {
		status.CoolingDown = true
		status.CooldownUntil = a.cooldownUntil
	}

	return status
}

// allowRemote reserves a remote call slot. It refuses while disabled, while
// cooling down, or before the minimum delay since the previous call has
// elapsed.
func (a *AIAnalyzer) allowRemote() bool {
	if a.apiKey == "" {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()

	if now.Before(a.cooldownUntil) {
		return false
	}

	if !a.lastCall.IsZero() && now.Sub(a.lastCall) < a.minInterval {
		return false
	}

	a.lastCall = now

	return true
}

func (a *AIAnalyzer) enterCooldown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cooldownUntil = a.clock.Now().Add(a.cooldown)
	system.RemoteCooldowns.Inc()

	a.log.Warn().Time("until", a.cooldownUntil).Msg("quota exhausted, pausing remote analysis")
}

func isQuotaError(status int, body string) bool {
	if status == http.StatusTooManyRequests {
		return true
	}

	lower := strings.ToLower(body)

	return strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit")
}

// generate performs one chat completion round trip and returns the reply
// content.
func (a *AIAnalyzer) generate(ctx context.Context, prompt string) (string, error) {
	system.RemoteCalls.Inc()

	request := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   1024,
		Temperature: 0.2,
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/chat/completions", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("remote call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if isQuotaError(resp.StatusCode, string(body)) {
			a.enterCooldown()
		}

		var apiErr chatError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("remote API error: %s", apiErr.Error.Message)
		}

		return "", fmt.Errorf("remote API status %d: %s", resp.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return response.Choices[0].Message.Content, nil
}

// AnalyzeLog refines one heuristic analysis. The fallback is returned
// unchanged whenever the remote path is unavailable, throttled, or fails.
func (a *AIAnalyzer) AnalyzeLog(ctx context.Context, log models.TrafficLog, fallback Analysis) Analysis {
	if !a.allowRemote() {
		system.RemoteFallbacks.Inc()
		return fallback
	}

	content, err := a.generate(ctx, buildLogPrompt(log))
	if err != nil {
		system.RemoteFailures.Inc()
		system.RemoteFallbacks.Inc()
		a.log.Error().Err(err).Msg("remote analysis failed")

		return fallback
	}

	merged, err := mergeRemoteAnalysis(content, fallback)
	if err != nil {
		system.RemoteFailures.Inc()
		system.RemoteFallbacks.Inc()
		a.log.Warn().Err(err).Msg("discarding unparseable remote analysis")

		return fallback
	}

	return merged
}

// DetectAnomalies asks the remote API for additional batch findings. Remote
// patterns are validated and appended after the rule-based ones; on any
// failure the rule-based list is returned as-is.
func (a *AIAnalyzer) DetectAnomalies(ctx context.Context, logs []models.TrafficLog, ruleBased []models.AttackPattern) []models.AttackPattern {
	if len(logs) == 0 || !a.allowRemote() {
		return ruleBased
	}

	content, err := a.generate(ctx, buildBatchPrompt(logs))
	if err != nil {
		system.RemoteFailures.Inc()
		a.log.Error().Err(err).Msg("remote anomaly detection failed")

		return ruleBased
	}

	remote, err := parseRemotePatterns(content, logs)
	if err != nil {
		system.RemoteFailures.Inc()
		a.log.Warn().Err(err).Msg("discarding unparseable remote anomalies")

		return ruleBased
	}

	return append(ruleBased, remote...)
}

func buildLogPrompt(log models.TrafficLog) string {
	return fmt.Sprintf(`You are a security analyst. Analyze this event and answer with a single JSON object using exactly these keys: attackType (string), technique (string), riskScore (integer 1-10), confidence (integer 0-100), recommendations (array of strings), isNewPattern (boolean), patternName (string), patternDescription (string).

Event:
- source address: %s
- source country: %s
- attack type: %s
- target path: %s
- severity: %s
- HTTP method: %s, port %d
- user agent: %s
- payload: %s

Answer with JSON only, no prose.`,
		log.SourceIP, log.SourceCountry, log.AttackType, log.Target,
		log.Severity, log.Method, log.Port, log.UserAgent, log.Payload)
}

func buildBatchPrompt(logs []models.TrafficLog) string {
	var sb strings.Builder

	sb.WriteString("You are a security analyst. These events were captured in one window. ")
	sb.WriteString("Identify attack patterns the individual events would not reveal. ")
	sb.WriteString("Answer with a JSON array of objects using exactly these keys: name (string), description (string), technique (string), confidence (integer 0-100), riskScore (integer 1-10), occurrences (integer). Answer with JSON only.\n\nEvents:\n")

	for _, log := range logs {
		payload := log.Payload
		if len(payload) > 80 {
			payload = payload[:80]
		}

		fmt.Fprintf(&sb, "- %s [%s] %s -> %s (%s) payload=%q\n",
			log.SourceIP, log.SourceCountry, log.AttackType, log.Target, log.Severity, payload)
	}

	return sb.String()
}

// extractJSON cuts the first JSON value out of a reply that may be wrapped
// in markdown fences or prose.
func extractJSON(content string, open, close byte) (string, error) {
	start := strings.IndexByte(content, open)
	end := strings.LastIndexByte(content, close)

	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON value in remote reply")
	}

	return content[start : end+1], nil
}

// mergeRemoteAnalysis overlays remote fields onto the fallback. Each field
// is decoded independently: omitted or mistyped fields keep the fallback's
// value, and numerics are clamped to their documented ranges.
func mergeRemoteAnalysis(content string, fallback Analysis) (Analysis, error) {
	body, err := extractJSON(content, '{', '}')
	if err != nil {
		return fallback, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return fallback, fmt.Errorf("unmarshal remote analysis: %w", err)
	}

	out := fallback

	if s, ok := decodeString(fields["attackType"]); ok {
		out.AttackType = s
	}
	if s, ok := decodeString(fields["technique"]); ok {
		out.Technique = s
	}
	if n, ok := decodeNumber(fields["riskScore"]); ok {
		out.RiskScore = int(n)
	}
	if n, ok := decodeNumber(fields["confidence"]); ok {
		out.Confidence = int(n)
	}

	if raw, exists := fields["recommendations"]; exists {
		var recs []string
		if err := json.Unmarshal(raw, &recs); err == nil && len(recs) > 0 {
			out.Recommendations = recs
		}
	}

	if raw, exists := fields["isNewPattern"]; exists {
		var flag bool
		if err := json.Unmarshal(raw, &flag); err == nil {
			out.IsNewPattern = flag
		}
	}

	if s, ok := decodeString(fields["patternName"]); ok {
		out.PatternName = s
	}
	if s, ok := decodeString(fields["patternDescription"]); ok {
		out.PatternDescription = s
	}

	out.RiskScore = models.ClampRiskScore(out.RiskScore)
	out.Confidence = models.ClampConfidence(out.Confidence)

	return out, nil
}

func decodeString(raw json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}

	return s, true
}

func decodeNumber(raw json.RawMessage) (float64, bool) {
	if raw == nil {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}

	return n, true
}

// parseRemotePatterns validates a remote anomaly reply. Elements without a
// usable name are dropped; numerics are clamped; lifecycle fields are forced
// to the values every new finding carries.
func parseRemotePatterns(content string, logs []models.TrafficLog) ([]models.AttackPattern, error) {
	body, err := extractJSON(content, '[', ']')
	if err != nil {
		return nil, err
	}

	var elements []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &elements); err != nil {
		return nil, fmt.Errorf("unmarshal remote anomalies: %w", err)
	}

	first, last := timeSpan(logs)

	var patterns []models.AttackPattern

	for _, fields := range elements {
		name, ok := decodeString(fields["name"])
		if !ok {
			continue
		}

		p := models.AttackPattern{
			Name:        name,
			Technique:   "Correlated Attack Activity",
			Confidence:  70,
			RiskScore:   5,
			Occurrences: 1,
			FirstSeen:   first,
			LastSeen:    last,
			Status:      models.PatternStatusNew,
			AIGenerated: true,
		}

		if s, ok := decodeString(fields["description"]); ok {
			p.Description = s
		}
		if s, ok := decodeString(fields["technique"]); ok {
			p.Technique = s
		}
		if n, ok := decodeNumber(fields["confidence"]); ok {
			p.Confidence = int(n)
		}
		if n, ok := decodeNumber(fields["riskScore"]); ok {
			p.RiskScore = int(n)
		}
		if n, ok := decodeNumber(fields["occurrences"]); ok && int(n) > 0 {
			p.Occurrences = int(n)
		}

		p.Confidence = models.ClampConfidence(p.Confidence)
		p.RiskScore = models.ClampRiskScore(p.RiskScore)

		patterns = append(patterns, p)
	}

	return patterns, nil
}

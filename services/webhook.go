package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Dhimazz28/SecureHive/models"
	"github.com/Dhimazz28/SecureHive/system"
)

// WebhookService pushes Discord-style alert embeds for high-risk findings.
// Alerts are suppressed per category while a cooldown is active so a noisy
// detector cannot flood the channel.
type WebhookService struct {
	webhookURL    string
	riskThreshold int
	cooldown      time.Duration
	client        *http.Client
	log           zerolog.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// DiscordEmbed represents a Discord embed object.
type DiscordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []DiscordEmbedField `json:"fields,omitempty"`
	Footer      *DiscordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

// DiscordEmbedField represents a field in a Discord embed.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// DiscordEmbedFooter represents a footer in a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

// DiscordWebhookPayload represents a Discord webhook message.
type DiscordWebhookPayload struct {
	Username string         `json:"username,omitempty"`
	Content  string         `json:"content,omitempty"`
	Embeds   []DiscordEmbed `json:"embeds,omitempty"`
}

// Discord color constants.
const (
	ColorRed    = 0xFF0000 // high-risk finding
	ColorOrange = 0xFFAA00 // warning
	ColorGreen  = 0x00FF00 // success
	ColorBlue   = 0x00AAFF // info
)

// NewWebhookService creates the alert notifier. An empty URL disables it.
func NewWebhookService(url string, riskThreshold int, cooldown time.Duration) *WebhookService {
	return &WebhookService{
		webhookURL:    url,
		riskThreshold: riskThreshold,
		cooldown:      cooldown,
		client:        &http.Client{Timeout: 10 * time.Second},
		log:           system.WithComponent("webhook"),
		lastSent:      make(map[string]time.Time),
	}
}

// IsEnabled returns whether a webhook URL is configured.
func (w *WebhookService) IsEnabled() bool {
	return w.webhookURL != ""
}

// allow records and checks the per-category cooldown.
func (w *WebhookService) allow(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if last, ok := w.lastSent[key]; ok && time.Since(last) < w.cooldown {
		return false
	}

	w.lastSent[key] = time.Now()

	return true
}

// AlertPattern notifies about a detected pattern at or above the risk
// threshold.
func (w *WebhookService) AlertPattern(p models.AttackPattern) error {
	if !w.IsEnabled() || p.RiskScore < w.riskThreshold {
		return nil
	}

	if !w.allow("pattern:" + p.Name) {
		return nil
	}

	embed := DiscordEmbed{
		Title:       "🚨 High-Risk Pattern Detected",
		Description: p.Description,
		Color:       ColorRed,
		Fields: []DiscordEmbedField{
			{Name: "Pattern", Value: p.Name, Inline: true},
			{Name: "Technique", Value: p.Technique, Inline: true},
			{Name: "Risk", Value: fmt.Sprintf("%d/10", p.RiskScore), Inline: true},
			{Name: "Confidence", Value: fmt.Sprintf("%d%%", p.Confidence), Inline: true},
			{Name: "Occurrences", Value: fmt.Sprintf("%d", p.Occurrences), Inline: true},
		},
		Footer:    &DiscordEmbedFooter{Text: "SecureHive Monitor"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return w.sendEmbed(embed)
}

// AlertAnalysis notifies about a single analyzed event at or above the risk
// threshold.
func (w *WebhookService) AlertAnalysis(log models.TrafficLog, analysis Analysis) error {
	if !w.IsEnabled() || analysis.RiskScore < w.riskThreshold {
		return nil
	}

	if !w.allow("analysis:" + strings.ToLower(analysis.AttackType)) {
		return nil
	}

	embed := DiscordEmbed{
		Title:       "⚠️ High-Risk Event",
		Description: fmt.Sprintf("Suspicious traffic detected from **%s**", log.SourceIP),
		Color:       ColorOrange,
		Fields: []DiscordEmbedField{
			{Name: "Source IP", Value: fmt.Sprintf("`%s`", log.SourceIP), Inline: true},
			{Name: "Country", Value: log.SourceCountry, Inline: true},
			{Name: "Attack Type", Value: analysis.AttackType, Inline: true},
			{Name: "Technique", Value: analysis.Technique, Inline: true},
			{Name: "Risk", Value: fmt.Sprintf("%d/10", analysis.RiskScore), Inline: true},
			{Name: "Target", Value: log.Target, Inline: true},
		},
		Footer:    &DiscordEmbedFooter{Text: "SecureHive Monitor"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return w.sendEmbed(embed)
}

// NotifyRetrain announces a completed (simulated) model retrain.
func (w *WebhookService) NotifyRetrain(stats models.DatasetStats) error {
	if !w.IsEnabled() || !w.allow("retrain") {
		return nil
	}

	embed := DiscordEmbed{
		Title:       "🧠 Model Retrained",
		Description: "Detection model retraining completed",
		Color:       ColorGreen,
		Fields: []DiscordEmbedField{
			{Name: "Accuracy", Value: fmt.Sprintf("%.1f%%", stats.ModelAccuracy), Inline: true},
			{Name: "Samples", Value: fmt.Sprintf("%d", stats.TotalSamples), Inline: true},
		},
		Footer:    &DiscordEmbedFooter{Text: "SecureHive Monitor"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return w.sendEmbed(embed)
}

// SendSystemAlert delivers a lifecycle notice. Not subject to the
// per-category cooldown.
func (w *WebhookService) SendSystemAlert(title, message string, color int) error {
	if !w.IsEnabled() {
		return nil
	}

	embed := DiscordEmbed{
		Title:       title,
		Description: message,
		Color:       color,
		Footer:      &DiscordEmbedFooter{Text: "SecureHive Monitor"},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}

	return w.sendEmbed(embed)
}

// SendTestAlert verifies webhook connectivity.
func (w *WebhookService) SendTestAlert() error {
	if !w.IsEnabled() {
		return fmt.Errorf("webhook not configured")
	}

	embed := DiscordEmbed{
		Title:       "✅ Webhook Test",
		Description: "SecureHive webhook is configured correctly",
		Color:       ColorBlue,
		Fields: []DiscordEmbedField{
			{Name: "Status", Value: "Connected", Inline: true},
			{Name: "Server Time", Value: time.Now().Format("2006-01-02 15:04:05"), Inline: true},
		},
		Footer:    &DiscordEmbedFooter{Text: "SecureHive Monitor"},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	return w.sendEmbed(embed)
}

func (w *WebhookService) sendEmbed(embed DiscordEmbed) error {
	payload := DiscordWebhookPayload{
		Username: "SecureHive",
		Embeds:   []DiscordEmbed{embed},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, w.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	system.WebhookAlerts.Inc()
	w.log.Info().Str("title", embed.Title).Msg("webhook alert delivered")

	return nil
}

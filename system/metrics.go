package system

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the main processing paths. Registered on
// the default registry and served at /metrics.
var (
	LogsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securehive_traffic_logs_generated_total",
		Help: "Traffic logs produced by the built-in simulator",
	})

	LogsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securehive_traffic_logs_ingested_total",
		Help: "Traffic logs accepted from external producers",
	})

	AnalysesStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "securehive_analyses_stored_total",
		Help: "Analysis results stored, labeled by producer (simulator or ingest)",
	}, []string{"source"})

	PatternsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "securehive_patterns_detected_total",
		Help: "Attack patterns stored, labeled by detector",
	}, []string{"detector"})

	RemoteCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securehive_remote_analysis_calls_total",
		Help: "Requests sent to the remote analysis API",
	})

	RemoteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securehive_remote_analysis_failures_total",
		Help: "Remote analysis requests that failed or returned unusable output",
	})

	RemoteFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securehive_remote_analysis_fallbacks_total",
		Help: "Analyses answered by the heuristic fallback instead of the remote API",
	})

	RemoteCooldowns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securehive_remote_analysis_cooldowns_total",
		Help: "Cooldown periods entered after quota or rate-limit errors",
	})

	WebhookAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "securehive_webhook_alerts_total",
		Help: "Alert notifications delivered to the configured webhook",
	})

	ModelAccuracy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "securehive_model_accuracy_percent",
		Help: "Reported accuracy of the simulated detection model",
	})
)

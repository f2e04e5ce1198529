package goArgon2

import internalmetrics "github.com/MrEthical07/goArgon2/internal/metrics"

// MetricID identifies a counter or histogram in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricHashSuccess          = MetricID(internalmetrics.MetricHashSuccess)
	MetricHashFailure          = MetricID(internalmetrics.MetricHashFailure)
	MetricVerifySuccess        = MetricID(internalmetrics.MetricVerifySuccess)
	MetricVerifyMismatch       = MetricID(internalmetrics.MetricVerifyMismatch)
	MetricVerifyFailure        = MetricID(internalmetrics.MetricVerifyFailure)
	MetricPowFound             = MetricID(internalmetrics.MetricPowFound)
	MetricPowExhausted         = MetricID(internalmetrics.MetricPowExhausted)
	MetricPowTimedOut          = MetricID(internalmetrics.MetricPowTimedOut)
	MetricPowCancelled         = MetricID(internalmetrics.MetricPowCancelled)
	MetricPowBusy              = MetricID(internalmetrics.MetricPowBusy)
	MetricPowAttempts          = MetricID(internalmetrics.MetricPowAttempts)
	MetricChallengeIssued      = MetricID(internalmetrics.MetricChallengeIssued)
	MetricChallengeRateLimited = MetricID(internalmetrics.MetricChallengeRateLimited)
	MetricChallengeRedeemed    = MetricID(internalmetrics.MetricChallengeRedeemed)
	MetricChallengeRejected    = MetricID(internalmetrics.MetricChallengeRejected)
	MetricClearanceValid       = MetricID(internalmetrics.MetricClearanceValid)
	MetricClearanceInvalid     = MetricID(internalmetrics.MetricClearanceInvalid)
	// MetricHashLatency and MetricPowLatency are histograms; they only
	// appear in MetricsSnapshot.Histograms.
	MetricHashLatency = MetricID(internalmetrics.MetricHashLatency)
	MetricPowLatency  = MetricID(internalmetrics.MetricPowLatency)

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] configured by cfg. When Enabled is false
// every operation is a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}

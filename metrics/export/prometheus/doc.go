// Package prometheus exposes goArgon2 metrics as a Prometheus collector.
//
// [PrometheusExporter] implements prometheus.Collector over
// [goArgon2.Engine.MetricsSnapshot]. Register it with any registry, or mount
// [PrometheusExporter.Handler] which serves it from a private one. Counter
// names are goargon2_*_total; the latency histograms are
// goargon2_hash_latency_seconds and goargon2_pow_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus

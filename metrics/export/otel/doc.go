// Package otel binds goArgon2 metrics to an OpenTelemetry meter.
//
// [NewOTelExporter] registers an Int64ObservableCounter for each counter and
// an Int64ObservableGauge for each histogram bucket. One callback reads
// [goArgon2.Engine.MetricsSnapshot] per collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel

// Package otel binds console metrics to an OpenTelemetry Meter.
//
// [NewExporter] registers one Int64ObservableCounter per console counter, one
// Int64ObservableGauge per latency bucket, and gauges for the session and
// circuit breaker state. A single callback reads
// [goConsole.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel

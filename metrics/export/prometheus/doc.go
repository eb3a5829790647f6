// Package prometheus renders console metrics in Prometheus text exposition
// format.
//
// [NewExporter] reads from a [goConsole.Engine]. Counters are named
// goconsole_*_total, the attempt latency histogram is
// goconsole_request_latency_seconds, and two gauges report whether a session
// is held and whether the API circuit breaker is open.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the
//     Handler or print Render.
//   - Mutate engine state.
package prometheus

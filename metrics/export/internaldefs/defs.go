package internaldefs

import (
	goConsole "github.com/MrEthical07/goConsole"
)

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goConsole.MetricID
	Name string
	Help string
}

// HistogramDef names one exported latency histogram.
type HistogramDef struct {
	ID   goConsole.MetricID
	Name string
	Help string
}

// GaugeDef names one exported state gauge.
type GaugeDef struct {
	Name string
	Help string
}

// CounterDefs lists every exported counter in rendering order.
var CounterDefs = []CounterDef{
	{ID: goConsole.MetricLoginSuccess, Name: "goconsole_login_success_total", Help: "Logins that produced a stored session."},
	{ID: goConsole.MetricLoginFailure, Name: "goconsole_login_failure_total", Help: "Logins rejected by the server or failing locally."},
	{ID: goConsole.MetricLoginInvalidInput, Name: "goconsole_login_invalid_input_total", Help: "Logins refused by credential validation."},
	{ID: goConsole.MetricLogout, Name: "goconsole_logout_total", Help: "Caller-requested logouts."},
	{ID: goConsole.MetricAutoLogout, Name: "goconsole_auto_logout_total", Help: "Sessions torn down after an unauthorized reply."},
	{ID: goConsole.MetricRestoreSuccess, Name: "goconsole_restore_success_total", Help: "Sessions restored from the token store."},
	{ID: goConsole.MetricRestoreExpired, Name: "goconsole_restore_expired_total", Help: "Stored tokens discarded as expired or malformed."},
	{ID: goConsole.MetricRequestTotal, Name: "goconsole_request_total", Help: "Admin API call attempts."},
	{ID: goConsole.MetricRequestUnauthorized, Name: "goconsole_request_unauthorized_total", Help: "Admin API calls rejected with 401."},
	{ID: goConsole.MetricRequestTimeout, Name: "goconsole_request_timeout_total", Help: "Admin API calls that hit their deadline."},
	{ID: goConsole.MetricRequestUnreachable, Name: "goconsole_request_unreachable_total", Help: "Admin API calls that failed in transport or on an open circuit."},
	{ID: goConsole.MetricRequestRetry, Name: "goconsole_request_retry_total", Help: "Retried admin API call attempts."},
	{ID: goConsole.MetricValidationFailure, Name: "goconsole_validation_failure_total", Help: "Records refused by local validation."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goConsole.MetricRequestLatency, Name: "goconsole_request_latency_seconds", Help: "Admin API call latency histogram."},
}

var (
	// AuditDropped is the dispatcher backpressure counter.
	AuditDropped = CounterDef{Name: "goconsole_audit_dropped_total", Help: "Dropped audit events due to dispatcher backpressure."}
	// SessionAuthenticated is 1 while the engine holds a session.
	SessionAuthenticated = GaugeDef{Name: "goconsole_session_authenticated", Help: "1 while an authenticated session is held."}
	// BreakerOpen is 1 while the API circuit breaker rejects calls.
	BreakerOpen = GaugeDef{Name: "goconsole_breaker_open", Help: "1 while the admin API circuit breaker is open."}
)

// HistogramBounds are the upper bounds, in seconds, of the eight buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are instrument-name-safe forms of HistogramBounds.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, padding with
// zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}

// BoolGauge renders a boolean state as 0 or 1.
func BoolGauge(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

package goConsole

import (
	"net"
	"net/url"
	"strings"
	"time"
)

// LintSeverity ranks a LintWarning.
type LintSeverity uint8

const (
	// LintInfo marks a setting worth knowing about.
	LintInfo LintSeverity = iota
	// LintWarn marks a setting that weakens the client.
	LintWarn
)

func (s LintSeverity) String() string {
	if s == LintWarn {
		return "warn"
	}
	return "info"
}

// LintWarning is one advisory finding. Unlike Validate errors, warnings
// never stop Build.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the list of findings from [Config.Lint].
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, len(r))
	for i, w := range r {
		out[i] = w.Code
	}
	return out
}

// Lint reports valid but questionable settings.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if u, err := url.Parse(c.API.BaseURL); err == nil && u.Scheme == "http" && !isLoopback(u.Hostname()) {
		add("insecure_base_url", LintWarn, "credentials and tokens are sent over plain http")
	}
	if c.API.Timeout > 30*time.Second {
		add("timeout_long", LintInfo, "a hung API call blocks the caller for more than 30s")
	}
	if !c.Breaker.Enabled && c.API.RetryAttempts > 0 {
		add("retries_without_breaker", LintInfo, "retries keep hitting an unreachable API with the circuit breaker off")
	}
	if c.Store.Backend == StoreMemory {
		add("memory_store", LintInfo, "the session is lost when the process exits")
	}
	if c.Store.Backend == StoreRedis && c.Store.RedisTTL == 0 {
		add("redis_no_ttl", LintInfo, "an abandoned token stays in redis until it is overwritten")
	}
	if c.JWT.RefreshThreshold >= time.Duration(c.JWT.ExpiryHours)*time.Hour {
		add("refresh_threshold_exceeds_ttl", LintWarn, "every session is reported as due for refresh")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "session lifecycle events are not recorded")
	}
	if lvl := strings.ToLower(strings.TrimSpace(c.Logging.Level)); lvl == "debug" || lvl == "trace" {
		add("verbose_logging", LintInfo, "request paths and ids are logged for every call")
	}

	return ws
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

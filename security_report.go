package goConsole

import (
	"net/url"
	"time"
)

// SecurityReport summarises the security-relevant posture of an Engine's
// configuration.
type SecurityReport struct {
	BaseURL           string
	TLS               bool
	RequestTimeout    time.Duration
	RetryAttempts     int
	BreakerEnabled    bool
	StoreBackend      string
	DurableStore      bool
	AssumedTokenTTL   time.Duration
	RefreshThreshold  time.Duration
	AuditEnabled      bool
	LogRedaction      bool
	CredentialsMaxLen int
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	tls := false
	if u, err := url.Parse(e.config.API.BaseURL); err == nil {
		tls = u.Scheme == "https"
	}

	return SecurityReport{
		BaseURL:           e.config.API.BaseURL,
		TLS:               tls,
		RequestTimeout:    e.config.API.Timeout,
		RetryAttempts:     e.config.API.RetryAttempts,
		BreakerEnabled:    e.config.Breaker.Enabled,
		StoreBackend:      e.config.Store.Backend,
		DurableStore:      e.config.Store.Backend != StoreMemory,
		AssumedTokenTTL:   time.Duration(e.config.JWT.ExpiryHours) * time.Hour,
		RefreshThreshold:  e.config.JWT.RefreshThreshold,
		AuditEnabled:      e.config.Audit.Enabled,
		LogRedaction:      true,
		CredentialsMaxLen: e.config.Validation.CredentialsMaxLength,
	}
}

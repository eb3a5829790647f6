package flows

import (
	"context"
	"fmt"
)

// LogoutReason distinguishes a caller-requested logout from the teardown
// triggered by an unauthorized response.
type LogoutReason uint8

const (
	LogoutRequested LogoutReason = iota
	LogoutUnauthorized
)

// LogoutRequest describes one logout.
type LogoutRequest struct {
	Reason LogoutReason
	// Subject is the subject of the session being dropped.
	Subject string
	// HadSession is false when the engine held no session. The store is
	// still cleared but nothing is counted or audited.
	HadSession bool
}

// LogoutMetrics carries metric IDs used by the logout flow.
type LogoutMetrics struct {
	Logout     int
	AutoLogout int
}

// LogoutEvents carries audit event names used by the logout flow.
type LogoutEvents struct {
	Logout     string
	AutoLogout string
}

// LogoutErrors carries host-level sentinel errors used by the logout flow.
type LogoutErrors struct {
	EngineNotReady   error
	StoreUnavailable error
}

// LogoutDeps captures logout dependencies.
type LogoutDeps struct {
	ClearToken func(context.Context) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics LogoutMetrics
	Events  LogoutEvents
	Errors  LogoutErrors
}

// RunLogout clears the stored token. Clearing an absent token succeeds.
func RunLogout(ctx context.Context, req LogoutRequest, deps LogoutDeps) error {
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.ClearToken == nil {
		return deps.Errors.EngineNotReady
	}

	clearErr := deps.ClearToken(ctx)
	if clearErr != nil {
		clearErr = fmt.Errorf("%w: %w", deps.Errors.StoreUnavailable, clearErr)
	}

	if !req.HadSession {
		return clearErr
	}

	metric, event := deps.Metrics.Logout, deps.Events.Logout
	if req.Reason == LogoutUnauthorized {
		metric, event = deps.Metrics.AutoLogout, deps.Events.AutoLogout
	}
	deps.MetricInc(metric)
	deps.EmitAudit(ctx, event, clearErr == nil, req.Subject, clearErr, nil)
	return clearErr
}

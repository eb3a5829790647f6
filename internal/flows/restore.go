package flows

import (
	"context"
	"fmt"
	"time"

	"github.com/MrEthical07/goConsole/jwt"
	"github.com/MrEthical07/goConsole/session"
)

// RestoreOutcome classifies what Restore found in the token store.
type RestoreOutcome uint8

const (
	RestoreAbsent RestoreOutcome = iota
	RestoreRestored
	RestoreExpired
	RestoreMalformed
)

func (o RestoreOutcome) String() string {
	switch o {
	case RestoreAbsent:
		return "absent"
	case RestoreRestored:
		return "restored"
	case RestoreExpired:
		return "expired"
	case RestoreMalformed:
		return "malformed"
	}
	return "unknown"
}

// RestoreResult is the flow-local restore response shape.
type RestoreResult struct {
	Outcome RestoreOutcome
	Session *session.Session
}

// RestoreMetrics carries metric IDs used by the restore flow.
type RestoreMetrics struct {
	RestoreSuccess int
	RestoreExpired int
}

// RestoreEvents carries audit event names used by the restore flow.
type RestoreEvents struct {
	SessionRestored string
	SessionExpired  string
}

// RestoreErrors carries host-level sentinel errors used by the restore flow.
type RestoreErrors struct {
	EngineNotReady   error
	StoreUnavailable error
}

// RestoreDeps captures restore dependencies.
type RestoreDeps struct {
	Now         func() time.Time
	LoadToken   func(context.Context) (string, bool, error)
	ClearToken  func(context.Context) error
	DecodeToken func(string) (*jwt.Claims, error)

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics RestoreMetrics
	Events  RestoreEvents
	Errors  RestoreErrors
}

// RunRestore rebuilds the session from a stored token. Expired and
// undecodable tokens are cleared from the store. An error is returned only
// when the store itself failed.
func RunRestore(ctx context.Context, deps RestoreDeps) (RestoreResult, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.LoadToken == nil || deps.ClearToken == nil || deps.DecodeToken == nil {
		return RestoreResult{}, deps.Errors.EngineNotReady
	}

	token, ok, err := deps.LoadToken(ctx)
	if err != nil {
		return RestoreResult{}, fmt.Errorf("%w: %w", deps.Errors.StoreUnavailable, err)
	}
	if !ok {
		return RestoreResult{Outcome: RestoreAbsent}, nil
	}

	discard := func(outcome RestoreOutcome, subject string) (RestoreResult, error) {
		deps.MetricInc(deps.Metrics.RestoreExpired)
		deps.EmitAudit(ctx, deps.Events.SessionExpired, false, subject, nil, func() map[string]string {
			return map[string]string{"reason": outcome.String()}
		})
		if err := deps.ClearToken(ctx); err != nil {
			return RestoreResult{Outcome: outcome}, fmt.Errorf("%w: %w", deps.Errors.StoreUnavailable, err)
		}
		return RestoreResult{Outcome: outcome}, nil
	}

	claims, err := deps.DecodeToken(token)
	if err != nil {
		return discard(RestoreMalformed, "")
	}
	sess := session.FromClaims(token, claims, nil)
	if SessionExpired(sess, deps.Now()) {
		return discard(RestoreExpired, sess.Subject)
	}

	deps.MetricInc(deps.Metrics.RestoreSuccess)
	deps.EmitAudit(ctx, deps.Events.SessionRestored, true, sess.Subject, nil, nil)
	return RestoreResult{Outcome: RestoreRestored, Session: sess}, nil
}

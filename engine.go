package goConsole

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/MrEthical07/goConsole/catalog"
	internalaudit "github.com/MrEthical07/goConsole/internal/audit"
	"github.com/MrEthical07/goConsole/internal/flows"
	"github.com/MrEthical07/goConsole/jwt"
	"github.com/MrEthical07/goConsole/pipeline"
	"github.com/MrEthical07/goConsole/session"
	"github.com/MrEthical07/goConsole/validation"
	"github.com/sirupsen/logrus"
)

// Engine owns the operator session and the admin API client. Methods are
// safe for concurrent use.
type Engine struct {
	config    Config
	now       func() time.Time
	log       logrus.FieldLogger
	validator *validation.Engine
	decoder   *jwt.Decoder
	store     *session.Store
	pipeline  *pipeline.Pipeline
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
	flows     flows.Service
	closers   []func() error

	mu      sync.RWMutex
	state   SessionState
	current *session.Session
}

// Close flushes the audit dispatcher and releases resources the Engine
// created itself. It does not clear the stored token.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	e.closeAll()
}

func (e *Engine) closeAll() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
	e.closers = nil
}

// AuditDropped reports audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Config returns a copy of the configuration the Engine was built with.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// Validator exposes the record validator the Engine uses before mutating
// calls.
func (e *Engine) Validator() *validation.Engine {
	return e.validator
}

// BreakerState reports the API circuit breaker state.
func (e *Engine) BreakerState() string {
	if e == nil || e.pipeline == nil {
		return "disabled"
	}
	return e.pipeline.BreakerState()
}

/*
====================================
SESSION LIFECYCLE
====================================
*/

// Login validates creds, authenticates against the admin API and stores the
// issued token. The returned session is stored before Login returns.
//
// Failures leave the Engine in the state it had before the call. A second
// Login while one is in flight returns ErrLoginInProgress.
func (e *Engine) Login(ctx context.Context, creds catalog.Credentials) (*session.Session, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}

	e.mu.Lock()
	if e.state == StateAuthenticating {
		e.mu.Unlock()
		return nil, ErrLoginInProgress
	}
	prev := e.state
	e.state = StateAuthenticating
	e.mu.Unlock()

	log := e.log.WithFields(logrus.Fields{"category": "auth", "login": creds.Login})
	log.Debug("login attempt")

	sess, err := e.flows.Login(ctx, creds)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = prev
		if e.current == nil {
			e.state = StateAnonymous
		}
		log.WithError(err).Warn("login failed")
		return nil, err
	}

	e.current = sess
	e.state = StateAuthenticated
	log.WithField("expires_at", sess.ExpiresAt.UTC().Format(time.RFC3339)).Info("login succeeded")
	return sess.Clone(), nil
}

// Restore rebuilds the session from the stored token. It returns nil, nil
// when no usable token is stored; expired and undecodable tokens are
// cleared. An error is returned only when the token backend failed.
func (e *Engine) Restore(ctx context.Context) (*session.Session, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}

	e.mu.RLock()
	authenticating := e.state == StateAuthenticating
	e.mu.RUnlock()
	if authenticating {
		return nil, ErrLoginInProgress
	}

	res, err := e.flows.Restore(ctx)
	log := e.log.WithFields(logrus.Fields{"category": "auth", "outcome": res.Outcome.String()})

	e.mu.Lock()
	defer e.mu.Unlock()

	if res.Outcome == flows.RestoreRestored {
		e.current = res.Session
		e.state = StateAuthenticated
		log.WithField("subject", res.Session.Subject).Info("session restored")
		return res.Session.Clone(), nil
	}
	if err != nil && res.Outcome == flows.RestoreAbsent {
		log.WithError(err).Error("session restore failed")
		return nil, err
	}

	e.current = nil
	e.state = StateAnonymous
	if err != nil {
		log.WithError(err).Error("stale token could not be cleared")
		return nil, err
	}
	log.Debug("no session restored")
	return nil, nil
}

// Logout drops the session and clears the stored token. It is idempotent.
// The Engine is Anonymous afterwards even when clearing the store failed.
func (e *Engine) Logout(ctx context.Context) error {
	if e == nil || !e.flows.Initialized() {
		return ErrEngineNotReady
	}
	req := e.drop(flows.LogoutRequested)
	err := e.flows.Logout(ctx, req)
	if err != nil {
		e.log.WithField("category", "auth").WithError(err).Error("logout could not clear token")
	}
	return err
}

// autoLogout is the pipeline's unauthorized hook. It runs before the 401 is
// returned to the caller.
func (e *Engine) autoLogout(ctx context.Context) {
	req := e.drop(flows.LogoutUnauthorized)
	err := e.flows.Logout(ctx, req)
	entry := e.log.WithFields(logrus.Fields{"category": "auth", "subject": req.Subject})
	if err != nil {
		entry.WithError(err).Error("auto logout could not clear token")
		return
	}
	if req.HadSession {
		entry.Warn("session rejected by server, logged out")
	}
}

func (e *Engine) drop(reason flows.LogoutReason) flows.LogoutRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	req := flows.LogoutRequest{Reason: reason, HadSession: e.current != nil}
	if e.current != nil {
		req.Subject = e.current.Subject
	}
	e.current = nil
	if e.state != StateAuthenticating {
		e.state = StateAnonymous
	}
	return req
}

// State reports the current session state.
func (e *Engine) State() SessionState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Current returns a copy of the held session, or nil.
func (e *Engine) Current() *session.Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current.Clone()
}

// IsAuthenticated reports whether an unexpired session is held.
func (e *Engine) IsAuthenticated() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state == StateAuthenticated && !flows.SessionExpired(e.current, e.now())
}

/*
====================================
EXPIRY
====================================
*/

// IsExpired reports whether s has reached its expiry. A nil session is
// expired.
func (e *Engine) IsExpired(s *session.Session) bool {
	return flows.SessionExpired(s, e.now())
}

// ShouldRefresh reports whether s expires within JWT.RefreshThreshold. It
// is advisory; the console has no refresh endpoint.
func (e *Engine) ShouldRefresh(s *session.Session) bool {
	return flows.RefreshDue(s, e.now(), e.config.JWT.RefreshThreshold)
}

// TokenExpired decodes token and reports whether it has expired. A token
// that cannot be decoded is expired.
func (e *Engine) TokenExpired(token string) bool {
	claims, err := e.decoder.Decode(token)
	if err != nil {
		return true
	}
	return !e.now().Before(claims.ExpiresAt)
}

// ExpiresAt returns the expiry encoded in token.
func (e *Engine) ExpiresAt(token string) (time.Time, bool) {
	return e.decoder.ExpiresAt(token)
}

/*
====================================
WIRING
====================================
*/

func (e *Engine) newFlows() flows.Service {
	metricInc := func(id int) { e.metricInc(MetricID(id)) }
	emit := func(ctx context.Context, event string, success bool, subject string, err error, metadata func() map[string]string) {
		e.emitAudit(ctx, event, success, subject, err, metadata)
	}

	return flows.New(flows.Deps{
		Login: flows.LoginDeps{
			Now: e.now,
			ValidateCredentials: func(c catalog.Credentials) error {
				return e.validator.ValidateCredentials(c).Err()
			},
			Authenticate: e.authenticate,
			DecodeToken:  e.decoder.Decode,
			SaveToken:    e.store.Save,
			MetricInc:    metricInc,
			EmitAudit:    emit,
			Metrics: flows.LoginMetrics{
				LoginSuccess:      int(MetricLoginSuccess),
				LoginFailure:      int(MetricLoginFailure),
				LoginInvalidInput: int(MetricLoginInvalidInput),
			},
			Events: flows.LoginEvents{
				LoginSuccess: auditEventLoginSuccess,
				LoginFailure: auditEventLoginFailure,
			},
			Errors: flows.LoginErrors{
				EngineNotReady:        ErrEngineNotReady,
				InvalidInput:          ErrInvalidInput,
				InvalidCredentials:    ErrInvalidCredentials,
				SessionCreationFailed: ErrSessionCreationFailed,
			},
		},
		Restore: flows.RestoreDeps{
			Now:         e.now,
			LoadToken:   e.store.Load,
			ClearToken:  e.store.Clear,
			DecodeToken: e.decoder.Decode,
			MetricInc:   metricInc,
			EmitAudit:   emit,
			Metrics: flows.RestoreMetrics{
				RestoreSuccess: int(MetricRestoreSuccess),
				RestoreExpired: int(MetricRestoreExpired),
			},
			Events: flows.RestoreEvents{
				SessionRestored: auditEventSessionRestored,
				SessionExpired:  auditEventSessionExpired,
			},
			Errors: flows.RestoreErrors{
				EngineNotReady:   ErrEngineNotReady,
				StoreUnavailable: ErrStoreUnavailable,
			},
		},
		Logout: flows.LogoutDeps{
			ClearToken: e.store.Clear,
			MetricInc:  metricInc,
			EmitAudit:  emit,
			Metrics: flows.LogoutMetrics{
				Logout:     int(MetricLogout),
				AutoLogout: int(MetricAutoLogout),
			},
			Events: flows.LogoutEvents{
				Logout:     auditEventLogout,
				AutoLogout: auditEventAutoLogout,
			},
			Errors: flows.LogoutErrors{
				EngineNotReady:   ErrEngineNotReady,
				StoreUnavailable: ErrStoreUnavailable,
			},
		},
	})
}

func (e *Engine) authenticate(ctx context.Context, creds catalog.Credentials) (*catalog.LoginResponse, error) {
	resp, err := e.pipeline.Do(ctx, pipeline.Request{
		Method: http.MethodPost,
		Path:   pathLogin,
		Body:   creds,
		Auth:   pipeline.AuthNone,
	})
	if err != nil {
		return nil, err
	}
	var out catalog.LoginResponse
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// engineObserver feeds pipeline attempts into the Engine's metrics.
type engineObserver struct {
	e *Engine
}

func (o engineObserver) ObserveRequest(ev pipeline.Event) {
	e := o.e
	e.metricInc(MetricRequestTotal)
	if ev.Attempt > 1 {
		e.metricInc(MetricRequestRetry)
	}
	switch {
	case ev.Err == nil:
	case errors.Is(ev.Err, ErrUnauthorized):
		e.metricInc(MetricRequestUnauthorized)
	case errors.Is(ev.Err, ErrTimeout):
		e.metricInc(MetricRequestTimeout)
	case errors.Is(ev.Err, ErrUnreachable):
		e.metricInc(MetricRequestUnreachable)
	}
	if e.metrics != nil {
		e.metrics.Observe(MetricRequestLatency, ev.Latency)
	}
}

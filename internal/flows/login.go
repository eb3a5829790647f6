package flows

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MrEthical07/goConsole/catalog"
	"github.com/MrEthical07/goConsole/jwt"
	"github.com/MrEthical07/goConsole/pipeline"
	"github.com/MrEthical07/goConsole/session"
)

// LoginMetrics carries metric IDs used by the login flow.
type LoginMetrics struct {
	LoginSuccess      int
	LoginFailure      int
	LoginInvalidInput int
}

// LoginEvents carries audit event names used by the login flow.
type LoginEvents struct {
	LoginSuccess string
	LoginFailure string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady        error
	InvalidInput          error
	InvalidCredentials    error
	SessionCreationFailed error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	Now func() time.Time

	// ValidateCredentials returns nil or an error listing every problem.
	ValidateCredentials func(catalog.Credentials) error
	// Authenticate posts the credentials to the login endpoint.
	Authenticate func(context.Context, catalog.Credentials) (*catalog.LoginResponse, error)
	DecodeToken  func(string) (*jwt.Claims, error)
	// SaveToken must not return before the token is durable.
	SaveToken func(context.Context, string) error

	MetricInc func(int)
	EmitAudit AuditFunc

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin validates credentials, authenticates against the API, decodes
// the issued token and persists it. The session is returned only after the
// token was saved.
func RunLogin(ctx context.Context, creds catalog.Credentials, deps LoginDeps) (*session.Session, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.ValidateCredentials == nil ||
		deps.Authenticate == nil ||
		deps.DecodeToken == nil ||
		deps.SaveToken == nil {
		return nil, deps.Errors.EngineNotReady
	}

	fail := func(reason string, err error) error {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, creds.Login, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return err
	}

	if verr := deps.ValidateCredentials(creds); verr != nil {
		deps.MetricInc(deps.Metrics.LoginInvalidInput)
		err := fmt.Errorf("%w: %w", deps.Errors.InvalidInput, verr)
		deps.EmitAudit(ctx, deps.Events.LoginFailure, false, creds.Login, err, func() map[string]string {
			return map[string]string{"reason": "invalid_input"}
		})
		return nil, err
	}

	resp, err := deps.Authenticate(ctx, creds)
	if err != nil {
		if rejected(err) {
			return nil, fail("rejected", fmt.Errorf("%w: %w", deps.Errors.InvalidCredentials, err))
		}
		return nil, fail("transport", err)
	}
	if resp == nil || resp.AccessToken == "" {
		return nil, fail("missing_token", fmt.Errorf("%w: response carried no access token", deps.Errors.SessionCreationFailed))
	}

	claims, err := deps.DecodeToken(resp.AccessToken)
	if err != nil {
		return nil, fail("undecodable_token", fmt.Errorf("%w: %w", deps.Errors.SessionCreationFailed, err))
	}
	if !deps.Now().Before(claims.ExpiresAt) {
		return nil, fail("expired_token", fmt.Errorf("%w: issued token already expired", deps.Errors.SessionCreationFailed))
	}

	if err := deps.SaveToken(ctx, resp.AccessToken); err != nil {
		return nil, fail("store", fmt.Errorf("%w: %w", deps.Errors.SessionCreationFailed, err))
	}

	sess := session.FromClaims(resp.AccessToken, claims, resp.User)
	if sess.Subject == "" {
		sess.Subject = creds.Login
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.LoginSuccess, true, sess.Subject, nil, func() map[string]string {
		return map[string]string{"expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339)}
	})
	return sess, nil
}

// rejected reports whether the server refused the credentials themselves.
func rejected(err error) bool {
	var serr *pipeline.StatusError
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

package goConsole

import (
	"errors"

	"github.com/MrEthical07/goConsole/jwt"
	"github.com/MrEthical07/goConsole/pipeline"
)

var (
	// ErrInvalidInput is returned when a record fails local validation. It
	// wraps a *validation.Error carrying every message.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned when the login endpoint rejects the
	// credentials. The server reply is kept in the wrapped
	// *pipeline.StatusError.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized is returned when an authenticated call was rejected
	// with 401. The session has already been torn down when it is returned.
	ErrUnauthorized = pipeline.ErrUnauthorized
	// ErrTimeout is returned when a call exceeded its deadline.
	ErrTimeout = pipeline.ErrTimeout
	// ErrUnreachable is returned when the API could not be reached or the
	// circuit breaker is open.
	ErrUnreachable = pipeline.ErrUnreachable
	// ErrTokenMalformed is returned by token decoding.
	ErrTokenMalformed = jwt.ErrTokenMalformed
	// ErrSessionCreationFailed is returned when a login succeeded remotely
	// but no usable session could be established locally.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrStoreUnavailable is returned when the token backend failed.
	ErrStoreUnavailable = errors.New("token store unavailable")
	// ErrLoginInProgress is returned when Login is called while another
	// login is still authenticating.
	ErrLoginInProgress = errors.New("login already in progress")
	// ErrEngineNotReady is returned by methods on an Engine that was not
	// built through Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)

package goConsole

import (
	"context"
	"errors"

	"github.com/MrEthical07/goConsole/validation"
)

const (
	auditEventLoginSuccess    = "login_success"
	auditEventLoginFailure    = "login_failure"
	auditEventLogout          = "logout"
	auditEventAutoLogout      = "auto_logout"
	auditEventSessionRestored = "session_restored"
	auditEventSessionExpired  = "session_expired"
)

// AuditErrorCode is the stable error classification written to
// AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrInvalidInput          AuditErrorCode = "invalid_input"
	auditErrInvalidCredentials    AuditErrorCode = "invalid_credentials"
	auditErrUnauthorized          AuditErrorCode = "unauthorized"
	auditErrTimeout               AuditErrorCode = "timeout"
	auditErrUnreachable           AuditErrorCode = "unreachable"
	auditErrInvalidToken          AuditErrorCode = "invalid_token"
	auditErrSessionCreationFailed AuditErrorCode = "session_creation_failed"
	auditErrStoreUnavailable      AuditErrorCode = "store_unavailable"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		Subject:   subject,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	var verr *validation.Error
	switch {
	case errors.Is(err, ErrInvalidInput), errors.As(err, &verr):
		return auditErrInvalidInput
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrTimeout):
		return auditErrTimeout
	case errors.Is(err, ErrUnreachable):
		return auditErrUnreachable
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreationFailed
	case errors.Is(err, ErrTokenMalformed):
		return auditErrInvalidToken
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrStoreUnavailable
	default:
		return auditErrInternal
	}
}

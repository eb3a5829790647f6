package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrTimeout is returned when a call exceeded its deadline.
	ErrTimeout = errors.New("request timed out")
	// ErrUnreachable is returned when the API could not be reached or the
	// circuit breaker is open.
	ErrUnreachable = errors.New("api unreachable")
	// ErrUnauthorized is returned for a 401 response, after the unauthorized
	// hook ran.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is a non-2xx response. It is returned as-is for statuses other
// than 401 and wrapped by ErrUnauthorized for 401.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	// Message is the server's "message" field, when the body carried one.
	Message   string
	Body      []byte
	RequestID string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

func newStatusError(method, path string, status int, body []byte, requestID string) *StatusError {
	return &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Message:    serverMessage(body),
		Body:       body,
		RequestID:  requestID,
	}
}

func serverMessage(body []byte) string {
	var payload struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, v := range []any{payload.Message, payload.Error} {
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case []any:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				if s, ok := p.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}
	return ""
}

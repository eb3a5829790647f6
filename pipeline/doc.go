// Package pipeline sends every outbound call to the admin API.
//
// A [Pipeline] stamps each request with an X-Request-ID, attaches the stored
// bearer token, bounds the call with a timeout and optionally routes it
// through a circuit breaker. Transport failures surface as [ErrTimeout] or
// [ErrUnreachable]. A 401 response runs the unauthorized hook before
// [ErrUnauthorized] is returned, so callers observe the torn-down session as
// soon as they see the error.
//
// # What this package must NOT do
//
//   - Import goConsole (no upward imports).
//   - Hold global token state; the token source is a constructor argument.
//   - Retry anything but idempotent GET requests.
package pipeline

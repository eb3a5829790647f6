package goConsole

// SessionState is the lifecycle state of the Engine's session.
type SessionState uint8

const (
	// StateAnonymous means no session is held.
	StateAnonymous SessionState = iota
	// StateAuthenticating means a login is in flight.
	StateAuthenticating
	// StateAuthenticated means a decoded, unexpired-at-creation session is
	// held and its token is stored.
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

package flows

import (
	"time"

	"github.com/MrEthical07/goConsole/session"
)

// SessionExpired reports now >= ExpiresAt. A nil session is expired.
func SessionExpired(s *session.Session, now time.Time) bool {
	if s == nil {
		return true
	}
	return !now.Before(s.ExpiresAt)
}

// RefreshDue reports whether the time left until expiry is at most
// threshold. A nil session never needs a refresh.
func RefreshDue(s *session.Session, now time.Time, threshold time.Duration) bool {
	if s == nil {
		return false
	}
	return s.ExpiresAt.Sub(now) <= threshold
}

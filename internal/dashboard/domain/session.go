package domain

import "time"

// Session is the server-side state bound to one browser cookie. Tokens are
// held separately in the session's store.TokenStore.
type Session struct {
	ID         string
	OAuthState string // pending CSRF state for an in-flight login, empty otherwise
	AccountKey string // Voice Admin account selected on the dashboard
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Touch returns a copy of s whose expiry slides to now+ttl.
func (s Session) Touch(now time.Time, ttl time.Duration) Session {
	s.ExpiresAt = now.Add(ttl).UTC()
	return s
}

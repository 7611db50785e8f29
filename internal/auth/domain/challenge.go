package domain

import "time"

// MaxChallengeAttempts caps failed OTP submissions per challenge to prevent
// brute forcing a 6-digit code.
const MaxChallengeAttempts = 5

// LoginChallenge is the server-side holding context between login step 1
// (credentials accepted) and step 2 (OTP verified). It is keyed by an opaque
// ULID returned to the caller; nothing else about the pending login is
// trusted from client input. A challenge is not an authenticated session.
type LoginChallenge struct {
	ID         string // the opaque challenge token
	UserID     string
	RememberMe bool
	Attempts   int // failed OTP submissions so far
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// IsExpired reports whether the challenge has lapsed at now.
func (c *LoginChallenge) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

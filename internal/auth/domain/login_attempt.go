package domain

import "time"

// LoginAttempt is an immutable, append-only security record. Attempts are
// never updated or deleted by the login flow; the rate limiter aggregates
// over them and housekeeping prunes rows past retention.
type LoginAttempt struct {
	ID          string
	Identifier  string // username or email exactly as submitted
	IPAddress   string
	UserAgent   string
	Success     bool
	AttemptedAt time.Time
}

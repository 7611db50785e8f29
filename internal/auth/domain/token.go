package domain

import "time"

// TokenPurpose discriminates email-verification tokens from password-reset
// tokens sharing the same storage shape.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify_email"
	PurposeResetPassword TokenPurpose = "reset_password"
)

// VerificationToken is a single-use, time-limited token bound to a user.
// Exactly one token per user per purpose may be live: issuing a new one marks
// all prior unused tokens of that purpose as used.
type VerificationToken struct {
	ID        string
	UserID    string
	Purpose   TokenPurpose
	Token     string // opaque uuid4 value embedded in delivery links
	RequestIP string // set for reset tokens only
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// IsUsed reports whether the token has been consumed.
func (t *VerificationToken) IsUsed() bool { return t.UsedAt != nil }

// IsValid reports whether the token is unused and not yet expired at now.
func (t *VerificationToken) IsValid(now time.Time) bool {
	return !t.IsUsed() && now.Before(t.ExpiresAt)
}

package domain

import "time"

type User struct {
	ID           string
	Username     string // stored lowercase, 3-20 chars [a-z0-9_]
	Email        string // stored lowercase
	DisplayName  string
	DateOfBirth  *time.Time
	AvatarURL    string
	PasswordHash string // argon2 encoded

	IsActive   bool
	IsVerified bool

	// Compliance signals, recorded at signup but never an enforcement gate.
	IsUnder13       bool
	ParentalConsent bool

	// Outstanding OTP challenge state. At most one per user; re-issuing
	// overwrites, successful verification clears.
	OTPHash      *string // SHA-256 digest, never the plaintext code
	OTPExpiresAt *time.Time
	OTPVerified  bool // user has completed an OTP challenge before

	// External identity linkage (nullable, unique per provider).
	GoogleID  *string
	DiscordID *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

// DisplayNameOrUsername is the name used when addressing the user in email.
func (u *User) DisplayNameOrUsername() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Age derives the user's age in whole years at now, or -1 when no date of
// birth was provided.
func (u *User) Age(now time.Time) int {
	if u.DateOfBirth == nil {
		return -1
	}
	dob := *u.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

package service

import (
	"errors"
	"sort"
	"strings"
)

// Sentinel errors shared across the auth services. Handlers map these onto
// HTTP status codes; services wrap anything else with context.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotVerified        = errors.New("email address not verified")
	ErrDeactivated        = errors.New("account is deactivated")
	ErrRateLimited        = errors.New("too many failed login attempts")

	ErrOTPInvalid  = errors.New("invalid one-time code")
	ErrOTPExpired  = errors.New("one-time code expired")
	ErrOTPNotSet   = errors.New("no one-time code pending")
	ErrTooManyOTPs = errors.New("too many failed code attempts")

	ErrChallengeNotFound = errors.New("login challenge not found or expired")

	ErrTokenInvalid = errors.New("token not found")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenUsed    = errors.New("token already used")

	ErrSessionNotFound = errors.New("session not found or inactive")
)

// ValidationErrors collects per-field signup problems so callers can report
// them all at once instead of one at a time.
type ValidationErrors map[string][]string

func (v ValidationErrors) Add(field string, reasons ...string) {
	v[field] = append(v[field], reasons...)
}

func (v ValidationErrors) Empty() bool { return len(v) == 0 }

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, field := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(field)
		b.WriteString(": ")
		b.WriteString(strings.Join(v[field], ", "))
	}
	return b.String()
}

// Package email delivers account notifications: login codes, email
// verification links and password reset links.
package email

import "context"

// Kind selects which message template a Send call renders.
type Kind string

const (
	KindOTP           Kind = "otp"
	KindVerifyEmail   Kind = "verify_email"
	KindResetPassword Kind = "reset_password"
)

// Mailer is the delivery abstraction the services depend on. Implementations
// must not block past ctx; delivery failure is an error for the caller to
// decide on (signup tolerates it, the login OTP step does not).
type Mailer interface {
	Send(ctx context.Context, kind Kind, recipient string, vars map[string]string) error
}

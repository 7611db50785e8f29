// Package authapi defines the request and response shapes of the auth
// service's HTTP surface, shared between the server handlers and clients.
package authapi

// ValidationErrorResponse is returned when request validation fails. Details
// maps each failing field to its reasons.
type ValidationErrorResponse struct {
	Code    string              `json:"error"`
	Message string              `json:"error_description"`
	Details map[string][]string `json:"details,omitempty"`
}

// SignupRequest creates a new account.
type SignupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
	// DateOfBirth is optional, formatted YYYY-MM-DD.
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

// SignupResponse reports the created account. EmailSent is false when the
// verification email could not be delivered; the account still exists.
type SignupResponse struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	EmailSent bool   `json:"email_sent"`
}

// LoginRequest is step 1 of the login protocol.
type LoginRequest struct {
	// Identifier is a username or an email address.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me,omitempty"`
}

// LoginResponse hands back the opaque challenge id to present at the OTP step.
type LoginResponse struct {
	ChallengeID string `json:"challenge_id"`
	// ExpiresIn is the challenge lifetime in seconds.
	ExpiresIn int `json:"expires_in"`
}

// OTPVerifyRequest is step 2 of the login protocol. The remember-me
// preference was captured at step 1 and lives with the challenge.
type OTPVerifyRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
}

// SessionResponse is the authenticated session handed out after step 2.
type SessionResponse struct {
	SessionKey  string `json:"session_key"`
	DeviceClass string `json:"device_class"`
	// ExpiresIn is the session lifetime in seconds; 0 means ephemeral.
	ExpiresIn int `json:"expires_in,omitempty"`
}

// OTPResendRequest asks for a fresh code on a pending challenge.
type OTPResendRequest struct {
	ChallengeID string `json:"challenge_id"`
}

// PasswordResetRequest asks for a reset link. The response is identical
// whether or not the email is registered.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest redeems a reset token with a new password.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// MessageResponse is a generic acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by the health check endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of critical service dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Mailer   string `json:"mailer,omitempty"`
}

package authapi

import (
	"fmt"
	"net/http"

	"github.com/brickverse/auth/pkg/httpx"
)

// Error codes used across the HTTP surface.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeNotVerified        = "account_not_verified"
	ErrorCodeDeactivated        = "account_deactivated"
	ErrorCodeRateLimited        = "rate_limited"
	ErrorCodeChallengeNotFound  = "challenge_not_found"
	ErrorCodeCodeInvalid        = "code_invalid"
	ErrorCodeCodeExpired        = "code_expired"
	ErrorCodeTooManyCodes       = "too_many_code_attempts"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeInvalidSession     = "invalid_session"
	ErrorCodeServerError        = "server_error"
)

// APIError is the error envelope every endpoint returns on failure. It
// implements the error interface so SDK clients can surface it directly.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, e.StatusCode, map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrInvalidCredentials is deliberately uniform: it never distinguishes
	// an unknown account from a wrong password.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid username/email or password",
	}

	ErrNotVerified = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeNotVerified,
		Description: "verify your email address before logging in",
	}

	ErrDeactivated = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeDeactivated,
		Description: "this account has been deactivated",
	}

	ErrRateLimited = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeRateLimited,
		Description: "too many failed login attempts, try again later",
	}

	ErrChallengeNotFound = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeChallengeNotFound,
		Description: "login challenge not found or expired, start over",
	}

	ErrCodeInvalid = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeCodeInvalid,
		Description: "the code you entered is incorrect",
	}

	ErrCodeExpired = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeCodeExpired,
		Description: "the code has expired, request a new one",
	}

	ErrTooManyCodes = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeTooManyCodes,
		Description: "too many incorrect codes, start the login over",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidToken,
		Description: "this link is invalid, already used or expired",
	}

	ErrInvalidSession = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidSession,
		Description: "session not found or no longer active",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "an internal error occurred",
	}
)

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brickverse/auth/internal/auth/service"
	"github.com/brickverse/auth/pkg/authapi"
	"github.com/brickverse/auth/pkg/httpx"
	"github.com/brickverse/auth/pkg/slogx"
)

// PasswordResetHandler handles the reset request and confirm endpoints.
type PasswordResetHandler struct {
	AuthService *service.AuthService
}

// HandleRequest handles POST /v1/auth/password-reset/request. The response is
// byte-identical whether or not the address is registered.
func (h *PasswordResetHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authapi.PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Email == "" {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}

	h.AuthService.RequestPasswordReset(ctx, req.Email, httpx.ClientIP(r))

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authapi.MessageResponse{
		Message: "if this email is registered, a reset link has been sent",
	})
}

// HandleConfirm handles POST /v1/auth/password-reset/confirm.
func (h *PasswordResetHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authapi.PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.ConfirmPasswordReset(ctx, req.Token, req.NewPassword); err != nil {
		var verr service.ValidationErrors
		switch {
		case errors.As(err, &verr):
			writeValidationError(w, verr)
		case errors.Is(err, service.ErrTokenInvalid),
			errors.Is(err, service.ErrTokenExpired),
			errors.Is(err, service.ErrTokenUsed):
			authapi.ErrInvalidToken.WriteError(w)
		default:
			log.Error("password reset confirm failed", "err", err)
			authapi.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authapi.MessageResponse{Message: "password updated, log in with your new password"})
}

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

// OTPHandler handles step 2 of the login protocol and code resends.
type OTPHandler struct {
	AuthService *service.AuthService
}

// HandleVerify handles POST /v1/auth/otp/verify.
func (h *OTPHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authapi.OTPVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.ChallengeID == "" || req.Code == "" {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}

	sess, err := h.AuthService.LoginStep2(ctx, req.ChallengeID, req.Code, httpx.ClientIP(r), httpx.UserAgent(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChallengeNotFound):
			authapi.ErrChallengeNotFound.WriteError(w)
		case errors.Is(err, service.ErrOTPExpired):
			authapi.ErrCodeExpired.WriteError(w)
		case errors.Is(err, service.ErrOTPInvalid), errors.Is(err, service.ErrOTPNotSet):
			authapi.ErrCodeInvalid.WriteError(w)
		case errors.Is(err, service.ErrTooManyOTPs):
			authapi.ErrTooManyCodes.WriteError(w)
		default:
			log.Error("login step 2 failed", "err", err)
			authapi.ErrServerError.WriteError(w)
		}
		return
	}

	resp := authapi.SessionResponse{
		SessionKey:  sess.SessionKey,
		DeviceClass: string(sess.DeviceClass),
	}
	if sess.ExpiresAt != nil {
		resp.ExpiresIn = int(sess.ExpiresAt.Sub(sess.CreatedAt).Seconds())
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleResend handles POST /v1/auth/otp/resend.
func (h *OTPHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authapi.OTPResendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.ChallengeID == "" {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.ResendOTP(ctx, req.ChallengeID); err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			authapi.ErrChallengeNotFound.WriteError(w)
			return
		}
		log.Error("otp resend failed", "err", err)
		authapi.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authapi.MessageResponse{Message: "a new code has been sent"})
}

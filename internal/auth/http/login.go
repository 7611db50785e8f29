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

// LoginHandler handles POST /v1/auth/login, step 1 of the login protocol.
type LoginHandler struct {
	AuthService *service.AuthService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authapi.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.Identifier == "" || req.Password == "" {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}

	challenge, err := h.AuthService.LoginStep1(ctx, req.Identifier, req.Password, httpx.ClientIP(r), httpx.UserAgent(r), req.RememberMe)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRateLimited):
			authapi.ErrRateLimited.WriteError(w)
		case errors.Is(err, service.ErrInvalidCredentials):
			authapi.ErrInvalidCredentials.WriteError(w)
		case errors.Is(err, service.ErrNotVerified):
			authapi.ErrNotVerified.WriteError(w)
		case errors.Is(err, service.ErrDeactivated):
			authapi.ErrDeactivated.WriteError(w)
		default:
			log.Error("login step 1 failed", "err", err)
			authapi.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authapi.LoginResponse{
		ChallengeID: challenge.ID,
		ExpiresIn:   int(challenge.ExpiresAt.Sub(challenge.CreatedAt).Seconds()),
	})
}

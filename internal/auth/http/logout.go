package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brickverse/auth/internal/auth/service"
	"github.com/brickverse/auth/pkg/authapi"
	"github.com/brickverse/auth/pkg/httpx"
	"github.com/brickverse/auth/pkg/slogx"
)

// LogoutHandler handles POST /v1/auth/logout. The session key is presented
// as a bearer credential.
type LogoutHandler struct {
	AuthService *service.AuthService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	key := bearerKey(r)
	if key == "" {
		authapi.ErrInvalidSession.WriteError(w)
		return
	}

	if err := h.AuthService.Logout(ctx, key); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			authapi.ErrInvalidSession.WriteError(w)
			return
		}
		log.Error("logout failed", "err", err)
		authapi.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authapi.MessageResponse{Message: "logged out"})
}

func bearerKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

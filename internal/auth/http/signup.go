package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/brickverse/auth/internal/auth/service"
	"github.com/brickverse/auth/pkg/authapi"
	"github.com/brickverse/auth/pkg/httpx"
	"github.com/brickverse/auth/pkg/slogx"
)

// SignupHandler handles POST /v1/auth/signup.
type SignupHandler struct {
	AuthService *service.AuthService
}

func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authapi.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authapi.ErrInvalidRequest.WriteError(w)
		return
	}

	params := service.SignupParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		RequestIP:   httpx.ClientIP(r),
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			writeValidationError(w, service.ValidationErrors{
				"date_of_birth": {"must be formatted YYYY-MM-DD"},
			})
			return
		}
		params.DateOfBirth = &dob
	}

	u, emailSent, err := h.AuthService.Signup(ctx, params)
	if err != nil {
		var verr service.ValidationErrors
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
			return
		}
		log.Error("signup failed", "err", err)
		authapi.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, authapi.SignupResponse{
		UserID:    u.ID,
		Username:  u.Username,
		EmailSent: emailSent,
	})
}

func writeValidationError(w http.ResponseWriter, verr service.ValidationErrors) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusBadRequest, authapi.ValidationErrorResponse{
		Code:    authapi.ErrorCodeValidation,
		Message: "one or more fields failed validation",
		Details: verr,
	})
}

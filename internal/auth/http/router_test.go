package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/brickverse/auth/internal/auth/email"
	"github.com/brickverse/auth/internal/auth/service"
	"github.com/brickverse/auth/internal/auth/store/drivers/sqlite"
	"github.com/brickverse/auth/pkg/authapi"
	"github.com/brickverse/auth/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "authhttp-pepper-*")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(dir + "/pepper")

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type captureMailer struct {
	sent []capturedMail
}

type capturedMail struct {
	Kind email.Kind
	Vars map[string]string
}

func (m *captureMailer) Send(_ context.Context, kind email.Kind, _ string, vars map[string]string) error {
	m.sent = append(m.sent, capturedMail{Kind: kind, Vars: vars})
	return nil
}

func (m *captureMailer) last(t *testing.T, kind email.Kind) capturedMail {
	t.Helper()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == kind {
			return m.sent[i]
		}
	}
	t.Fatalf("no %s mail sent", kind)
	return capturedMail{}
}

func newTestRouter(t *testing.T) (*Router, *captureMailer) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mailer := &captureMailer{}

	tokens := &service.TokenService{Store: s}
	otp := &service.OTPService{Store: s}
	limit := &service.RateLimitService{Store: s, Logger: logger}
	sessions := &service.SessionService{Store: s}

	auth := &service.AuthService{
		Store:     s,
		Tokens:    tokens,
		OTP:       otp,
		RateLimit: limit,
		Sessions:  sessions,
		Mailer:    mailer,
		Logger:    logger,
		SiteURL:   "https://auth.test",
		Policy:    cryptox.DefaultPasswordPolicy(),
	}

	r := NewRouter("test", s, logger)
	r.AuthService = auth
	r.SessionService = sessions
	r.ApplyRoutes()
	return r, mailer
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSignupEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/v1/auth/signup", authapi.SignupRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Str0ng!Pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp authapi.SignupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.UserID)
	require.True(t, resp.EmailSent)

	t.Run("duplicate returns field errors", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/auth/signup", authapi.SignupRequest{
			Username: "ALICE",
			Email:    "alice@example.com",
			Password: "Str0ng!Pass",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var resp authapi.ValidationErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, authapi.ErrorCodeValidation, resp.Code)
		require.Contains(t, resp.Details, "username")
		require.Contains(t, resp.Details, "email")
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/signup", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginFlowEndpoints(t *testing.T) {
	router, mailer := newTestRouter(t)

	rec := postJSON(t, router, "/v1/auth/signup", authapi.SignupRequest{
		Username: "bob", Email: "bob@x.com", Password: "Str0ng!Pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Follow the emailed verification link.
	link := mailer.last(t, email.KindVerifyEmail).Vars["Link"]
	path := link[len("https://auth.test"):]
	req := httptest.NewRequest(http.MethodGet, path, nil)
	verifyRec := httptest.NewRecorder()
	router.ServeHTTP(verifyRec, req)
	require.Equal(t, http.StatusOK, verifyRec.Code)

	// Step 1: credentials.
	rec = postJSON(t, router, "/v1/auth/login", authapi.LoginRequest{
		Identifier: "bob", Password: "Str0ng!Pass",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var loginResp authapi.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	require.NotEmpty(t, loginResp.ChallengeID)

	// Step 2: emailed code.
	code := mailer.last(t, email.KindOTP).Vars["Code"]
	rec = postJSON(t, router, "/v1/auth/otp/verify", authapi.OTPVerifyRequest{
		ChallengeID: loginResp.ChallengeID, Code: code,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var sessResp authapi.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessResp))
	require.NotEmpty(t, sessResp.SessionKey)

	// Logout with the session key as bearer credential.
	logoutReq := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	logoutReq.Header.Set("Authorization", "Bearer "+sessResp.SessionKey)
	logoutRec := httptest.NewRecorder()
	router.ServeHTTP(logoutRec, logoutReq)
	require.Equal(t, http.StatusOK, logoutRec.Code)

	t.Run("wrong credentials are uniform", func(t *testing.T) {
		rec := postJSON(t, router, "/v1/auth/login", authapi.LoginRequest{
			Identifier: "bob", Password: "wrong",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec2 := postJSON(t, router, "/v1/auth/login", authapi.LoginRequest{
			Identifier: "ghost", Password: "wrong",
		})
		require.Equal(t, rec.Body.String(), rec2.Body.String(), "unknown user and wrong password must be indistinguishable")
	})
}

func TestPasswordResetEndpointsUniform(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/v1/auth/signup", authapi.SignupRequest{
		Username: "carol", Email: "carol@example.com", Password: "Str0ng!Pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	known := postJSON(t, router, "/v1/auth/password-reset/request", authapi.PasswordResetRequest{
		Email: "carol@example.com",
	})
	unknown := postJSON(t, router, "/v1/auth/password-reset/request", authapi.PasswordResetRequest{
		Email: "nobody@example.com",
	})

	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	require.Equal(t, known.Body.String(), unknown.Body.String(), "responses must not reveal account existence")
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/livez", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)

		var resp authapi.HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "ok", resp.Status)
	}
}

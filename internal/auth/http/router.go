package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/brickverse/auth/internal/auth/service"
	"github.com/brickverse/auth/internal/auth/store"
	"github.com/brickverse/auth/pkg/httpx"
	"github.com/brickverse/auth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	AuthService    *service.AuthService
	SessionService *service.SessionService
}

func NewRouter(buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSignup()
	r.registerLogin()
	r.registerTokens()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSignup() {
	h := &SignupHandler{AuthService: r.AuthService}

	// Public account creation endpoint, strict limit by IP.
	r.Mux.Handle("POST /v1/auth/signup",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerLogin() {
	loginHandler := &LoginHandler{AuthService: r.AuthService}
	otpHandler := &OTPHandler{AuthService: r.AuthService}
	logoutHandler := &LogoutHandler{AuthService: r.AuthService}

	// Credential submission: strict limit keyed by IP + identifier so one IP
	// cannot spray identifiers under the transport-level limiter either. The
	// persistent attempt limiter inside the service is the real gate; this
	// only sheds abusive traffic early.
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/otp/verify",
		httpx.Chain(http.HandlerFunc(otpHandler.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/otp/resend",
		httpx.Chain(http.HandlerFunc(otpHandler.HandleResend),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerTokens() {
	verifyHandler := &VerifyEmailHandler{AuthService: r.AuthService}
	resetHandler := &PasswordResetHandler{AuthService: r.AuthService}

	// Link redemption from email clients: moderate limit.
	r.Mux.Handle("GET /v1/auth/verify-email/{token}",
		httpx.Chain(verifyHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/password-reset/request",
		httpx.Chain(http.HandlerFunc(resetHandler.HandleRequest),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/password-reset/confirm",
		httpx.Chain(http.HandlerFunc(resetHandler.HandleConfirm),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}

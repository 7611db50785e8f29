package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brickverse/auth/internal/auth/domain"
	"github.com/brickverse/auth/internal/auth/email"
	"github.com/brickverse/auth/internal/auth/store"
	"github.com/brickverse/auth/pkg/cryptox"
	"github.com/brickverse/auth/pkg/idx"
)

// DefaultChallengeTTL is how long a pending login challenge bridges step 1
// and step 2 before the user has to start over.
const DefaultChallengeTTL = 10 * time.Minute

// AuthService is the orchestrator driving signup, the two-step login
// protocol, email verification, password reset and logout. It owns no state
// of its own; everything lives in the store so any instance can serve any
// request.
type AuthService struct {
	Store     store.Store
	Tokens    *TokenService
	OTP       *OTPService
	RateLimit *RateLimitService
	Sessions  *SessionService
	Mailer    email.Mailer
	Logger    *slog.Logger

	// SiteURL is the public base URL embedded in verification and reset links.
	SiteURL string

	Policy       cryptox.PasswordPolicy
	ChallengeTTL time.Duration

	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AuthService) challengeTTL() time.Duration {
	if s.ChallengeTTL > 0 {
		return s.ChallengeTTL
	}
	return DefaultChallengeTTL
}

// SignupParams is the input to Signup. DateOfBirth is optional.
type SignupParams struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	DateOfBirth *time.Time
	RequestIP   string
}

// Signup creates a new account and dispatches an email verification link.
// The account is created even when delivery fails: the returned emailSent
// flag downgrades to false but the user row stays.
func (s *AuthService) Signup(ctx context.Context, p SignupParams) (domain.User, bool, error) {
	now := s.now()

	username := strings.ToLower(strings.TrimSpace(p.Username))
	emailAddr := strings.ToLower(strings.TrimSpace(p.Email))

	if verr := s.validateSignup(ctx, username, emailAddr, p.Password, p.DateOfBirth, now); !verr.Empty() {
		return domain.User{}, false, verr
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("failed to hash password: %w", err)
	}

	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        emailAddr,
		DisplayName:  p.DisplayName,
		DateOfBirth:  p.DateOfBirth,
		PasswordHash: hash,
		IsActive:     true,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if age := u.Age(now); age >= 0 && age < 13 {
		// Compliance signal only; under-13 accounts are flagged, not blocked.
		u.IsUnder13 = true
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Raced another signup past the pre-check; re-probe to report the
			// colliding field rather than guessing.
			verr := ValidationErrors{}
			if _, err := s.Store.Users().GetUserByUsername(ctx, username); err == nil {
				verr.Add("username", "already taken")
			}
			if _, err := s.Store.Users().GetUserByEmail(ctx, emailAddr); err == nil {
				verr.Add("email", "already registered")
			}
			if verr.Empty() {
				verr.Add("username", "already taken")
			}
			return domain.User{}, false, verr
		}
		return domain.User{}, false, fmt.Errorf("failed to create user: %w", err)
	}

	s.Logger.InfoContext(ctx, "user signed up",
		slog.String("user_id", u.ID),
		slog.String("username", u.Username),
	)

	emailSent := true
	if err := s.sendVerificationEmail(ctx, u, p.RequestIP); err != nil {
		// Delivery failure never unwinds the account.
		emailSent = false
		s.Logger.WarnContext(ctx, "verification email not delivered",
			slog.String("user_id", u.ID),
			slog.Any("error", err),
		)
	}

	return u, emailSent, nil
}

func (s *AuthService) validateSignup(ctx context.Context, username, emailAddr, password string, dob *time.Time, now time.Time) ValidationErrors {
	verr := ValidationErrors{}

	if !validUsername(username) {
		verr.Add("username", "must be 3-20 characters of letters, digits or underscore")
	} else if _, err := s.Store.Users().GetUserByUsername(ctx, username); err == nil {
		verr.Add("username", "already taken")
	}

	if !validEmail(emailAddr) {
		verr.Add("email", "not a valid email address")
	} else if _, err := s.Store.Users().GetUserByEmail(ctx, emailAddr); err == nil {
		verr.Add("email", "already registered")
	}

	if ok, reasons := s.Policy.Validate(password); !ok {
		verr.Add("password", reasons...)
	}

	if dob != nil {
		u := domain.User{DateOfBirth: dob}
		if age := u.Age(now); age < 0 || age > 120 {
			verr.Add("date_of_birth", "implausible date of birth")
		}
	}

	return verr
}

func (s *AuthService) sendVerificationEmail(ctx context.Context, u domain.User, requestIP string) error {
	tok, err := s.Tokens.Issue(ctx, u.ID, domain.PurposeVerifyEmail, requestIP)
	if err != nil {
		return err
	}
	return s.Mailer.Send(ctx, email.KindVerifyEmail, u.Email, map[string]string{
		"DisplayName": u.DisplayNameOrUsername(),
		"Link":        fmt.Sprintf("%s/v1/auth/verify-email/%s", s.SiteURL, tok.Token),
		"TTL":         humanDuration(tok.ExpiresAt.Sub(tok.CreatedAt)),
	})
}

// LoginStep1 checks credentials and, on success, parks the login behind an
// emailed one-time code. The returned challenge id is the only thing the
// client needs to present at step 2; the remember-me preference is held
// server-side with the challenge.
func (s *AuthService) LoginStep1(ctx context.Context, identifier, password, clientIP, userAgent string, rememberMe bool) (domain.LoginChallenge, error) {
	// Limited callers are rejected before touching credentials and without
	// adding another attempt row for this call.
	if err := s.RateLimit.Check(ctx, identifier, clientIP); err != nil {
		return domain.LoginChallenge{}, err
	}

	u, lookupErr := s.resolveIdentifier(ctx, identifier)
	if lookupErr == nil && cryptox.VerifyPassword(password, u.PasswordHash) == nil {
		s.RateLimit.Record(ctx, identifier, clientIP, userAgent, true)
	} else {
		s.RateLimit.Record(ctx, identifier, clientIP, userAgent, false)
		// Uniform rejection: never reveal whether the account exists.
		return domain.LoginChallenge{}, ErrInvalidCredentials
	}

	if !u.IsActive {
		return domain.LoginChallenge{}, ErrDeactivated
	}
	if !u.IsVerified {
		return domain.LoginChallenge{}, ErrNotVerified
	}

	challenge, err := s.startChallenge(ctx, u, rememberMe)
	if err != nil {
		return domain.LoginChallenge{}, err
	}
	return challenge, nil
}

func (s *AuthService) resolveIdentifier(ctx context.Context, identifier string) (domain.User, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if strings.Contains(identifier, "@") {
		return s.Store.Users().GetUserByEmail(ctx, identifier)
	}
	return s.Store.Users().GetUserByUsername(ctx, identifier)
}

func (s *AuthService) startChallenge(ctx context.Context, u domain.User, rememberMe bool) (domain.LoginChallenge, error) {
	now := s.now()
	challenge := domain.LoginChallenge{
		ID:         idx.New().String(),
		UserID:     u.ID,
		RememberMe: rememberMe,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.challengeTTL()),
	}
	if err := s.Store.Challenges().CreateChallenge(ctx, challenge); err != nil {
		return domain.LoginChallenge{}, fmt.Errorf("failed to create challenge: %w", err)
	}

	if err := s.dispatchOTP(ctx, u); err != nil {
		// Without the code the user cannot finish step 2; fail the login.
		_ = s.Store.Challenges().DeleteChallenge(ctx, challenge.ID)
		return domain.LoginChallenge{}, fmt.Errorf("failed to deliver code: %w", err)
	}

	s.Logger.InfoContext(ctx, "login challenge issued",
		slog.String("user_id", u.ID),
		slog.String("challenge_id", challenge.ID),
	)
	return challenge, nil
}

func (s *AuthService) dispatchOTP(ctx context.Context, u domain.User) error {
	code, err := s.OTP.Issue(ctx, u.ID)
	if err != nil {
		return err
	}
	return s.Mailer.Send(ctx, email.KindOTP, u.Email, map[string]string{
		"DisplayName": u.DisplayNameOrUsername(),
		"Code":        code,
		"TTL":         humanDuration(s.OTP.ttl()),
	})
}

// LoginStep2 redeems a challenge with the emailed code and establishes the
// authenticated session. Wrong codes burn one of a bounded number of retries;
// exhausting them voids the challenge.
func (s *AuthService) LoginStep2(ctx context.Context, challengeID, code, clientIP, userAgent string) (domain.Session, error) {
	challenge, err := s.loadChallenge(ctx, challengeID)
	if err != nil {
		return domain.Session{}, err
	}

	u, err := s.Store.Users().GetUserByID(ctx, challenge.UserID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to resolve challenge user: %w", err)
	}

	if err := s.OTP.Verify(ctx, u, code); err != nil {
		switch {
		case errors.Is(err, ErrOTPInvalid), errors.Is(err, ErrOTPExpired), errors.Is(err, ErrOTPNotSet):
			return domain.Session{}, s.burnAttempt(ctx, challenge, err)
		default:
			return domain.Session{}, err
		}
	}

	// Code accepted: the challenge is spent whatever happens next. Deleting it
	// doubles as the completion gate; losing the delete to a racing request
	// means that request owns the login and this one gets no session.
	if err := s.Store.Challenges().DeleteChallenge(ctx, challenge.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Session{}, ErrChallengeNotFound
		}
		return domain.Session{}, fmt.Errorf("failed to delete spent challenge: %w", err)
	}

	sess, err := s.Sessions.Create(ctx, u.ID, clientIP, userAgent, challenge.RememberMe)
	if err != nil {
		return domain.Session{}, err
	}

	if err := s.Store.Users().StampLastLogin(ctx, u.ID, s.now()); err != nil {
		s.Logger.WarnContext(ctx, "failed to stamp last login",
			slog.String("user_id", u.ID),
			slog.Any("error", err),
		)
	}

	s.Logger.InfoContext(ctx, "login completed",
		slog.String("user_id", u.ID),
		slog.String("session_id", sess.ID),
		slog.String("device_class", string(sess.DeviceClass)),
	)
	return sess, nil
}

func (s *AuthService) loadChallenge(ctx context.Context, challengeID string) (domain.LoginChallenge, error) {
	challenge, err := s.Store.Challenges().GetChallenge(ctx, challengeID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.LoginChallenge{}, ErrChallengeNotFound
	}
	if err != nil {
		return domain.LoginChallenge{}, fmt.Errorf("failed to look up challenge: %w", err)
	}
	if challenge.IsExpired(s.now()) {
		_ = s.Store.Challenges().DeleteChallenge(ctx, challenge.ID)
		return domain.LoginChallenge{}, ErrChallengeNotFound
	}
	return challenge, nil
}

// burnAttempt charges one failed OTP submission against the challenge and
// voids it once the cap is hit.
func (s *AuthService) burnAttempt(ctx context.Context, challenge domain.LoginChallenge, verifyErr error) error {
	updated, err := s.Store.Challenges().IncrementChallengeAttempts(ctx, challenge.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrChallengeNotFound
		}
		return fmt.Errorf("failed to count code attempt: %w", err)
	}

	if updated.Attempts >= domain.MaxChallengeAttempts {
		_ = s.Store.Challenges().DeleteChallenge(ctx, challenge.ID)
		s.Logger.WarnContext(ctx, "challenge voided after too many code attempts",
			slog.String("user_id", challenge.UserID),
			slog.String("challenge_id", challenge.ID),
		)
		return ErrTooManyOTPs
	}
	return verifyErr
}

// ResendOTP re-issues the emailed code for a pending challenge, overwriting
// the previous one. The challenge's own lifetime is not extended.
func (s *AuthService) ResendOTP(ctx context.Context, challengeID string) error {
	challenge, err := s.loadChallenge(ctx, challengeID)
	if err != nil {
		return err
	}

	u, err := s.Store.Users().GetUserByID(ctx, challenge.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve challenge user: %w", err)
	}
	return s.dispatchOTP(ctx, u)
}

// VerifyEmail redeems an email verification token. Flipping the user verified
// and consuming the token happen in one transaction.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenValue string) error {
	tok, err := s.Tokens.Validate(ctx, domain.PurposeVerifyEmail, tokenValue)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.Tokens.consume(ctx, tx, tok); err != nil {
			return err
		}
		if err := tx.Users().SetVerified(ctx, tok.UserID, true); err != nil {
			return fmt.Errorf("failed to mark user verified: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.InfoContext(ctx, "email verified", slog.String("user_id", tok.UserID))
	return nil
}

// RequestPasswordReset always succeeds from the caller's view so responses
// never reveal whether an email address is registered.
func (s *AuthService) RequestPasswordReset(ctx context.Context, emailAddr, requestIP string) {
	u, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(emailAddr)))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.Logger.ErrorContext(ctx, "reset request lookup failed", slog.Any("error", err))
		}
		return
	}

	tok, err := s.Tokens.Issue(ctx, u.ID, domain.PurposeResetPassword, requestIP)
	if err != nil {
		s.Logger.ErrorContext(ctx, "failed to issue reset token",
			slog.String("user_id", u.ID),
			slog.Any("error", err),
		)
		return
	}

	err = s.Mailer.Send(ctx, email.KindResetPassword, u.Email, map[string]string{
		"DisplayName": u.DisplayNameOrUsername(),
		"Link":        fmt.Sprintf("%s/v1/auth/password-reset/confirm?token=%s", s.SiteURL, tok.Token),
		"TTL":         humanDuration(tok.ExpiresAt.Sub(tok.CreatedAt)),
	})
	if err != nil {
		s.Logger.WarnContext(ctx, "reset email not delivered",
			slog.String("user_id", u.ID),
			slog.Any("error", err),
		)
	}
}

// ConfirmPasswordReset redeems a reset token and installs the new password.
// All active sessions are ended so a stolen session does not survive the
// reset. Token consumption and the password change are one transaction.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenValue, newPassword string) error {
	tok, err := s.Tokens.Validate(ctx, domain.PurposeResetPassword, tokenValue)
	if err != nil {
		return err
	}

	if ok, reasons := s.Policy.Validate(newPassword); !ok {
		verr := ValidationErrors{}
		verr.Add("password", reasons...)
		return verr
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.Tokens.consume(ctx, tx, tok); err != nil {
			return err
		}
		if err := tx.Users().UpdatePasswordHash(ctx, tok.UserID, hash); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		if err := tx.Sessions().DeactivateAllForUser(ctx, tok.UserID); err != nil {
			return fmt.Errorf("failed to end sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.InfoContext(ctx, "password reset completed", slog.String("user_id", tok.UserID))
	return nil
}

// Logout ends every active session for the session's user.
func (s *AuthService) Logout(ctx context.Context, sessionKey string) error {
	sess, err := s.Sessions.Resolve(ctx, sessionKey)
	if err != nil {
		return err
	}
	if err := s.Sessions.InvalidateAll(ctx, sess.UserID); err != nil {
		return fmt.Errorf("failed to end sessions: %w", err)
	}

	s.Logger.InfoContext(ctx, "user logged out", slog.String("user_id", sess.UserID))
	return nil
}

// LinkExternalIdentity attaches a provider identity to an existing user. The
// orchestrator only ever sees the provider's normalized profile shape.
func (s *AuthService) LinkExternalIdentity(ctx context.Context, userID string, provider domain.IdentityProvider, raw map[string]any) (domain.ExternalProfile, error) {
	profile, err := provider.Normalize(raw)
	if err != nil {
		return domain.ExternalProfile{}, err
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	if err := s.Store.Users().LinkExternalID(ctx, u.ID, provider.Name(), profile.ExternalID); err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("failed to link %s identity: %w", provider.Name(), err)
	}

	// Backfill profile fields the user has not set themselves.
	displayName := u.DisplayName
	if displayName == "" {
		displayName = profile.DisplayName
	}
	avatarURL := u.AvatarURL
	if avatarURL == "" {
		avatarURL = profile.AvatarURL
	}
	if displayName != u.DisplayName || avatarURL != u.AvatarURL {
		if err := s.Store.Users().UpdateProfile(ctx, u.ID, displayName, avatarURL); err != nil {
			return domain.ExternalProfile{}, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	// The provider has authenticated the user's email for us.
	if !u.IsVerified {
		if err := s.Store.Users().SetVerified(ctx, u.ID, true); err != nil {
			return domain.ExternalProfile{}, fmt.Errorf("failed to mark user verified: %w", err)
		}
	}

	s.Logger.InfoContext(ctx, "external identity linked",
		slog.String("user_id", u.ID),
		slog.String("provider", provider.Name()),
	)
	return profile, nil
}

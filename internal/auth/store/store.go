package store

import (
	"context"
	"errors"
	"time"

	"github.com/brickverse/auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and a Tx scope so multi-step operations (consume token + flip
// user flag, create session + deactivate old ones) stay atomic.
type Store interface {
	Users() Users
	Tokens() Tokens
	LoginAttempts() LoginAttempts
	Sessions() Sessions
	Challenges() Challenges

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to handle transactions.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername looks a user up by lowercased username.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail looks a user up by lowercased email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByExternalID finds a user by a linked provider identity.
	GetUserByExternalID(ctx context.Context, provider, externalID string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the username or email is taken, compared
	// case-insensitively.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateProfile mutates the mutable profile fields and bumps updated_at.
	UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error

	// SetVerified flips is_verified and bumps updated_at.
	SetVerified(ctx context.Context, userID string, verified bool) error

	// SetActive flips is_active and bumps updated_at. Deactivated users fail
	// login but keep their records.
	SetActive(ctx context.Context, userID string, active bool) error

	// SetOTP stores the OTP hash and its expiry and clears otp_verified.
	SetOTP(ctx context.Context, userID string, otpHash string, expiresAt time.Time) error

	// ClearOTP wipes the OTP hash and expiry and marks otp_verified, but only
	// while otpHash is still the stored hash. Returns ErrNotFound when another
	// caller cleared (or replaced) the code first, which makes redemption
	// single-shot under concurrent verification.
	ClearOTP(ctx context.Context, userID, otpHash string, verified bool) error

	// LinkExternalID attaches a provider identity (google or discord) to a user.
	LinkExternalID(ctx context.Context, userID, provider, externalID string) error

	// StampLastLogin records a successful authentication time.
	StampLastLogin(ctx context.Context, userID string, at time.Time) error
}

type Tokens interface {
	// CreateToken stores a freshly minted verification or reset token.
	CreateToken(ctx context.Context, t domain.VerificationToken) error

	// GetTokenByValue fetches a token by its opaque value and purpose.
	GetTokenByValue(ctx context.Context, purpose domain.TokenPurpose, token string) (domain.VerificationToken, error)

	// MarkTokenUsed stamps used_at on an unused token. Returns ErrNotFound
	// when the token is already used, which makes consumption single-shot
	// even under concurrent redemption.
	MarkTokenUsed(ctx context.Context, id string, at time.Time) error

	// InvalidateUnusedTokens marks all outstanding unused tokens of a purpose
	// for a user as used, so issuing a new token supersedes earlier ones.
	InvalidateUnusedTokens(ctx context.Context, userID string, purpose domain.TokenPurpose, at time.Time) error

	// DeleteDeadTokens removes used and expired tokens (housekeeping).
	DeleteDeadTokens(ctx context.Context, now time.Time) error
}

type LoginAttempts interface {
	// CreateLoginAttempt appends one attempt record. Attempts are immutable.
	CreateLoginAttempt(ctx context.Context, a domain.LoginAttempt) error

	// CountRecentFailuresByIP counts failed attempts from an IP since the
	// window start.
	CountRecentFailuresByIP(ctx context.Context, ip string, since time.Time) (int, error)

	// CountRecentFailuresByIdentifier counts failed attempts against an
	// identifier since the window start.
	CountRecentFailuresByIdentifier(ctx context.Context, identifier string, since time.Time) (int, error)

	// DeleteAttemptsBefore prunes attempts past retention (housekeeping).
	DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) error
}

type Sessions interface {
	// CreateSession inserts a new active session.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByKey fetches an active session by its opaque key.
	GetSessionByKey(ctx context.Context, key string) (domain.Session, error)

	// TouchSession bumps last_activity_at.
	TouchSession(ctx context.Context, id string, at time.Time) error

	// DeactivateSession flips is_active off for one session.
	DeactivateSession(ctx context.Context, id string) error

	// DeactivateAllForUser flips is_active off for every session of a user.
	// Used before creating a new session and on password reset.
	DeactivateAllForUser(ctx context.Context, userID string) error

	// DeleteStaleSessions removes inactive and expired sessions (housekeeping).
	DeleteStaleSessions(ctx context.Context, now time.Time) error
}

type Challenges interface {
	// CreateChallenge stores a pending login challenge.
	CreateChallenge(ctx context.Context, c domain.LoginChallenge) error

	// GetChallenge fetches a challenge by its opaque id.
	GetChallenge(ctx context.Context, id string) (domain.LoginChallenge, error)

	// IncrementChallengeAttempts bumps the failed OTP counter and returns the
	// updated challenge.
	IncrementChallengeAttempts(ctx context.Context, id string) (domain.LoginChallenge, error)

	// DeleteChallenge removes a challenge (on success or exhaustion). Returns
	// ErrNotFound when the challenge was already gone, so a racing second
	// completion can be detected.
	DeleteChallenge(ctx context.Context, id string) error

	// DeleteExpiredChallenges removes lapsed challenges (housekeeping).
	DeleteExpiredChallenges(ctx context.Context, now time.Time) error
}

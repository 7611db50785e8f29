package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brickverse/auth/internal/auth/domain"
	"github.com/brickverse/auth/internal/auth/store"
	"github.com/brickverse/auth/pkg/idx"
	"github.com/google/uuid"
)

const (
	// DefaultVerifyEmailTTL is how long an email verification link stays valid.
	DefaultVerifyEmailTTL = 24 * time.Hour
	// DefaultResetPasswordTTL is how long a password reset link stays valid.
	// Shorter than verification because a reset link is a credential.
	DefaultResetPasswordTTL = 1 * time.Hour
)

// TokenService mints and redeems single-use verification and password reset
// tokens. Issuing a new token supersedes any outstanding unused tokens of the
// same purpose for that user.
type TokenService struct {
	Store store.Store

	VerifyEmailTTL   time.Duration
	ResetPasswordTTL time.Duration

	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TokenService) ttl(purpose domain.TokenPurpose) time.Duration {
	switch purpose {
	case domain.PurposeResetPassword:
		if s.ResetPasswordTTL > 0 {
			return s.ResetPasswordTTL
		}
		return DefaultResetPasswordTTL
	default:
		if s.VerifyEmailTTL > 0 {
			return s.VerifyEmailTTL
		}
		return DefaultVerifyEmailTTL
	}
}

// Issue mints a fresh token for the user and purpose, invalidating any unused
// predecessors so only the newest link in the user's inbox works.
func (s *TokenService) Issue(ctx context.Context, userID string, purpose domain.TokenPurpose, requestIP string) (domain.VerificationToken, error) {
	now := s.now()
	tok := domain.VerificationToken{
		ID:        idx.New().String(),
		UserID:    userID,
		Purpose:   purpose,
		Token:     uuid.NewString(),
		RequestIP: requestIP,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl(purpose)),
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Tokens().InvalidateUnusedTokens(ctx, userID, purpose, now); err != nil {
			return fmt.Errorf("failed to invalidate prior tokens: %w", err)
		}
		if err := tx.Tokens().CreateToken(ctx, tok); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.VerificationToken{}, err
	}
	return tok, nil
}

// Validate looks a token up without consuming it and classifies failures as
// ErrTokenInvalid, ErrTokenUsed or ErrTokenExpired.
func (s *TokenService) Validate(ctx context.Context, purpose domain.TokenPurpose, value string) (domain.VerificationToken, error) {
	tok, err := s.Store.Tokens().GetTokenByValue(ctx, purpose, value)
	if errors.Is(err, store.ErrNotFound) {
		return domain.VerificationToken{}, ErrTokenInvalid
	}
	if err != nil {
		return domain.VerificationToken{}, fmt.Errorf("failed to look up token: %w", err)
	}

	if tok.IsUsed() {
		return domain.VerificationToken{}, ErrTokenUsed
	}
	if !tok.IsValid(s.now()) {
		return domain.VerificationToken{}, ErrTokenExpired
	}
	return tok, nil
}

// consume marks a validated token used inside the caller's transaction. The
// conditional update in the store makes redemption single-shot even when two
// requests race on the same token.
func (s *TokenService) consume(ctx context.Context, tx store.Tx, tok domain.VerificationToken) error {
	err := tx.Tokens().MarkTokenUsed(ctx, tok.ID, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return ErrTokenUsed
	}
	if err != nil {
		return fmt.Errorf("failed to consume token: %w", err)
	}
	return nil
}

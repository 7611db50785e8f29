package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brickverse/auth/internal/auth/domain"
	"github.com/brickverse/auth/internal/auth/store"
	"github.com/brickverse/auth/pkg/cryptox"
)

// DefaultOTPTTL is how long an emailed login code stays valid.
const DefaultOTPTTL = 10 * time.Minute

// OTPService issues and verifies emailed one-time login codes. Only the hash
// of a code is ever stored; the plaintext exists once, in the email.
type OTPService struct {
	Store store.Store
	TTL   time.Duration

	Now func() time.Time
}

func (s *OTPService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *OTPService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultOTPTTL
}

// Issue generates a fresh code for the user, stores its hash and expiry, and
// returns the plaintext code for delivery. A new code replaces any pending one.
func (s *OTPService) Issue(ctx context.Context, userID string) (string, error) {
	code, err := cryptox.GenerateOTP()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	expiresAt := s.now().Add(s.ttl())
	if err := s.Store.Users().SetOTP(ctx, userID, cryptox.HashOTP(code), expiresAt); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}
	return code, nil
}

// Verify checks a submitted code against the user's pending one. It fails
// closed: no pending code, an expired code, or a mismatch all reject. On
// success the pending code is cleared so it cannot be replayed; the clear is
// conditional on the hash, so of two requests racing on the same code exactly
// one succeeds and the other is rejected as invalid.
func (s *OTPService) Verify(ctx context.Context, user domain.User, code string) error {
	if user.OTPHash == nil || *user.OTPHash == "" || user.OTPExpiresAt == nil {
		return ErrOTPNotSet
	}
	if !s.now().Before(*user.OTPExpiresAt) {
		return ErrOTPExpired
	}
	if !cryptox.VerifyOTPHash(code, *user.OTPHash) {
		return ErrOTPInvalid
	}

	err := s.Store.Users().ClearOTP(ctx, user.ID, *user.OTPHash, true)
	if errors.Is(err, store.ErrNotFound) {
		// Someone else consumed (or replaced) the code between our read and
		// the clear. This submission loses.
		return ErrOTPInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to clear code: %w", err)
	}
	return nil
}

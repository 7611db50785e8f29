package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brickverse/auth/internal/auth/domain"
	"github.com/brickverse/auth/internal/auth/store"
	"github.com/brickverse/auth/pkg/cryptox"
	"github.com/brickverse/auth/pkg/idx"
)

// DefaultRememberMeTTL is how long a remember-me session lives.
const DefaultRememberMeTTL = 30 * 24 * time.Hour

// SessionService manages device sessions. A user has at most one active
// session: creating a new one deactivates all others in the same transaction.
type SessionService struct {
	Store store.Store

	RememberMeTTL time.Duration

	Now func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SessionService) rememberMeTTL() time.Duration {
	if s.RememberMeTTL > 0 {
		return s.RememberMeTTL
	}
	return DefaultRememberMeTTL
}

// Create starts a new session for the user, replacing any active one. The
// returned session carries the opaque key the client authenticates with.
func (s *SessionService) Create(ctx context.Context, userID, ip, userAgent string, rememberMe bool) (domain.Session, error) {
	key, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to generate session key: %w", err)
	}

	now := s.now()
	sess := domain.Session{
		ID:             idx.New().String(),
		UserID:         userID,
		SessionKey:     key,
		IPAddress:      ip,
		UserAgent:      userAgent,
		DeviceClass:    domain.DetectDeviceClass(userAgent),
		IsActive:       true,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if rememberMe {
		expiresAt := now.Add(s.rememberMeTTL())
		sess.ExpiresAt = &expiresAt
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sessions().DeactivateAllForUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to deactivate prior sessions: %w", err)
		}
		if err := tx.Sessions().CreateSession(ctx, sess); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// Resolve fetches the active session for an opaque key, rejecting expired
// remember-me sessions, and bumps its activity stamp.
func (s *SessionService) Resolve(ctx context.Context, key string) (domain.Session, error) {
	sess, err := s.Store.Sessions().GetSessionByKey(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to look up session: %w", err)
	}

	now := s.now()
	if sess.ExpiresAt != nil && !now.Before(*sess.ExpiresAt) {
		// Lapsed remember-me session: deactivate on sight.
		_ = s.Store.Sessions().DeactivateSession(ctx, sess.ID)
		return domain.Session{}, ErrSessionNotFound
	}

	if err := s.Store.Sessions().TouchSession(ctx, sess.ID, now); err != nil {
		return domain.Session{}, fmt.Errorf("failed to touch session: %w", err)
	}
	sess.LastActivityAt = now
	return sess, nil
}

// Invalidate ends one session by key.
func (s *SessionService) Invalidate(ctx context.Context, key string) error {
	sess, err := s.Store.Sessions().GetSessionByKey(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}
	return s.Store.Sessions().DeactivateSession(ctx, sess.ID)
}

// InvalidateAll ends every session for a user (password reset, deactivation).
func (s *SessionService) InvalidateAll(ctx context.Context, userID string) error {
	return s.Store.Sessions().DeactivateAllForUser(ctx, userID)
}

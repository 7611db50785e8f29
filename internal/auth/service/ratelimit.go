package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brickverse/auth/internal/auth/domain"
	"github.com/brickverse/auth/internal/auth/store"
	"github.com/brickverse/auth/pkg/idx"
)

const (
	// DefaultMaxFailures is the failed-attempt ceiling within the window,
	// applied independently per source IP and per target identifier.
	DefaultMaxFailures = 5
	// DefaultFailureWindow is the sliding window the limiter counts over.
	DefaultFailureWindow = 15 * time.Minute
)

// RateLimitService throttles login attempts from the persistent attempt log.
// A login is blocked when EITHER the source IP or the target identifier has
// reached the failure ceiling, so an attacker can neither rotate identifiers
// from one IP nor rotate IPs against one account.
type RateLimitService struct {
	Store  store.Store
	Logger *slog.Logger

	MaxFailures int
	Window      time.Duration

	Now func() time.Time
}

func (s *RateLimitService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *RateLimitService) maxFailures() int {
	if s.MaxFailures > 0 {
		return s.MaxFailures
	}
	return DefaultMaxFailures
}

func (s *RateLimitService) window() time.Duration {
	if s.Window > 0 {
		return s.Window
	}
	return DefaultFailureWindow
}

// Check returns ErrRateLimited when the IP or the identifier is over the
// failed-attempt ceiling for the current window.
func (s *RateLimitService) Check(ctx context.Context, identifier, ip string) error {
	since := s.now().Add(-s.window())

	byIP, err := s.Store.LoginAttempts().CountRecentFailuresByIP(ctx, ip, since)
	if err != nil {
		return fmt.Errorf("failed to count failures by ip: %w", err)
	}
	byIdentifier, err := s.Store.LoginAttempts().CountRecentFailuresByIdentifier(ctx, identifier, since)
	if err != nil {
		return fmt.Errorf("failed to count failures by identifier: %w", err)
	}

	if byIP >= s.maxFailures() || byIdentifier >= s.maxFailures() {
		s.Logger.WarnContext(ctx, "login rate limited",
			slog.String("ip", ip),
			slog.Int("failures_by_ip", byIP),
			slog.Int("failures_by_identifier", byIdentifier),
		)
		return ErrRateLimited
	}
	return nil
}

// Record appends one attempt to the log. Recording must never break a login,
// so storage errors are logged and swallowed.
func (s *RateLimitService) Record(ctx context.Context, identifier, ip, userAgent string, success bool) {
	attempt := domain.LoginAttempt{
		ID:          idx.New().String(),
		Identifier:  identifier,
		IPAddress:   ip,
		UserAgent:   userAgent,
		Success:     success,
		AttemptedAt: s.now(),
	}

	if err := s.Store.LoginAttempts().CreateLoginAttempt(ctx, attempt); err != nil {
		s.Logger.ErrorContext(ctx, "failed to record login attempt",
			slog.String("ip", ip),
			slog.Any("error", err),
		)
	}
}

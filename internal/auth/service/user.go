package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"time"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

// validUsername expects the caller to have lowercased the input already.
func validUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

func validEmail(address string) bool {
	if address == "" {
		return false
	}
	parsed, err := mail.ParseAddress(address)
	return err == nil && parsed.Address == address
}

// humanDuration renders a TTL for email copy: "10 minutes", "1 hour", "24 hours".
func humanDuration(d time.Duration) string {
	if d < time.Hour {
		minutes := int(d.Round(time.Minute) / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := int(d.Round(time.Hour) / time.Hour)
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

// Deactivate soft-disables an account and ends its sessions. The record is
// kept; nothing in this service hard-deletes users.
func (s *AuthService) Deactivate(ctx context.Context, userID string) error {
	if err := s.Store.Users().SetActive(ctx, userID, false); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if err := s.Sessions.InvalidateAll(ctx, userID); err != nil {
		return fmt.Errorf("failed to end sessions: %w", err)
	}

	s.Logger.InfoContext(ctx, "user deactivated", slog.String("user_id", userID))
	return nil
}

// Reactivate re-enables a soft-deactivated account.
func (s *AuthService) Reactivate(ctx context.Context, userID string) error {
	if err := s.Store.Users().SetActive(ctx, userID, true); err != nil {
		return fmt.Errorf("failed to reactivate user: %w", err)
	}

	s.Logger.InfoContext(ctx, "user reactivated", slog.String("user_id", userID))
	return nil
}

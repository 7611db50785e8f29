package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/brickverse/auth/internal/auth/store"
)

// DefaultAttemptRetention is how long login attempt rows are kept before
// housekeeping prunes them.
const DefaultAttemptRetention = 30 * 24 * time.Hour

// HousekeepingService periodically cleans up expired database records to
// prevent unbounded growth of verification tokens, login challenges, login
// attempts and stale sessions.
type HousekeepingService struct {
	Store            store.Store
	Logger           *slog.Logger
	Interval         time.Duration
	AttemptRetention time.Duration

	Now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(s store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:            s,
		Logger:           logger,
		Interval:         interval,
		AttemptRetention: DefaultAttemptRetention,
		stopCh:           make(chan struct{}),
		doneCh:           make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Non-blocking; call Stop() to shut the worker down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker. Blocks until any
// in-progress cleanup finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup deletes expired records. Each deletion is independent; a failure in
// one table does not stop the others.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}

	if err := s.Store.Tokens().DeleteDeadTokens(ctx, now); err != nil {
		s.Logger.ErrorContext(ctx, "failed to prune tokens", slog.Any("error", err))
	}
	if err := s.Store.Challenges().DeleteExpiredChallenges(ctx, now); err != nil {
		s.Logger.ErrorContext(ctx, "failed to prune challenges", slog.Any("error", err))
	}
	if err := s.Store.LoginAttempts().DeleteAttemptsBefore(ctx, now.Add(-s.AttemptRetention)); err != nil {
		s.Logger.ErrorContext(ctx, "failed to prune login attempts", slog.Any("error", err))
	}
	if err := s.Store.Sessions().DeleteStaleSessions(ctx, now); err != nil {
		s.Logger.ErrorContext(ctx, "failed to prune sessions", slog.Any("error", err))
	}

	s.Logger.DebugContext(ctx, "housekeeping cleanup completed")
}

package sqlite

import (
	"context"
	"time"

	"github.com/brickverse/auth/internal/auth/domain"
)

type loginAttemptsRepo struct {
	q querier
}

func (r *loginAttemptsRepo) CreateLoginAttempt(ctx context.Context, a domain.LoginAttempt) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO login_attempts (id, identifier, ip_address, user_agent, success, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Identifier, a.IPAddress, a.UserAgent, a.Success, a.AttemptedAt,
	)
	return mapConstraint(err)
}

func (r *loginAttemptsRepo) CountRecentFailuresByIP(ctx context.Context, ip string, since time.Time) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE ip_address = ? AND success = 0 AND attempted_at >= ?`,
		ip, since).Scan(&n)
	return n, err
}

func (r *loginAttemptsRepo) CountRecentFailuresByIdentifier(ctx context.Context, identifier string, since time.Time) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM login_attempts
		WHERE identifier = ? AND success = 0 AND attempted_at >= ?`,
		identifier, since).Scan(&n)
	return n, err
}

func (r *loginAttemptsRepo) DeleteAttemptsBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM login_attempts WHERE attempted_at < ?`, cutoff)
	return err
}

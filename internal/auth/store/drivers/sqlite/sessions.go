package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/brickverse/auth/internal/auth/domain"
)

type sessionsRepo struct {
	q querier
}

const sessionColumns = `id, user_id, session_key, ip_address, user_agent, device_class,
	is_active, expires_at, created_at, last_activity_at`

func scanSession(row interface{ Scan(...any) error }) (domain.Session, error) {
	var (
		s         domain.Session
		expiresAt sql.NullTime
	)
	err := row.Scan(&s.ID, &s.UserID, &s.SessionKey, &s.IPAddress, &s.UserAgent,
		&s.DeviceClass, &s.IsActive, &expiresAt, &s.CreatedAt, &s.LastActivityAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.ExpiresAt = mapNullTimePtr(expiresAt)
	return s, nil
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.SessionKey, s.IPAddress, s.UserAgent, s.DeviceClass,
		s.IsActive, mapOptionalTime(s.ExpiresAt), s.CreatedAt, s.LastActivityAt,
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSessionByKey(ctx context.Context, key string) (domain.Session, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE session_key = ? AND is_active = 1`,
		key)
	return scanSession(row)
}

func (r *sessionsRepo) TouchSession(ctx context.Context, id string, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE sessions SET last_activity_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *sessionsRepo) DeactivateSession(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE sessions SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// DeactivateAllForUser is not guarded on rows affected: having no active
// sessions to deactivate is fine.
func (r *sessionsRepo) DeactivateAllForUser(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE sessions SET is_active = 0 WHERE user_id = ? AND is_active = 1`, userID)
	return err
}

func (r *sessionsRepo) DeleteStaleSessions(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE is_active = 0 OR (expires_at IS NOT NULL AND expires_at <= ?)`,
		now)
	return err
}

package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/brickverse/auth/internal/auth/domain"
)

type tokensRepo struct {
	q querier
}

const tokenColumns = `id, user_id, purpose, token, request_ip, created_at, expires_at, used_at`

func scanToken(row interface{ Scan(...any) error }) (domain.VerificationToken, error) {
	var (
		t      domain.VerificationToken
		usedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Purpose, &t.Token, &t.RequestIP,
		&t.CreatedAt, &t.ExpiresAt, &usedAt)
	if err != nil {
		return domain.VerificationToken{}, mapNotFound(err)
	}
	t.UsedAt = mapNullTimePtr(usedAt)
	return t, nil
}

func (r *tokensRepo) CreateToken(ctx context.Context, t domain.VerificationToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO verification_tokens (`+tokenColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Purpose, t.Token, t.RequestIP,
		t.CreatedAt, t.ExpiresAt, mapOptionalTime(t.UsedAt),
	)
	return mapConstraint(err)
}

func (r *tokensRepo) GetTokenByValue(ctx context.Context, purpose domain.TokenPurpose, token string) (domain.VerificationToken, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+tokenColumns+` FROM verification_tokens
		WHERE purpose = ? AND token = ?`,
		purpose, token)
	return scanToken(row)
}

// MarkTokenUsed is guarded on used_at IS NULL so a token can only ever be
// consumed once even if two requests race on it.
func (r *tokensRepo) MarkTokenUsed(ctx context.Context, id string, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE verification_tokens SET used_at = ?
		WHERE id = ? AND used_at IS NULL`,
		at, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *tokensRepo) InvalidateUnusedTokens(ctx context.Context, userID string, purpose domain.TokenPurpose, at time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE verification_tokens SET used_at = ?
		WHERE user_id = ? AND purpose = ? AND used_at IS NULL`,
		at, userID, purpose)
	return err
}

func (r *tokensRepo) DeleteDeadTokens(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM verification_tokens
		WHERE used_at IS NOT NULL OR expires_at <= ?`,
		now)
	return err
}

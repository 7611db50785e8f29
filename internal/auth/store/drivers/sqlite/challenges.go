package sqlite

import (
	"context"
	"time"

	"github.com/brickverse/auth/internal/auth/domain"
)

type challengesRepo struct {
	q querier
}

const challengeColumns = `id, user_id, remember_me, attempts, created_at, expires_at`

func scanChallenge(row interface{ Scan(...any) error }) (domain.LoginChallenge, error) {
	var c domain.LoginChallenge
	err := row.Scan(&c.ID, &c.UserID, &c.RememberMe, &c.Attempts, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		return domain.LoginChallenge{}, mapNotFound(err)
	}
	return c, nil
}

func (r *challengesRepo) CreateChallenge(ctx context.Context, c domain.LoginChallenge) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO login_challenges (`+challengeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.RememberMe, c.Attempts, c.CreatedAt, c.ExpiresAt,
	)
	return mapConstraint(err)
}

func (r *challengesRepo) GetChallenge(ctx context.Context, id string) (domain.LoginChallenge, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+challengeColumns+` FROM login_challenges WHERE id = ?`, id)
	return scanChallenge(row)
}

func (r *challengesRepo) IncrementChallengeAttempts(ctx context.Context, id string) (domain.LoginChallenge, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE login_challenges SET attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return domain.LoginChallenge{}, err
	}
	if err := requireRows(res); err != nil {
		return domain.LoginChallenge{}, err
	}
	return r.GetChallenge(ctx, id)
}

func (r *challengesRepo) DeleteChallenge(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM login_challenges WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *challengesRepo) DeleteExpiredChallenges(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM login_challenges WHERE expires_at <= ?`, now)
	return err
}

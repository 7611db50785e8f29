package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/brickverse/auth/internal/auth/domain"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, username, email, display_name, date_of_birth, avatar_url,
	password_hash, is_active, is_verified, is_under13, parental_consent,
	otp_hash, otp_expires_at, otp_verified, google_id, discord_id,
	created_at, updated_at, last_login_at`

func (r *usersRepo) scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u            domain.User
		dob          sql.NullTime
		avatarURL    sql.NullString
		otpHash      sql.NullString
		otpExpiresAt sql.NullTime
		googleID     sql.NullString
		discordID    sql.NullString
		lastLoginAt  sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.DisplayName, &dob, &avatarURL,
		&u.PasswordHash, &u.IsActive, &u.IsVerified, &u.IsUnder13, &u.ParentalConsent,
		&otpHash, &otpExpiresAt, &u.OTPVerified, &googleID, &discordID,
		&u.CreatedAt, &u.UpdatedAt, &lastLoginAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.DateOfBirth = mapNullTimePtr(dob)
	u.AvatarURL = avatarURL.String
	u.OTPHash = mapNullStringPtr(otpHash)
	u.OTPExpiresAt = mapNullTimePtr(otpExpiresAt)
	u.GoogleID = mapNullStringPtr(googleID)
	u.DiscordID = mapNullStringPtr(discordID)
	u.LastLoginAt = mapNullTimePtr(lastLoginAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.scanUser(row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username)
	return r.scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
	return r.scanUser(row)
}

func (r *usersRepo) GetUserByExternalID(ctx context.Context, provider, externalID string) (domain.User, error) {
	var column string
	switch provider {
	case "google":
		column = "google_id"
	case "discord":
		column = "discord_id"
	default:
		return domain.User{}, mapNotFound(errNoSuchProvider)
	}

	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, externalID)
	return r.scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (
			id, username, email, display_name, date_of_birth, avatar_url,
			password_hash, is_active, is_verified, is_under13, parental_consent,
			otp_hash, otp_expires_at, otp_verified, google_id, discord_id,
			created_at, updated_at, last_login_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.DisplayName, mapOptionalTime(u.DateOfBirth), u.AvatarURL,
		u.PasswordHash, u.IsActive, u.IsVerified, u.IsUnder13, u.ParentalConsent,
		mapOptionalString(u.OTPHash), mapOptionalTime(u.OTPExpiresAt), u.OTPVerified,
		mapOptionalString(u.GoogleID), mapOptionalString(u.DiscordID),
		u.CreatedAt, u.UpdatedAt, mapOptionalTime(u.LastLoginAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	return r.mustUpdate(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, displayName, avatarURL string) error {
	return r.mustUpdate(ctx, `
		UPDATE users SET display_name = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		displayName, avatarURL, time.Now().UTC(), userID)
}

func (r *usersRepo) SetVerified(ctx context.Context, userID string, verified bool) error {
	return r.mustUpdate(ctx, `
		UPDATE users SET is_verified = ?, updated_at = ? WHERE id = ?`,
		verified, time.Now().UTC(), userID)
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool) error {
	return r.mustUpdate(ctx, `
		UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), userID)
}

func (r *usersRepo) SetOTP(ctx context.Context, userID string, otpHash string, expiresAt time.Time) error {
	return r.mustUpdate(ctx, `
		UPDATE users SET otp_hash = ?, otp_expires_at = ?, otp_verified = 0, updated_at = ?
		WHERE id = ?`,
		otpHash, expiresAt, time.Now().UTC(), userID)
}

func (r *usersRepo) ClearOTP(ctx context.Context, userID, otpHash string, verified bool) error {
	// Conditional on the hash so two redeemers of the same code cannot both
	// win: the loser matches zero rows and gets ErrNotFound.
	return r.mustUpdate(ctx, `
		UPDATE users SET otp_hash = NULL, otp_expires_at = NULL, otp_verified = ?, updated_at = ?
		WHERE id = ? AND otp_hash = ?`,
		verified, time.Now().UTC(), userID, otpHash)
}

func (r *usersRepo) LinkExternalID(ctx context.Context, userID, provider, externalID string) error {
	var column string
	switch provider {
	case "google":
		column = "google_id"
	case "discord":
		column = "discord_id"
	default:
		return errNoSuchProvider
	}

	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		externalID, time.Now().UTC(), userID)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRows(res)
}

func (r *usersRepo) StampLastLogin(ctx context.Context, userID string, at time.Time) error {
	return r.mustUpdate(ctx, `
		UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`,
		at, time.Now().UTC(), userID)
}

func (r *usersRepo) mustUpdate(ctx context.Context, query string, args ...any) error {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	return requireRows(res)
}

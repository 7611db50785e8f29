package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/brickverse/auth/internal/auth/domain"
	"github.com/brickverse/auth/internal/auth/store"
	"github.com/brickverse/auth/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	// Shared-cache memory DB so the migration connection and repo connections
	// see the same database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, username, email string) domain.User {
	t.Helper()

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$fake",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsersRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, s, "alice", "alice@example.com")

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		got, err := s.Users().GetUserByUsername(ctx, "ALICE")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)

		got, err = s.Users().GetUserByEmail(ctx, "Alice@Example.COM")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("duplicate username differs only by case", func(t *testing.T) {
		dup := u
		dup.ID = idx.New().String()
		dup.Username = "Alice"
		dup.Email = "other@example.com"
		err := s.Users().CreateUser(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("duplicate email differs only by case", func(t *testing.T) {
		dup := u
		dup.ID = idx.New().String()
		dup.Username = "someoneelse"
		dup.Email = "ALICE@example.com"
		err := s.Users().CreateUser(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("otp round trip", func(t *testing.T) {
		exp := time.Now().UTC().Add(10 * time.Minute)
		require.NoError(t, s.Users().SetOTP(ctx, u.ID, "deadbeef", exp))

		got, err := s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got.OTPHash)
		require.Equal(t, "deadbeef", *got.OTPHash)
		require.False(t, got.OTPVerified)

		err = s.Users().ClearOTP(ctx, u.ID, "somethingelse", true)
		require.ErrorIs(t, err, store.ErrNotFound, "stale hash must not clear the code")

		require.NoError(t, s.Users().ClearOTP(ctx, u.ID, "deadbeef", true))
		got, err = s.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Nil(t, got.OTPHash)
		require.Nil(t, got.OTPExpiresAt)
		require.True(t, got.OTPVerified)

		err = s.Users().ClearOTP(ctx, u.ID, "deadbeef", true)
		require.ErrorIs(t, err, store.ErrNotFound, "a cleared code cannot be cleared again")
	})

	t.Run("link external identity", func(t *testing.T) {
		require.NoError(t, s.Users().LinkExternalID(ctx, u.ID, "discord", "d-1"))

		got, err := s.Users().GetUserByExternalID(ctx, "discord", "d-1")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)

		_, err = s.Users().GetUserByExternalID(ctx, "google", "d-1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		_, err := s.Users().GetUserByID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)

		err = s.Users().SetVerified(ctx, "nope", true)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestTokensRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "bob", "bob@example.com")
	now := time.Now().UTC()

	mint := func(value string) domain.VerificationToken {
		tok := domain.VerificationToken{
			ID:        idx.New().String(),
			UserID:    u.ID,
			Purpose:   domain.PurposeVerifyEmail,
			Token:     value,
			CreatedAt: now,
			ExpiresAt: now.Add(24 * time.Hour),
		}
		require.NoError(t, s.Tokens().CreateToken(ctx, tok))
		return tok
	}

	t.Run("mark used is single-shot", func(t *testing.T) {
		tok := mint("tok-one")
		require.NoError(t, s.Tokens().MarkTokenUsed(ctx, tok.ID, now))

		err := s.Tokens().MarkTokenUsed(ctx, tok.ID, now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("invalidate unused supersedes outstanding tokens", func(t *testing.T) {
		old := mint("tok-old")
		require.NoError(t, s.Tokens().InvalidateUnusedTokens(ctx, u.ID, domain.PurposeVerifyEmail, now))

		got, err := s.Tokens().GetTokenByValue(ctx, domain.PurposeVerifyEmail, old.Token)
		require.NoError(t, err)
		require.True(t, got.IsUsed())
	})

	t.Run("duplicate token value rejected", func(t *testing.T) {
		mint("tok-dup")
		dup := domain.VerificationToken{
			ID:        idx.New().String(),
			UserID:    u.ID,
			Purpose:   domain.PurposeResetPassword,
			Token:     "tok-dup",
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		}
		require.ErrorIs(t, s.Tokens().CreateToken(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("housekeeping removes dead tokens", func(t *testing.T) {
		live := mint("tok-live")
		require.NoError(t, s.Tokens().DeleteDeadTokens(ctx, now))

		// The live one survives, everything used or expired is gone.
		_, err := s.Tokens().GetTokenByValue(ctx, domain.PurposeVerifyEmail, live.Token)
		require.NoError(t, err)
		_, err = s.Tokens().GetTokenByValue(ctx, domain.PurposeVerifyEmail, "tok-one")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestLoginAttemptsRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	record := func(identifier, ip string, success bool, at time.Time) {
		require.NoError(t, s.LoginAttempts().CreateLoginAttempt(ctx, domain.LoginAttempt{
			ID:          idx.New().String(),
			Identifier:  identifier,
			IPAddress:   ip,
			Success:     success,
			AttemptedAt: at,
		}))
	}

	record("carol", "10.0.0.1", false, now)
	record("carol", "10.0.0.1", false, now.Add(-time.Minute))
	record("carol", "10.0.0.2", false, now)
	record("carol", "10.0.0.1", true, now)                  // successes never count
	record("carol", "10.0.0.1", false, now.Add(-time.Hour)) // outside window

	since := now.Add(-15 * time.Minute)

	byIP, err := s.LoginAttempts().CountRecentFailuresByIP(ctx, "10.0.0.1", since)
	require.NoError(t, err)
	require.Equal(t, 2, byIP)

	byID, err := s.LoginAttempts().CountRecentFailuresByIdentifier(ctx, "carol", since)
	require.NoError(t, err)
	require.Equal(t, 3, byID)

	require.NoError(t, s.LoginAttempts().DeleteAttemptsBefore(ctx, now.Add(-30*time.Minute)))
	byID, err = s.LoginAttempts().CountRecentFailuresByIdentifier(ctx, "carol", now.Add(-2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 3, byID)
}

func TestSessionsRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "dave", "dave@example.com")
	now := time.Now().UTC()

	create := func(key string) domain.Session {
		sess := domain.Session{
			ID:             idx.New().String(),
			UserID:         u.ID,
			SessionKey:     key,
			DeviceClass:    domain.DeviceDesktop,
			IsActive:       true,
			CreatedAt:      now,
			LastActivityAt: now,
		}
		require.NoError(t, s.Sessions().CreateSession(ctx, sess))
		return sess
	}

	first := create("key-1")
	require.NoError(t, s.Sessions().DeactivateAllForUser(ctx, u.ID))
	second := create("key-2")

	_, err := s.Sessions().GetSessionByKey(ctx, first.SessionKey)
	require.ErrorIs(t, err, store.ErrNotFound, "deactivated session must not resolve")

	got, err := s.Sessions().GetSessionByKey(ctx, second.SessionKey)
	require.NoError(t, err)
	require.Equal(t, second.ID, got.ID)

	require.NoError(t, s.Sessions().TouchSession(ctx, second.ID, now.Add(time.Minute)))

	require.NoError(t, s.Sessions().DeleteStaleSessions(ctx, now))
	got, err = s.Sessions().GetSessionByKey(ctx, second.SessionKey)
	require.NoError(t, err, "active ephemeral session survives housekeeping")
	require.Equal(t, second.ID, got.ID)
}

func TestChallengesRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "erin", "erin@example.com")
	now := time.Now().UTC()

	c := domain.LoginChallenge{
		ID:        idx.New().String(),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(10 * time.Minute),
	}
	require.NoError(t, s.Challenges().CreateChallenge(ctx, c))

	got, err := s.Challenges().IncrementChallengeAttempts(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Attempts)

	got, err = s.Challenges().IncrementChallengeAttempts(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.Attempts)

	require.NoError(t, s.Challenges().DeleteChallenge(ctx, c.ID))
	_, err = s.Challenges().GetChallenge(ctx, c.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.Challenges().DeleteChallenge(ctx, c.ID)
	require.ErrorIs(t, err, store.ErrNotFound, "second delete reports the challenge gone")
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "frank", "frank@example.com")

	sentinel := fmt.Errorf("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SetVerified(ctx, u.ID, true); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.IsVerified, "rolled back write must not persist")
}

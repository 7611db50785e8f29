package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDetectDeviceClass(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ua   string
		want DeviceClass
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148", DeviceMobile},
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile Safari/537.36", DeviceMobile},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) Mobile/15E148", DeviceTablet},
		{"Mozilla/5.0 (Linux; Android 14; SM-X910) Tablet Safari/537.36", DeviceTablet},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0", DeviceDesktop},
		{"", DeviceDesktop},
	}

	for _, tc := range cases {
		t.Run(string(tc.want)+"/"+tc.ua, func(t *testing.T) {
			require.Equal(t, tc.want, DetectDeviceClass(tc.ua))
		})
	}
}

func TestVerificationTokenValidity(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	used := now.Add(-time.Minute)

	cases := []struct {
		name  string
		tok   VerificationToken
		valid bool
	}{
		{"live token", VerificationToken{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", VerificationToken{ExpiresAt: now.Add(-time.Second)}, false},
		{"expires exactly now", VerificationToken{ExpiresAt: now}, false},
		{"already used", VerificationToken{ExpiresAt: now.Add(time.Hour), UsedAt: &used}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.valid, tc.tok.IsValid(now))
		})
	}
}

func TestUserAge(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	t.Run("no date of birth", func(t *testing.T) {
		u := User{}
		require.Equal(t, -1, u.Age(now))
	})

	t.Run("birthday already passed this year", func(t *testing.T) {
		dob := time.Date(2010, 3, 1, 0, 0, 0, 0, time.UTC)
		u := User{DateOfBirth: &dob}
		require.Equal(t, 15, u.Age(now))
	})

	t.Run("birthday still ahead this year", func(t *testing.T) {
		dob := time.Date(2010, 9, 1, 0, 0, 0, 0, time.UTC)
		u := User{DateOfBirth: &dob}
		require.Equal(t, 14, u.Age(now))
	})

	t.Run("birthday today", func(t *testing.T) {
		dob := time.Date(2012, 6, 15, 0, 0, 0, 0, time.UTC)
		u := User{DateOfBirth: &dob}
		require.Equal(t, 13, u.Age(now))
	})
}

func TestGoogleProviderNormalize(t *testing.T) {
	t.Parallel()

	profile, err := GoogleProvider{}.Normalize(map[string]any{
		"id":      "g-123",
		"name":    "Alice Example",
		"picture": "https://example.com/alice.png",
	})
	require.NoError(t, err)
	require.Equal(t, ExternalProfile{
		DisplayName: "Alice Example",
		AvatarURL:   "https://example.com/alice.png",
		ExternalID:  "g-123",
	}, profile)

	_, err = GoogleProvider{}.Normalize(map[string]any{"name": "no id"})
	require.ErrorIs(t, err, ErrProviderPayload)
}

func TestDiscordProviderNormalize(t *testing.T) {
	t.Parallel()

	t.Run("legacy discriminator", func(t *testing.T) {
		profile, err := DiscordProvider{}.Normalize(map[string]any{
			"id":            "d-42",
			"username":      "bob",
			"discriminator": "1234",
			"avatar":        "abcdef",
		})
		require.NoError(t, err)
		require.Equal(t, "bob#1234", profile.DisplayName)
		require.Equal(t, "https://cdn.discordapp.com/avatars/d-42/abcdef.png", profile.AvatarURL)
		require.Equal(t, "d-42", profile.ExternalID)
	})

	t.Run("pomelo username without discriminator", func(t *testing.T) {
		profile, err := DiscordProvider{}.Normalize(map[string]any{
			"id":            "d-43",
			"username":      "carol",
			"discriminator": "0",
		})
		require.NoError(t, err)
		require.Equal(t, "carol", profile.DisplayName)
		require.Empty(t, profile.AvatarURL)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := DiscordProvider{}.Normalize(map[string]any{"username": "x"})
		require.ErrorIs(t, err, ErrProviderPayload)
	})
}

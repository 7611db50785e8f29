package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := GenerateToken(0)
		require.Error(t, err)
		_, err = GenerateToken(-1)
		require.Error(t, err)
	})

	t.Run("produces unique url-safe values", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 100 {
			tok, err := GenerateToken(TokenSize256)
			require.NoError(t, err)
			require.Len(t, tok, 43) // 32 bytes base64url, no padding
			require.NotContains(t, tok, "+")
			require.NotContains(t, tok, "/")
			require.NotContains(t, tok, "=")

			_, dup := seen[tok]
			require.False(t, dup, "token collision")
			seen[tok] = struct{}{}
		}
	})
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	fp1 := FingerprintToken("some-token")
	fp2 := FingerprintToken("some-token")
	require.Equal(t, fp1, fp2)
	require.Len(t, fp1, 43)

	require.NotEqual(t, fp1, FingerprintToken("other-token"))
}

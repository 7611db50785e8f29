package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	t.Parallel()

	seenDigits := make(map[byte]struct{})
	for range 200 {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, OTPDigits)
		for i := 0; i < len(code); i++ {
			require.GreaterOrEqual(t, code[i], byte('0'))
			require.LessOrEqual(t, code[i], byte('9'))
			seenDigits[code[i]] = struct{}{}
		}
	}

	// 1200 digit draws should cover the whole alphabet; a stuck generator
	// would not.
	require.Len(t, seenDigits, 10)
}

func TestVerifyOTPHash(t *testing.T) {
	t.Parallel()

	digest := HashOTP("123456")

	t.Run("matches correct code", func(t *testing.T) {
		require.True(t, VerifyOTPHash("123456", digest))
	})

	t.Run("rejects wrong code", func(t *testing.T) {
		require.False(t, VerifyOTPHash("654321", digest))
	})

	t.Run("fails closed on empty inputs", func(t *testing.T) {
		require.False(t, VerifyOTPHash("", digest))
		require.False(t, VerifyOTPHash("123456", ""))
		require.False(t, VerifyOTPHash("", ""))
	})
}

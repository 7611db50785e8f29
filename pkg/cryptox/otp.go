package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// OTPDigits is the length of generated one-time codes.
const OTPDigits = 6

// GenerateOTP returns a 6-digit numeric one-time code. Each digit is drawn
// uniformly from crypto/rand via rejection sampling, so no digit position is
// biased.
func GenerateOTP() (string, error) {
	code := make([]byte, OTPDigits)
	buf := make([]byte, 1)
	for i := 0; i < OTPDigits; {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate otp digit: %w", err)
		}
		// Reject values that would bias the modulo. 250 is the largest
		// multiple of 10 that fits in a byte.
		if buf[0] >= 250 {
			continue
		}
		code[i] = '0' + buf[0]%10
		i++
	}
	return string(code), nil
}

// HashOTP returns the hex SHA-256 digest of a one-time code. Only digests are
// ever persisted.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// VerifyOTPHash compares a submitted code against a stored digest in constant
// time.
func VerifyOTPHash(submitted, storedDigest string) bool {
	if submitted == "" || storedDigest == "" {
		return false
	}
	computed := HashOTP(submitted)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedDigest)) == 1
}

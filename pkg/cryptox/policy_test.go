package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordPolicyValidate(t *testing.T) {
	t.Parallel()

	policy := DefaultPasswordPolicy()

	cases := []struct {
		name     string
		password string
		ok       bool
		reasons  []string
	}{
		{"strong password", "Str0ng!Pass", true, nil},
		{"too short", "a1!", false, []string{"too_short"}},
		{"missing digit", "Password!", false, []string{"missing_digit"}},
		{"missing symbol", "Password1", false, []string{"missing_symbol"}},
		{"missing letter", "12345678!", false, []string{"missing_letter"}},
		{"everything wrong", "        ", false, []string{"missing_letter", "missing_digit", "missing_symbol"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reasons := policy.Validate(tc.password)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.reasons, reasons)
		})
	}
}

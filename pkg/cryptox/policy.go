package cryptox

import "unicode"

// PasswordPolicy describes the character-class requirements enforced at
// signup and password reset.
type PasswordPolicy struct {
	MinLength     int
	RequireLetter bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPasswordPolicy requires at least 8 characters with letters, digits
// and symbols.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:     8,
		RequireLetter: true,
		RequireDigit:  true,
		RequireSymbol: true,
	}
}

// Validate reports whether s satisfies the policy, with machine-readable
// reasons for each unmet requirement.
func (p PasswordPolicy) Validate(s string) (ok bool, reasons []string) {
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, "too_short")
	}

	var hasLetter, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	if p.RequireLetter && !hasLetter {
		reasons = append(reasons, "missing_letter")
	}
	if p.RequireDigit && !hasDigit {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !hasSymbol {
		reasons = append(reasons, "missing_symbol")
	}

	return len(reasons) == 0, reasons
}

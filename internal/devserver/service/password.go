package service

import "unicode/utf8"

const PasswordRules = "8+ characters, 1 uppercase, 1 lowercase, 1 digit, 1 special"

// ValidPassword applies PasswordRules. Anything that is not an ASCII
// letter or digit counts as special.
func ValidPassword(raw string) bool {
	if utf8.RuneCountInString(raw) < 8 {
		return false
	}

	var lower, upper, digit, special bool
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	return lower && upper && digit && special
}

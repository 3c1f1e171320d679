package auth

import "strings"

// NormalizePhone canonicalizes Korean mobile numbers to E.164. Accepts
// "01012345678", "010-1234-5678", "+821012345678" and "8210...".
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')':
			// separators and the leading plus are dropped
		default:
			return "", ErrInvalidInput
		}
	}

	s := digits.String()
	switch {
	case strings.HasPrefix(s, "010") && len(s) == 11:
		return "+82" + s[1:], nil
	case strings.HasPrefix(s, "8210") && len(s) == 12:
		return "+" + s, nil
	default:
		return "", ErrInvalidInput
	}
}

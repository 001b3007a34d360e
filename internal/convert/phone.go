// Package convert turns raw export cells into the canonical values written
// to CRM fields.
package convert

import "strings"

// USPhone canonicalizes a US phone number to +1 followed by ten digits.
// Ten digits, or eleven starting with 1, are accepted; anything else is
// reported as not convertible.
func USPhone(raw string) (string, bool) {
	digits := digitsOnly(raw)
	switch {
	case len(digits) == 10:
		return "+1" + digits, true
	case len(digits) == 11 && digits[0] == '1':
		return "+1" + digits[1:], true
	default:
		return "", false
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

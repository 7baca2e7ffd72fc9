// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "NL"

// Digits returns only the ASCII digits of input.
func Digits(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HasOnlyDialChars reports whether input contains nothing but digits,
// spaces, and the separators + - ( ).
func HasOnlyDialChars(input string) bool {
	for _, r := range input {
		switch {
		case r >= '0' && r <= '9':
		case r == '+' || r == '-' || r == '(' || r == ')':
		case unicode.IsSpace(r):
		default:
			return false
		}
	}
	return true
}

// NormalizeE164 formats a phone number to E.164 using region for numbers
// without a country prefix. If parsing fails, it returns "+" followed by the
// bare digits so the result is still stable for the same input.
func NormalizeE164(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}
	if region == "" {
		region = DefaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return "+" + Digits(trimmed)
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

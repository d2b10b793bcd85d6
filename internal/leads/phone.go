package leads

import "strings"

// NormalizeE164 converts a free-form US phone string to E.164. A 10-digit
// number gets a +1 prefix, an 11-digit number starting with 1 gets a plus.
// Returns false when the input has no digits at all.
func NormalizeE164(value string) (string, bool) {
	digits := DigitsOnly(value)
	if digits == "" {
		return "", false
	}
	switch {
	case len(digits) == 10:
		return "+1" + digits, true
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits, true
	default:
		return "+" + digits, true
	}
}

// FirstName returns the first space-delimited token of a full name, or the
// fallback when the name is blank.
func FirstName(fullName, fallback string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return fallback
	}
	return fields[0]
}

// SplitName breaks a full name into first and last tokens. An empty name
// yields the fallback as first name with no last name.
func SplitName(fullName, fallback string) (first, last string) {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return fallback, ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// RedactPhone masks all but the last four digits for log output.
func RedactPhone(value string) string {
	digits := DigitsOnly(value)
	if len(digits) <= 4 {
		return value
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

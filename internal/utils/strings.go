package utils

import (
	"strings"
	"unicode"
)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips formatting from a phone number, keeping a leading
// +. Pakistani local numbers (03xx...) and 0092 prefixes are rewritten to
// the +92 form the backend stores.
func NormalizePhone(phone string) string {
	cleaned := strings.TrimSpace(phone)
	if cleaned == "" {
		return ""
	}

	var b strings.Builder
	for i, r := range cleaned {
		if i == 0 && r == '+' {
			b.WriteRune(r)
		} else if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()

	switch {
	case strings.HasPrefix(out, "0092"):
		return "+92" + out[4:]
	case strings.HasPrefix(out, "03") && len(out) == 11:
		return "+92" + out[1:]
	}
	return out
}

// IsValidEmail is a shape check only: one @, a non-empty local part and a
// dotted domain.
func IsValidEmail(email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" || strings.ContainsAny(normalized, " \t") {
		return false
	}

	parts := strings.Split(normalized, "@")
	if len(parts) != 2 {
		return false
	}
	local, domain := parts[0], parts[1]
	return len(local) > 0 && len(domain) > 2 && strings.Contains(domain, ".") &&
		!strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// IsValidPhone accepts 7 to 15 digits after normalization, with or without
// a leading +.
func IsValidPhone(phone string) bool {
	digits := strings.TrimPrefix(NormalizePhone(phone), "+")
	return len(digits) >= 7 && len(digits) <= 15
}

// MaskPhone keeps the last four digits, for logs.
func MaskPhone(phone string) string {
	n := NormalizePhone(phone)
	if len(n) <= 4 {
		return n
	}
	return strings.Repeat("*", len(n)-4) + n[len(n)-4:]
}

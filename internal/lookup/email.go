package lookup

import (
	"regexp"
	"strings"

	"taskboard/internal/apperr"
)

const (
	MsgEmailRequired = "Email is required"
	MsgInvalidEmail  = "Invalid email format"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail validates a decoded JSON value as an email address and
// returns it trimmed and lowercased. Non-string and empty values are
// reported as missing.
func NormalizeEmail(v any) (string, error) {
	raw, ok := v.(string)
	if !ok || raw == "" {
		return "", apperr.Validation(MsgEmailRequired)
	}
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(email) {
		return "", apperr.Validation(MsgInvalidEmail)
	}
	return email, nil
}

// ValidEmail reports whether s is an acceptable address after normalization.
func ValidEmail(s string) bool {
	_, err := NormalizeEmail(s)
	return err == nil
}

// Package contact checks the phone and email formats stored on people.
package contact

import (
	"regexp"
	"strings"
)

var (
	phonePattern = regexp.MustCompile(`^(\+\d{1,2}\s?)?(\(\d{3}\)|\d{3})[\s.-]?\d{3}[\s.-]?\d{4}$`)
	emailPattern = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
)

// IsPhone accepts ten-digit numbers with an optional one or two digit
// country code, e.g. "+1 (555) 123-4567" or "555.123.4567".
func IsPhone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

// IsEmail accepts addresses of the form name@host.tld with a two or three
// letter final label.
func IsEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// IsPhoneOrEmail reports whether s is either a phone number or an email.
func IsPhoneOrEmail(s string) bool {
	return IsPhone(s) || IsEmail(s)
}

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Package email normalizes and validates borrower email addresses.
package email

import (
	"net/mail"
	"strings"
)

// Normalize trims surrounding whitespace. Case is preserved; comparisons that
// need case folding use Key.
func Normalize(address string) string {
	return strings.TrimSpace(address)
}

// Key returns a case-folded form suitable for deduplicating recipients.
func Key(address string) string {
	return strings.ToLower(Normalize(address))
}

// Valid reports whether address is a bare addr-spec ("a@b.c"), rejecting
// display-name forms like "Bob <bob@x.io>".
func Valid(address string) bool {
	address = Normalize(address)
	if address == "" {
		return false
	}
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return false
	}
	return parsed.Address == address && parsed.Name == ""
}

// Dedupe trims each address, drops blanks, and removes case-insensitive
// duplicates while preserving first-seen order and spelling.
func Dedupe(addresses []string) []string {
	if len(addresses) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		a = Normalize(a)
		if a == "" {
			continue
		}
		k := Key(a)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}

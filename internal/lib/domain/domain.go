package domain

import (
	"strings"
)

// Extract returns the lowercased domain part of an email address.
func Extract(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[i+1:])
}

// IsAllowed checks an email against the signup domain restriction.
// Matching is by suffix: user@sub.acme.com passes for acme.com,
// user@acme.com.br does not. Restriction off or an empty list allows all.
func IsAllowed(email string, allowedDomains []string, restrictionEnabled bool) bool {
	if !restrictionEnabled {
		return true
	}
	if len(allowedDomains) == 0 {
		return true
	}

	d := Extract(email)
	if d == "" {
		return false
	}

	for _, allowed := range allowedDomains {
		a := strings.ToLower(allowed)
		if d == a || strings.HasSuffix(d, "."+a) {
			return true
		}
	}
	return false
}

// Package redact masks personal data before it reaches the logs.
package redact

import "strings"

// Email keeps the first two characters of the local part and the domain:
// "alice@example.com" becomes "al***@example.com".
func Email(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "***"
	}

	if len(local) > 2 {
		local = local[:2] + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Emails applies Email to every element.
func Emails(list []string) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = Email(e)
	}
	return out
}

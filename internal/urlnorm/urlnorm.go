// Package urlnorm canonicalizes apply URLs so every dedup lookup and every
// insert agrees on one key per posting.
package urlnorm

import (
	"net/url"
	"regexp"
	"strings"
)

// formSuffix matches ATS form endpoints that hang off the description page.
var formSuffix = regexp.MustCompile(`(?i)/(apply|login|autofill|useMyLastApplication)(/.*)?$`)

// CanonicalizeApplyURL strips fragments, query strings and form-endpoint
// suffixes. The result is stable: canonicalizing it again is a no-op.
// Unparseable input is returned trimmed but otherwise untouched.
func CanonicalizeApplyURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return stripSuffix(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	path := u.EscapedPath()
	path = formSuffix.ReplaceAllString(path, "")
	path = strings.TrimRight(path, "/")

	out := u.Scheme + "://" + u.Host + path
	if u.User != nil {
		out = u.Scheme + "://" + u.User.String() + "@" + u.Host + path
	}
	return out
}

func stripSuffix(s string) string {
	if i := strings.IndexAny(s, "#?"); i >= 0 {
		s = s[:i]
	}
	s = formSuffix.ReplaceAllString(s, "")
	return strings.TrimRight(s, "/")
}

// Host returns the lowercased hostname of raw without any port, or "" when
// raw does not parse as an absolute URL.
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

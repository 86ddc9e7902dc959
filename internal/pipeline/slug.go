package pipeline

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 80

var (
	nonSlug       = regexp.MustCompile(`[^a-z0-9]+`)
	companySuffix = regexp.MustCompile(`(?i)[\s,]+(inc|llc|ltd|limited|corp|corporation|co|gmbh|plc|s\.?a|ag|bv|pty)\.?$`)
)

// fold strips diacritics: "Société Générale" -> "Societe Generale".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify builds the URL slug "<title>-at-<company>". Collisions are
// resolved by the store.
func Slugify(title, company string) string {
	s := strings.ToLower(fold(title))
	if c := strings.TrimSpace(company); c != "" {
		s += " at " + strings.ToLower(fold(c))
	}
	s = strings.Trim(nonSlug.ReplaceAllString(s, "-"), "-")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
		if i := strings.LastIndex(s, "-"); i > maxSlugLen/2 {
			s = s[:i]
		}
		s = strings.Trim(s, "-")
	}
	if s == "" {
		return "posting"
	}
	return s
}

// LogoURL guesses a logo for company from its name: "Acme Corp" resolves to
// the favicon of acme.com.
func LogoURL(company string) string {
	name := strings.TrimSpace(fold(company))
	for {
		trimmed := companySuffix.ReplaceAllString(name, "")
		if trimmed == name {
			break
		}
		name = trimmed
	}
	domain := nonSlug.ReplaceAllString(strings.ToLower(name), "")
	if domain == "" {
		return ""
	}
	return "https://www.google.com/s2/favicons?sz=128&domain=" + url.QueryEscape(domain+".com")
}

package assemble

import (
	"regexp"
	"strings"
)

var (
	postcodeRe   = regexp.MustCompile(`^[A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizePostcode upper-cases a postcode and collapses inner whitespace.
func NormalizePostcode(s string) string {
	return whitespaceRe.ReplaceAllString(strings.ToUpper(strings.TrimSpace(s)), " ")
}

// ValidPostcode reports whether s looks like a full UK postcode.
func ValidPostcode(s string) bool {
	return postcodeRe.MatchString(NormalizePostcode(s))
}

// InRegion reports whether the postcode starts with one of the prefixes.
func InRegion(postcode string, prefixes []string) bool {
	pc := strings.ToUpper(postcode)
	for _, p := range prefixes {
		if strings.HasPrefix(pc, strings.ToUpper(p)) {
			return true
		}
	}
	return false
}

// Package contact extracts email addresses, phone numbers, and outbound
// links from venue web pages.
package contact

import (
	"regexp"
	"strings"
)

var (
	// assetAttrRe drops src/href attributes that point at images, scripts,
	// or stylesheets, so retina names like logo.png@2x never reach the
	// email pattern.
	assetAttrRe = regexp.MustCompile(`(?i)(src|href)=["'][^"']*\.(png|jpg|jpeg|gif|css|js)[^"']*["']`)
	// assetTokenRe drops bare asset filenames shaped like a@b-c.png.
	assetTokenRe = regexp.MustCompile(`(?i)\b\w+[-@]\w+[-@]\w+\.(png|jpg|jpeg|gif|css|js)\b`)

	emailRe = regexp.MustCompile(`\b[A-Za-z][A-Za-z0-9._%+-]*@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)

	strictEmailRe = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)
	fileLocalRe   = regexp.MustCompile(`\.(png|jpg|jpeg|gif|bmp|svg|ico|css|js|json|xml|html|htm|pdf|doc|docx|xls|xlsx|ppt|pptx|mp3|mp4|avi|mov|wav|zip|rar|tar|gz|7z)@`)
	hashLocalRe   = regexp.MustCompile(`^([a-f0-9]{32}|[a-f0-9]{40})@`)
)

// at-sign encodings seen in embedded scripts and JSON. The double-escaped
// form must come first.
var unescaper = strings.NewReplacer(
	`\\u0040`, "@",
	`\u0040`, "@",
	"%40", "@",
	"&#64;", "@",
	"&#x40;", "@",
)

// Placeholder and tooling domains that show up in page source but are
// never a venue's address. Matched anywhere in the address.
var placeholderDomains = []string{
	"example.com", "email.com", "domain.com", "sentry.io", "cloudflare",
	"googleapis", "gstatic", "schema.org", "fontawesome", "w3.org", "localhost",
}

var robotPrefixes = []string{"noreply@", "no-reply@", "donotreply@", "mailer-daemon@"}

// ExtractEmails returns the plausible addresses in html, lowercased and
// deduplicated in first-seen order.
func ExtractEmails(html string) []string {
	cleaned := assetAttrRe.ReplaceAllString(html, "")
	cleaned = assetTokenRe.ReplaceAllString(cleaned, "")
	unescaped := unescaper.Replace(cleaned)

	var out []string
	seen := make(map[string]struct{})
	for _, src := range []string{cleaned, unescaped} {
		for _, m := range emailRe.FindAllString(src, -1) {
			if !IsValidEmail(m) {
				continue
			}
			e := strings.ToLower(m)
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	return out
}

// IsValidEmail applies the rejection rules to a single candidate.
func IsValidEmail(email string) bool {
	if len(email) < 6 || len(email) > 100 {
		return false
	}
	lower := strings.ToLower(email)
	if fileLocalRe.MatchString(lower) || hashLocalRe.MatchString(lower) {
		return false
	}
	for _, d := range placeholderDomains {
		if strings.Contains(lower, d) {
			return false
		}
	}
	for _, p := range robotPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	return strictEmailRe.MatchString(email)
}

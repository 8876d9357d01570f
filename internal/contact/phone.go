package contact

import (
	"regexp"
	"strings"
)

var phonePatterns = []*regexp.Regexp{
	// landline: 01xxx / 02x area codes
	regexp.MustCompile(`\b0[12]\d{1,3}[\s\-.]?\d{3,4}[\s\-.]?\d{3,4}\b`),
	// mobile
	regexp.MustCompile(`\b07\d{3}[\s\-.]?\d{6}\b`),
	// non-geographic 03xx / 08xx
	regexp.MustCompile(`\b0[38]\d{2}[\s\-.]?\d{3}[\s\-.]?\d{4}\b`),
	regexp.MustCompile(`\+44[\s\-.]?[1-9]\d{1,2}[\s\-.]?\d{3,4}[\s\-.]?\d{3,4}\b`),
	regexp.MustCompile(`\(\d{4,5}\)[\s\-.]?\d{6,7}`),
}

var phoneNoise = strings.NewReplacer(" ", "", "\t", "", "\n", "", "\r", "", "\f", "", "-", "", ".", "", "(", "", ")", "")

// NormalizePhone strips whitespace and punctuation. It reports false when
// the result is not 10 to 13 characters long.
func NormalizePhone(s string) (string, bool) {
	n := phoneNoise.Replace(s)
	return n, len(n) >= 10 && len(n) <= 13
}

// ExtractPhones returns the UK phone numbers in html, normalized and
// deduplicated. Numbers matched by an earlier pattern come first.
func ExtractPhones(html string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, re := range phonePatterns {
		for _, m := range re.FindAllString(html, -1) {
			n, ok := NormalizePhone(m)
			if !ok {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

package venuefile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sells-group/venue-cli/internal/contact"
	"github.com/sells-group/venue-cli/internal/model"
)

// Coverage summarizes how far enrichment has got on a venue list.
type Coverage struct {
	Total       int            `json:"total"`
	WithWebsite int            `json:"with_website"`
	WithEmail   int            `json:"with_email"`
	WithPhone   int            `json:"with_phone"`
	Statuses    map[string]int `json:"statuses"`
	// Suspect lists found emails that fail the address rules, such as
	// asset filenames left over from older runs.
	Suspect []string `json:"suspect,omitempty"`
}

// Measure computes coverage for venues.
func Measure(venues []model.Venue) Coverage {
	c := Coverage{Total: len(venues), Statuses: make(map[string]int)}
	for _, v := range venues {
		if v.Website != "" {
			c.WithWebsite++
		}
		if v.EmailFound != "" || v.Email != "" {
			c.WithEmail++
		}
		if v.PhoneFound != "" {
			c.WithPhone++
		}
		if v.ExtractionStatus != "" {
			c.Statuses[string(v.ExtractionStatus)]++
		}
		for _, e := range []string{v.EmailFound, v.Email} {
			if e != "" && !contact.IsValidEmail(e) {
				c.Suspect = append(c.Suspect, e)
			}
		}
	}
	return c
}

// String renders the report as aligned text.
func (c Coverage) String() string {
	pct := func(n int) float64 {
		if c.Total == 0 {
			return 0
		}
		return float64(n) / float64(c.Total) * 100
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total venues:  %d\n", c.Total)
	fmt.Fprintf(&b, "With website:  %d (%.1f%%)\n", c.WithWebsite, pct(c.WithWebsite))
	fmt.Fprintf(&b, "With email:    %d (%.1f%%)\n", c.WithEmail, pct(c.WithEmail))
	fmt.Fprintf(&b, "With phone:    %d (%.1f%%)\n", c.WithPhone, pct(c.WithPhone))

	if len(c.Statuses) > 0 {
		keys := make([]string, 0, len(c.Statuses))
		for k := range c.Statuses {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Extraction status:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  %-12s %d\n", k, c.Statuses[k])
		}
	}
	if len(c.Suspect) > 0 {
		fmt.Fprintf(&b, "Suspect emails: %d\n", len(c.Suspect))
		for _, e := range c.Suspect {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}
	return b.String()
}

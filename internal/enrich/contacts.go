package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/venue-cli/internal/contact"
	"github.com/sells-group/venue-cli/internal/filter"
	"github.com/sells-group/venue-cli/internal/metrics"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/scrape"
)

const maxAdditional = 3

// PageFetcher fetches a venue website with retries.
type PageFetcher interface {
	FetchWithRetry(ctx context.Context, rawURL string) (*scrape.Result, string, error)
	Attempts() int
}

// ContactDriver scrapes venue websites for emails and phone numbers.
type ContactDriver struct {
	fetcher PageFetcher
	stats   *filter.Stats
	now     func() time.Time
}

// ContactOption configures a ContactDriver.
type ContactOption func(*ContactDriver)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ContactOption {
	return func(d *ContactDriver) { d.now = now }
}

// NewContactDriver creates a ContactDriver.
func NewContactDriver(f PageFetcher, stats *filter.Stats, opts ...ContactOption) *ContactDriver {
	d := &ContactDriver{fetcher: f, stats: stats, now: time.Now}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Stage implements Driver.
func (d *ContactDriver) Stage() model.Stage { return model.StageContacts }

// Select drops venues that already have an email, then runs the filter
// checks. Filtered venues are marked skipped with the reason.
func (d *ContactDriver) Select(venues []model.Venue) ([]int, int) {
	var out []int
	skipped := 0
	for i := range venues {
		v := &venues[i]
		if v.Email != "" || v.EmailFound != "" {
			continue
		}
		if d.stats != nil {
			if keep, reason := d.stats.Check(*v); !keep {
				d.markSkipped(v, reason)
				skipped++
				continue
			}
		}
		out = append(out, i)
	}
	return out, skipped
}

func (d *ContactDriver) markSkipped(v *model.Venue, reason string) {
	resetContact(v)
	v.ExtractionStatus = model.ExtractionSkipped
	v.ExtractionNotes = reason
	v.ExtractionTimestamp = d.now().Format(time.RFC3339)
}

// Process implements Driver.
func (d *ContactDriver) Process(ctx context.Context, v *model.Venue) (Outcome, error) {
	resetContact(v)
	v.ExtractionTimestamp = d.now().Format(time.RFC3339)

	start := d.now()
	res, method, err := d.fetcher.FetchWithRetry(ctx, v.Website)
	elapsed := d.now().Sub(start).Seconds()
	v.ExtractionMethod = method
	metrics.RecordFetch(method)

	if err != nil {
		if ctx.Err() != nil {
			return OutcomeFailed, ctx.Err()
		}
		v.ExtractionStatus = model.ExtractionFailed
		if errors.Is(err, scrape.ErrInvalidURL) {
			v.ExtractionNotes = "Invalid URL"
		} else {
			v.ExtractionNotes = fmt.Sprintf("Failed to fetch website after %d attempts", d.fetcher.Attempts())
		}
		return OutcomeFailed, nil
	}

	html := res.Page.HTML
	links := contact.ExtractLinks(html)
	emails := mergeUnique(contact.ExtractEmails(html), links.Emails)
	phones := mergeUnique(contact.ExtractPhones(html), links.Phones)

	v.EmailFound, v.AdditionalEmails = splitPrimary(emails)
	v.PhoneFound, v.AdditionalPhones = splitPrimary(phones)
	v.WebsiteActual = contact.ActualWebsite(v.Website, html)

	if v.HasContact() {
		v.ExtractionStatus = model.ExtractionSuccess
		v.ExtractionNotes = fmt.Sprintf("Found %d emails, %d phones in %.1fs", len(emails), len(phones), elapsed)
		return OutcomeFound, nil
	}
	v.ExtractionStatus = model.ExtractionNoContact
	v.ExtractionNotes = fmt.Sprintf("No valid contact information found in %.1fs", elapsed)
	return OutcomeNotFound, nil
}

func resetContact(v *model.Venue) {
	v.EmailFound = ""
	v.PhoneFound = ""
	v.AdditionalEmails = ""
	v.AdditionalPhones = ""
	v.WebsiteActual = ""
	v.ExtractionStatus = ""
	v.ExtractionNotes = ""
	v.ExtractionMethod = ""
}

// splitPrimary returns the first value and up to three more joined by ";".
func splitPrimary(values []string) (string, string) {
	if len(values) == 0 {
		return "", ""
	}
	rest := values[1:]
	if len(rest) > maxAdditional {
		rest = rest[:maxAdditional]
	}
	return values[0], strings.Join(rest, ";")
}

func mergeUnique(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

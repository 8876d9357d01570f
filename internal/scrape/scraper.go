// Package scrape fetches venue web pages for contact extraction, falling
// back from the Web Unlocker API to direct HTTP.
package scrape

import (
	"context"
)

// Fetch methods recorded on a venue.
const (
	MethodUnlocker   = "unlocker"
	MethodDirect     = "direct_http"
	MethodInvalidURL = "invalid_url"
	MethodAllFailed  = "all_failed"
)

// minPageBytes is the smallest body treated as a real page.
const minPageBytes = 100

// Page is a fetched HTML document.
type Page struct {
	URL        string
	HTML       string
	StatusCode int
}

// Result holds a fetched page with the method that produced it.
type Result struct {
	Page   Page
	Source string
}

// Scraper fetches a single URL and returns its HTML.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
}

package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/venue-cli/internal/resilience"
)

// Web Unlocker defaults.
const (
	DefaultUnlockerURL  = "https://api.brightdata.com/request"
	DefaultUnlockerZone = "mcp_unlocker"
)

// UnlockerScraper fetches pages through the Bright Data Web Unlocker API,
// which handles anti-bot measures on the provider side.
type UnlockerScraper struct {
	apiKey   string
	zone     string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// UnlockerOption configures an UnlockerScraper.
type UnlockerOption func(*UnlockerScraper)

// WithUnlockerEndpoint overrides the API endpoint.
func WithUnlockerEndpoint(u string) UnlockerOption {
	return func(s *UnlockerScraper) { s.endpoint = u }
}

// WithUnlockerZone sets the zone name.
func WithUnlockerZone(zone string) UnlockerOption {
	return func(s *UnlockerScraper) { s.zone = zone }
}

// WithUnlockerTimeout sets the per-request timeout.
func WithUnlockerTimeout(d time.Duration) UnlockerOption {
	return func(s *UnlockerScraper) { s.client.Timeout = d }
}

// WithUnlockerInterval sets the minimum spacing between requests. Zero
// disables throttling.
func WithUnlockerInterval(d time.Duration) UnlockerOption {
	return func(s *UnlockerScraper) {
		if d > 0 {
			s.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			s.limiter = nil
		}
	}
}

// NewUnlockerScraper creates a scraper for the given API key.
func NewUnlockerScraper(apiKey string, opts ...UnlockerOption) *UnlockerScraper {
	s := &UnlockerScraper{
		apiKey:   apiKey,
		zone:     DefaultUnlockerZone,
		endpoint: DefaultUnlockerURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Name implements Scraper.
func (s *UnlockerScraper) Name() string { return MethodUnlocker }

type unlockerRequest struct {
	Zone   string `json:"zone"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// Scrape implements Scraper.
func (s *UnlockerScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "unlocker: rate limit")
		}
	}

	payload, err := json.Marshal(unlockerRequest{Zone: s.zone, URL: targetURL, Format: "raw"})
	if err != nil {
		return nil, eris.Wrap(err, "unlocker: marshal request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "unlocker: create request")
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "unlocker: send request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, eris.Wrap(err, "unlocker: read body")
	}
	if err := resilience.CheckStatus("unlocker", resp, body); err != nil {
		return nil, err
	}
	if len(body) <= minPageBytes {
		return nil, eris.New("unlocker: empty page")
	}

	return &Result{
		Page:   Page{URL: targetURL, HTML: string(body), StatusCode: resp.StatusCode},
		Source: MethodUnlocker,
	}, nil
}

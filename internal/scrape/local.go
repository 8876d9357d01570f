package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	directUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	maxPageBytes    = 2 << 20
)

// DirectScraper fetches HTML with a plain GET and rejects block pages.
type DirectScraper struct {
	client *http.Client
}

// NewDirectScraper creates a DirectScraper with the given request timeout.
func NewDirectScraper(timeout time.Duration) *DirectScraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DirectScraper{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// Name implements Scraper.
func (d *DirectScraper) Name() string { return MethodDirect }

// Scrape implements Scraper.
func (d *DirectScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "direct_http: create request")
	}
	req.Header.Set("User-Agent", directUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "direct_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, eris.Wrap(err, "direct_http: read body")
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("direct_http: blocked (%s)", kind)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("direct_http: status %d", resp.StatusCode)
	}
	if len(body) <= minPageBytes {
		return nil, eris.New("direct_http: empty page")
	}

	return &Result{
		Page:   Page{URL: targetURL, HTML: string(body), StatusCode: resp.StatusCode},
		Source: MethodDirect,
	}, nil
}

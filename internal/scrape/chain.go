package scrape

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/resilience"
)

// Fetch errors.
var (
	ErrInvalidURL = eris.New("scrape: invalid url")
	ErrAllFailed  = eris.New("scrape: all attempts failed")
)

// Chain fetches a page through a primary scraper with a fallback. The
// fallback runs on every attempt when there is no primary, and from the
// second attempt on otherwise.
type Chain struct {
	primary  Scraper
	fallback Scraper
	attempts int
	sleep    resilience.SleepFunc
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithPrimary sets the scraper tried first on every attempt.
func WithPrimary(s Scraper) ChainOption {
	return func(c *Chain) { c.primary = s }
}

// WithAttempts sets the number of attempts per URL.
func WithAttempts(n int) ChainOption {
	return func(c *Chain) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithSleep replaces the backoff sleep, mainly for tests.
func WithSleep(fn resilience.SleepFunc) ChainOption {
	return func(c *Chain) { c.sleep = fn }
}

// NewChain creates a chain around the fallback scraper.
func NewChain(fallback Scraper, opts ...ChainOption) *Chain {
	c := &Chain{
		fallback: fallback,
		attempts: 2,
		sleep:    resilience.Sleep,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Attempts returns the configured attempt count.
func (c *Chain) Attempts() int { return c.attempts }

// FetchWithRetry fetches rawURL, sleeping 2^attempt seconds between
// attempts. It always returns the method to record: the scraper that
// succeeded, MethodInvalidURL, or MethodAllFailed.
func (c *Chain) FetchWithRetry(ctx context.Context, rawURL string) (*Result, string, error) {
	target, ok := NormalizeURL(rawURL)
	if !ok {
		return nil, MethodInvalidURL, ErrInvalidURL
	}

	for attempt := range c.attempts {
		if c.primary != nil {
			if res, err := c.try(ctx, c.primary, target, attempt); err == nil {
				return res, res.Source, nil
			}
		}
		if c.fallback != nil && (c.primary == nil || attempt > 0) {
			if res, err := c.try(ctx, c.fallback, target, attempt); err == nil {
				return res, res.Source, nil
			}
		}

		if ctx.Err() != nil {
			return nil, MethodAllFailed, ctx.Err()
		}
		if attempt < c.attempts-1 {
			if err := c.sleep(ctx, time.Duration(1<<attempt)*time.Second); err != nil {
				return nil, MethodAllFailed, err
			}
		}
	}
	return nil, MethodAllFailed, ErrAllFailed
}

func (c *Chain) try(ctx context.Context, s Scraper, target string, attempt int) (*Result, error) {
	res, err := s.Scrape(ctx, target)
	if err == nil && res != nil {
		return res, nil
	}
	if err == nil {
		err = eris.New("scrape: no result")
	}
	zap.L().Debug("scrape: attempt failed",
		zap.String("scraper", s.Name()),
		zap.String("url", target),
		zap.Int("attempt", attempt+1),
		zap.Error(err),
	)
	return nil, err
}

// NormalizeURL trims rawURL and adds an http scheme when it has none. It
// reports false for blank or unparseable input.
func NormalizeURL(rawURL string) (string, bool) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", false
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}
	return u.String(), true
}

// Package overpass queries OpenStreetMap through the public Overpass API
// mirrors, failing over between them.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultServers lists the public mirrors in preference order.
var DefaultServers = []string{
	"https://overpass.kumi.systems/api/interpreter",
	"https://overpass-api.de/api/interpreter",
	"https://overpass.openstreetmap.ru/api/interpreter",
	"https://overpass.openstreetmap.fr/api/interpreter",
}

// ErrAllServersFailed is returned when no mirror produced a response.
var ErrAllServersFailed = eris.New("overpass: all servers failed")

// ExhaustedError carries the first few per-server failures.
type ExhaustedError struct {
	Errors []string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("overpass: all servers failed: %v", e.Errors)
}

// Is matches ErrAllServersFailed.
func (e *ExhaustedError) Is(target error) bool { return target == ErrAllServersFailed }

// Element is one node, way, or relation in a response.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *Center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

// Center is the computed centre of a way or relation.
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Position returns the element's coordinates, preferring its own over the
// computed centre.
func (e Element) Position() (float64, float64) {
	if e.Lat != 0 || e.Lon != 0 || e.Center == nil {
		return e.Lat, e.Lon
	}
	return e.Center.Lat, e.Center.Lon
}

// Response is the decoded JSON body of a query.
type Response struct {
	Elements []Element `json:"elements"`
}

// Client sends Overpass QL queries. Servers that fail at the connection
// level are skipped for the rest of the client's lifetime.
type Client struct {
	servers     []string
	http        *http.Client
	userAgent   string
	maxRetries  int
	retryDelay  time.Duration
	minInterval time.Duration
	sleep       func(context.Context, time.Duration) error

	mu       sync.Mutex
	failed   map[string]bool
	limiters map[string]*rate.Limiter
	requests int
}

// Option configures a Client.
type Option func(*Client)

// WithServers overrides the mirror list.
func WithServers(servers ...string) Option {
	return func(c *Client) {
		if len(servers) > 0 {
			c.servers = servers
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithMaxRetries sets the attempts per server.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithRetryDelay sets the base delay between attempts on one server.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithMinInterval sets the minimum spacing of requests to one server.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) { c.minInterval = d }
}

// WithSleep replaces the backoff sleep, mainly for tests.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(c *Client) { c.sleep = fn }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		servers:     DefaultServers,
		http:        &http.Client{Timeout: 30 * time.Second},
		userAgent:   "PubScraper/1.0",
		maxRetries:  2,
		retryDelay:  time.Second,
		minInterval: time.Second,
		sleep:       sleepCtx,
		failed:      make(map[string]bool),
		limiters:    make(map[string]*rate.Limiter),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FailedServers returns the servers marked dead so far.
func (c *Client) FailedServers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, s := range c.servers {
		if c.failed[s] {
			out = append(out, s)
		}
	}
	return out
}

// Requests returns how many HTTP requests the client has sent.
func (c *Client) Requests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

// Query runs an Overpass QL query against each live server in order.
func (c *Client) Query(ctx context.Context, ql string) (*Response, error) {
	var errs []string

	for _, server := range c.servers {
		if c.isFailed(server) {
			continue
		}

	attempts:
		for attempt := range c.maxRetries {
			if err := c.limiter(server).Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "overpass: rate limiter wait")
			}

			resp, err := c.do(ctx, server, ql)
			if err != nil {
				if ctx.Err() != nil {
					return nil, eris.Wrap(ctx.Err(), "overpass: query cancelled")
				}
				if isTimeout(err) {
					errs = append(errs, fmt.Sprintf("%s: timeout after %s", server, c.http.Timeout))
				} else {
					errs = append(errs, fmt.Sprintf("%s: connection error: %v", server, err))
					c.markFailed(server)
					zap.L().Warn("overpass: server unreachable, marking failed",
						zap.String("server", server),
						zap.Error(err),
					)
					break attempts
				}
			} else {
				switch {
				case resp.StatusCode == http.StatusOK:
					out, derr := decode(resp)
					if derr == nil {
						return out, nil
					}
					errs = append(errs, fmt.Sprintf("%s: %v", server, derr))
				case resp.StatusCode == http.StatusTooManyRequests:
					drain(resp)
					wait := time.Duration(math.Min(60, math.Pow(2, float64(attempt+2)))) * time.Second
					errs = append(errs, fmt.Sprintf("%s: rate limited", server))
					zap.L().Debug("overpass: rate limited", zap.String("server", server), zap.Duration("wait", wait))
					if err := c.sleep(ctx, wait); err != nil {
						return nil, eris.Wrap(err, "overpass: query cancelled")
					}
				case resp.StatusCode >= 500:
					drain(resp)
					errs = append(errs, fmt.Sprintf("%s: server error %d", server, resp.StatusCode))
					break attempts
				default:
					drain(resp)
					errs = append(errs, fmt.Sprintf("%s: http %d", server, resp.StatusCode))
				}
			}

			if attempt < c.maxRetries-1 {
				if err := c.sleep(ctx, c.retryDelay*time.Duration(attempt+1)); err != nil {
					return nil, eris.Wrap(err, "overpass: query cancelled")
				}
			}
		}
	}

	if len(errs) > 3 {
		errs = errs[:3]
	}
	zap.L().Warn("overpass: all servers failed", zap.Strings("errors", errs))
	return nil, &ExhaustedError{Errors: errs}
}

func (c *Client) do(ctx context.Context, server, ql string) (*http.Response, error) {
	u := server + "?" + url.Values{"data": {ql}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.mu.Lock()
	c.requests++
	c.mu.Unlock()

	return c.http.Do(req)
}

func (c *Client) isFailed(server string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed[server]
}

func (c *Client) markFailed(server string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed[server] = true
}

func (c *Client) limiter(server string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[server]
	if !ok {
		limit := rate.Inf
		if c.minInterval > 0 {
			limit = rate.Every(c.minInterval)
		}
		lim = rate.NewLimiter(limit, 1)
		c.limiters[server] = lim
	}
	return lim
}

func decode(resp *http.Response) (*Response, error) {
	defer resp.Body.Close() //nolint:errcheck
	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "overpass: decode response")
	}
	return &out, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

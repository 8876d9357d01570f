// Package hunter wraps the Hunter.io domain search and email verifier APIs.
package hunter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/venue-cli/internal/resilience"
)

const defaultBaseURL = "https://api.hunter.io/v2"

// Client defines the Hunter operations used by the email stage.
type Client interface {
	DomainSearch(ctx context.Context, domain string, limit int) (*DomainSearch, error)
	VerifyEmail(ctx context.Context, email string) (*Verification, error)
	Account(ctx context.Context) (*Account, error)
	CreditsUsed() int
}

// DomainSearch is the data block of a domain-search response.
type DomainSearch struct {
	Domain       string  `json:"domain"`
	Organization string  `json:"organization"`
	Emails       []Email `json:"emails"`
}

// Email is one address found for a domain.
type Email struct {
	Value      string `json:"value"`
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
}

// Verification is the data block of an email-verifier response.
type Verification struct {
	Email  string `json:"email"`
	Result string `json:"result"`
	Status string `json:"status"`
	Score  int    `json:"score"`
}

// Account is the data block of an account response.
type Account struct {
	Email    string   `json:"email"`
	PlanName string   `json:"plan_name"`
	Requests Requests `json:"requests"`
}

// Requests reports quota usage.
type Requests struct {
	Searches      Quota `json:"searches"`
	Verifications Quota `json:"verifications"`
}

// Quota is a used/available pair.
type Quota struct {
	Used      int `json:"used"`
	Available int `json:"available"`
}

// ClientOption configures the client.
type ClientOption func(*httpClient)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *httpClient) { c.http = hc }
}

// WithDelay spaces calls at least d apart. Zero disables throttling.
func WithDelay(d time.Duration) ClientOption {
	return func(c *httpClient) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) ClientOption {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	credits atomic.Int64
}

// NewClient creates a Hunter client. Calls are throttled to one per second
// by default.
func NewClient(apiKey string, opts ...ClientOption) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	c.retry.OnRetry = resilience.RetryLogger("hunter", "request")
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) DomainSearch(ctx context.Context, domain string, limit int) (*DomainSearch, error) {
	if domain == "" {
		return nil, eris.New("hunter: domain is required")
	}
	var out DomainSearch
	err := c.get(ctx, "/domain-search", url.Values{
		"domain": {domain},
		"limit":  {strconv.Itoa(limit)},
	}, &out, true)
	if err != nil {
		return nil, eris.Wrapf(err, "hunter: domain search %s", domain)
	}
	return &out, nil
}

func (c *httpClient) VerifyEmail(ctx context.Context, email string) (*Verification, error) {
	if email == "" {
		return nil, eris.New("hunter: email is required")
	}
	var out Verification
	if err := c.get(ctx, "/email-verifier", url.Values{"email": {email}}, &out, true); err != nil {
		return nil, eris.Wrapf(err, "hunter: verify %s", email)
	}
	return &out, nil
}

func (c *httpClient) Account(ctx context.Context) (*Account, error) {
	var out Account
	if err := c.get(ctx, "/account", url.Values{}, &out, false); err != nil {
		return nil, eris.Wrap(err, "hunter: account")
	}
	return &out, nil
}

func (c *httpClient) CreditsUsed() int {
	return int(c.credits.Load())
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// get performs a GET with throttling and retry and decodes the data block
// into out. Billable calls bump the credit counter when data is returned.
func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any, billable bool) error {
	params.Set("api_key", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "rate limit")
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, eris.Wrap(err, "create request")
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "send request")
		}
		defer resp.Body.Close() //nolint:errcheck

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "read response"), 0)
		}
		if err := resilience.CheckStatus("hunter", resp, b); err != nil {
			return nil, err
		}
		return b, nil
	})
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return eris.New("response has no data")
	}
	if billable {
		c.credits.Add(1)
	}
	return eris.Wrap(json.Unmarshal(env.Data, out), "unmarshal data")
}

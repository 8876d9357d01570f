// Package resolve finds a venue's website by trying the cache, the live
// OpenStreetMap lookup, the offline snapshot, and web search in order.
package resolve

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/assemble"
	"github.com/sells-group/venue-cli/internal/webcache"
)

// Provider errors.
var (
	// ErrNotFound means the provider answered and has no website.
	ErrNotFound = eris.New("resolve: not found")
	// ErrUnavailable means the provider could not answer at all.
	ErrUnavailable = eris.New("resolve: provider unavailable")
	// ErrInvalidInput is returned for a blank name or a blank or
	// malformed postcode.
	ErrInvalidInput = eris.New("resolve: name and valid postcode are required")
)

// Source names where a website came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceOverpass Source = "overpass"
	SourceOffline  Source = "offline"
	SourceSearch   Source = "search"
)

// Result is the outcome of a resolution.
type Result struct {
	Website string
	// Source is the step that answered. Empty when nothing did.
	Source Source
	Found  bool
}

// Provider looks up a website. It returns ErrNotFound when it has a
// definite negative answer and ErrUnavailable when it cannot answer.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, name, postcode string) (string, error)
}

// Cache is the subset of webcache.Store the cascade uses.
type Cache interface {
	Get(name, postcode string) (webcache.Lookup, bool)
	Set(ctx context.Context, name, postcode string, website *string)
}

// Cascade tries each lookup step until one produces a website.
type Cascade struct {
	cache   Cache
	live    Provider
	offline Provider
	search  Provider
}

// Option configures a Cascade.
type Option func(*Cascade)

// WithOffline sets the fallback used when the live provider is unavailable.
func WithOffline(p Provider) Option {
	return func(c *Cascade) { c.offline = p }
}

// WithSearch sets the last-resort provider.
func WithSearch(p Provider) Option {
	return func(c *Cascade) { c.search = p }
}

// NewCascade creates a cascade over cache and live. Either may be nil.
func NewCascade(cache Cache, live Provider, opts ...Option) *Cascade {
	c := &Cascade{cache: cache, live: live}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Resolve returns the first website found. A result with Found false and a
// nil error means every step answered negatively or was unavailable.
func (c *Cascade) Resolve(ctx context.Context, name, postcode string) (Result, error) {
	name, postcode = strings.TrimSpace(name), strings.TrimSpace(postcode)
	if name == "" || !assemble.ValidPostcode(postcode) {
		return Result{}, ErrInvalidInput
	}

	if c.cache != nil {
		if hit, ok := c.cache.Get(name, postcode); ok {
			return Result{Website: hit.Website, Source: SourceCache, Found: hit.Website != ""}, nil
		}
	}

	liveAnswered := false
	if c.live != nil {
		w, err := c.live.Lookup(ctx, name, postcode)
		switch {
		case err == nil && w != "":
			c.store(ctx, name, postcode, &w)
			return Result{Website: w, Source: SourceOverpass, Found: true}, nil
		case err == nil || errors.Is(err, ErrNotFound):
			c.store(ctx, name, postcode, nil)
			liveAnswered = true
		case ctx.Err() != nil:
			return Result{}, ctx.Err()
		default:
			zap.L().Debug("resolve: live lookup unavailable",
				zap.String("provider", c.live.Name()),
				zap.String("venue", name),
				zap.Error(err),
			)
		}
	}

	if !liveAnswered {
		if r, ok := c.try(ctx, c.offline, SourceOffline, name, postcode); ok {
			return r, nil
		}
	}

	if r, ok := c.try(ctx, c.search, SourceSearch, name, postcode); ok {
		return r, nil
	}
	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}

	return Result{}, nil
}

func (c *Cascade) try(ctx context.Context, p Provider, src Source, name, postcode string) (Result, bool) {
	if p == nil || ctx.Err() != nil {
		return Result{}, false
	}
	w, err := p.Lookup(ctx, name, postcode)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			zap.L().Debug("resolve: provider error",
				zap.String("provider", p.Name()),
				zap.String("venue", name),
				zap.Error(err),
			)
		}
		return Result{}, false
	}
	if w == "" {
		return Result{}, false
	}
	return Result{Website: w, Source: src, Found: true}, true
}

func (c *Cascade) store(ctx context.Context, name, postcode string, website *string) {
	if c.cache != nil {
		c.cache.Set(ctx, name, postcode, website)
	}
}

package resolve

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/venue-cli/internal/overpass"
	"github.com/sells-group/venue-cli/internal/resilience"
	"github.com/sells-group/venue-cli/internal/snapshot"
	"github.com/sells-group/venue-cli/pkg/google"
)

// OverpassProvider looks venues up live in OpenStreetMap.
type OverpassProvider struct {
	client *overpass.Client
}

// NewOverpassProvider wraps an Overpass client.
func NewOverpassProvider(c *overpass.Client) *OverpassProvider {
	return &OverpassProvider{client: c}
}

// Name implements Provider.
func (p *OverpassProvider) Name() string { return "overpass" }

// Lookup implements Provider.
func (p *OverpassProvider) Lookup(ctx context.Context, name, postcode string) (string, error) {
	w, err := p.client.FindWebsite(ctx, name, postcode)
	switch {
	case err == nil && w == "":
		return "", ErrNotFound
	case err == nil:
		return w, nil
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(err, overpass.ErrAllServersFailed):
		return "", eris.Wrap(ErrUnavailable, err.Error())
	default:
		return "", err
	}
}

// SnapshotProvider reads the offline OpenStreetMap snapshot.
type SnapshotProvider struct {
	snap *snapshot.Snapshot
}

// NewSnapshotProvider wraps a loaded snapshot.
func NewSnapshotProvider(s *snapshot.Snapshot) *SnapshotProvider {
	return &SnapshotProvider{snap: s}
}

// Name implements Provider.
func (p *SnapshotProvider) Name() string { return "offline" }

// Lookup implements Provider.
func (p *SnapshotProvider) Lookup(_ context.Context, name, postcode string) (string, error) {
	if p.snap.Len() == 0 {
		return "", ErrUnavailable
	}
	if w := p.snap.FindWebsite(name, postcode); w != "" {
		return w, nil
	}
	return "", ErrNotFound
}

// SearchProvider takes the first web search hit for "name postcode".
type SearchProvider struct {
	client google.Client
}

// NewSearchProvider wraps a search client.
func NewSearchProvider(c google.Client) *SearchProvider {
	return &SearchProvider{client: c}
}

// Name implements Provider.
func (p *SearchProvider) Name() string { return "search" }

// Lookup implements Provider.
func (p *SearchProvider) Lookup(ctx context.Context, name, postcode string) (string, error) {
	resp, err := p.client.Search(ctx, name+" "+postcode, 1)
	if err != nil {
		if resilience.IsTransient(err) {
			return "", eris.Wrap(ErrUnavailable, err.Error())
		}
		return "", eris.Wrap(err, "resolve: search")
	}
	if link := resp.FirstLink(); link != "" {
		return link, nil
	}
	return "", ErrNotFound
}

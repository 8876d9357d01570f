package enrich

import (
	"context"
	"errors"

	"github.com/sells-group/venue-cli/internal/filter"
	"github.com/sells-group/venue-cli/internal/metrics"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/resolve"
)

// Resolver looks up a venue's website.
type Resolver interface {
	Resolve(ctx context.Context, name, postcode string) (resolve.Result, error)
}

// WebsiteDriver fills in missing websites through the resolution cascade.
type WebsiteDriver struct {
	resolver Resolver
	stats    *filter.Stats
}

// NewWebsiteDriver creates a WebsiteDriver. Excluded names are logged to
// stats.
func NewWebsiteDriver(r Resolver, stats *filter.Stats) *WebsiteDriver {
	return &WebsiteDriver{resolver: r, stats: stats}
}

// Stage implements Driver.
func (d *WebsiteDriver) Stage() model.Stage { return model.StageWebsites }

// Select picks venues without a website whose names pass the filter.
func (d *WebsiteDriver) Select(venues []model.Venue) ([]int, int) {
	var out []int
	skipped := 0
	for i, v := range venues {
		if v.Website != "" {
			continue
		}
		if d.stats != nil && d.stats.Policy().ExcludeBusinessName(v.Name) {
			d.stats.Log(v.Name, d.stats.Policy().Reason(v.Name, ""), filter.TypeBusinessName)
			skipped++
			continue
		}
		out = append(out, i)
	}
	return out, skipped
}

// Process implements Driver.
func (d *WebsiteDriver) Process(ctx context.Context, v *model.Venue) (Outcome, error) {
	res, err := d.resolver.Resolve(ctx, v.Name, v.Postcode)
	if errors.Is(err, resolve.ErrInvalidInput) {
		metrics.RecordWebsite("")
		return OutcomeSkipped, nil
	}
	if err != nil {
		return OutcomeFailed, err
	}
	if !res.Found {
		metrics.RecordWebsite("")
		return OutcomeNotFound, nil
	}
	v.Website = res.Website
	v.WebsiteSource = string(res.Source)
	metrics.RecordWebsite(string(res.Source))
	return OutcomeFound, nil
}

package assemble

import (
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/filter"
	"github.com/sells-group/venue-cli/internal/model"
)

// Options controls assembly.
type Options struct {
	// Prefixes restricts output to postcodes in the region. Empty keeps all.
	Prefixes []string
	// Stats, when set, drops chains and records them in the filter log.
	Stats *filter.Stats
}

// Result is the assembled venue list plus per-step counts.
type Result struct {
	Venues        []model.Venue
	Input         int
	OutOfRegion   int
	Duplicates    int
	ChainsDropped int
}

// Assemble concatenates the streams in order, keeps in-region records,
// drops later duplicates of an identity key, and removes chains.
func Assemble(streams [][]model.Venue, opts Options) Result {
	var res Result
	seen := make(map[model.IdentityKey]struct{})

	for _, stream := range streams {
		for _, v := range stream {
			res.Input++

			if len(opts.Prefixes) > 0 && !InRegion(v.Postcode, opts.Prefixes) {
				res.OutOfRegion++
				continue
			}

			key := v.Key()
			if _, dup := seen[key]; dup {
				res.Duplicates++
				continue
			}
			seen[key] = struct{}{}

			if opts.Stats != nil && opts.Stats.Policy().IsChain(v.Name) {
				opts.Stats.Log(v.Name, filter.ReasonChain, filter.TypeBusinessName)
				res.ChainsDropped++
				continue
			}

			res.Venues = append(res.Venues, v)
		}
	}

	zap.L().Info("assemble: venues assembled",
		zap.Int("input", res.Input),
		zap.Int("out_of_region", res.OutOfRegion),
		zap.Int("duplicates", res.Duplicates),
		zap.Int("chains", res.ChainsDropped),
		zap.Int("output", len(res.Venues)),
	)

	return res
}

// Package feeds downloads the public venue datasets and normalises their
// rows into model.Venue records.
package feeds

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/assemble"
	"github.com/sells-group/venue-cli/internal/model"
)

// Source produces one stream of normalised venue records.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Venue, error)
}

// Collect fetches every source in order. A failing source is logged and
// skipped so one dead feed never sinks the build.
func Collect(ctx context.Context, sources []Source) [][]model.Venue {
	var streams [][]model.Venue
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		venues, err := src.Fetch(ctx)
		if err != nil {
			zap.L().Warn("feeds: source failed, skipping",
				zap.String("source", src.Name()),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("feeds: source loaded",
			zap.String("source", src.Name()),
			zap.Int("venues", len(venues)),
		)
		streams = append(streams, venues)
	}
	return streams
}

// parseCoord returns nil for blanks and placeholders like "\N".
func parseCoord(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func cleanPostcode(s string) string {
	return assemble.NormalizePostcode(s)
}

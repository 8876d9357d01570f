package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/assemble"
	"github.com/sells-group/venue-cli/internal/feeds"
	"github.com/sells-group/venue-cli/internal/fetcher"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/venuefile"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Download the ratings and pubs feeds and assemble the venue list",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("build"); err != nil {
			return err
		}
		counters, err := runBuild(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Assembled %d venues into %s\n", counters.Found, cfg.Files.Venues)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

// runBuild fetches every feed, assembles the region's venues, and writes
// the venue CSV and filter log.
func runBuild(ctx context.Context) (model.Counters, error) {
	stats, err := newStats(cfg)
	if err != nil {
		return model.Counters{}, err
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:      2 * time.Minute,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})

	sources := make([]feeds.Source, 0, len(cfg.Region.AuthorityIDs)+1)
	for _, id := range cfg.Region.AuthorityIDs {
		sources = append(sources, feeds.NewFHRSSource(f, cfg.Region.FHRSURL, id))
	}
	if cfg.Region.OpenPubsURL != "" {
		sources = append(sources, feeds.NewOpenPubsSource(f, cfg.Region.OpenPubsURL))
	}

	streams := feeds.Collect(ctx, sources)
	if err := ctx.Err(); err != nil {
		return model.Counters{}, err
	}

	res := assemble.Assemble(streams, assemble.Options{
		Prefixes: cfg.Region.PostcodePrefixes,
		Stats:    stats,
	})
	if err := venuefile.Write(cfg.Files.Venues, res.Venues); err != nil {
		return model.Counters{}, err
	}
	saveFilterLog(stats, cfg.Files.FilterLog)

	zap.L().Info("build complete",
		zap.String("path", cfg.Files.Venues),
		zap.Int("venues", len(res.Venues)),
	)
	return model.Counters{
		Attempted: res.Input,
		Found:     len(res.Venues),
		Skipped:   res.OutOfRegion + res.Duplicates + res.ChainsDropped,
	}, nil
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/enrich"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/overpass"
	"github.com/sells-group/venue-cli/internal/resolve"
	"github.com/sells-group/venue-cli/internal/snapshot"
	"github.com/sells-group/venue-cli/pkg/google"
)

var websitesCmd = &cobra.Command{
	Use:   "websites",
	Short: "Fill in missing websites from the cache, OpenStreetMap, the offline snapshot, and web search",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("websites"); err != nil {
			return err
		}
		counters, err := runWebsites(ctx)
		printCounters("websites", counters)
		return err
	},
}

func init() {
	rootCmd.AddCommand(websitesCmd)
}

func newOverpassClient() *overpass.Client {
	return overpass.New(
		overpass.WithServers(cfg.Overpass.Servers...),
		overpass.WithTimeout(time.Duration(cfg.Overpass.TimeoutSecs)*time.Second),
		overpass.WithMaxRetries(cfg.Overpass.MaxRetries),
		overpass.WithRetryDelay(time.Duration(cfg.Overpass.RetryDelayMs)*time.Millisecond),
		overpass.WithMinInterval(time.Duration(cfg.Overpass.MinIntervalMs)*time.Millisecond),
	)
}

// runWebsites resolves websites for venues that lack one and writes the
// enriched list.
func runWebsites(ctx context.Context) (model.Counters, error) {
	stats, err := newStats(cfg)
	if err != nil {
		return model.Counters{}, err
	}
	venues, err := loadVenues(stageInput(cfg.Files))
	if err != nil {
		return model.Counters{}, err
	}

	cache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return model.Counters{}, err
	}
	defer func() {
		if err := cache.Finalize(context.WithoutCancel(ctx)); err != nil {
			zap.L().Warn("finalize website cache", zap.Error(err))
		}
		_ = cache.Close()
	}()

	opts := []resolve.Option{}
	snap, err := snapshot.Load(cfg.Overpass.SnapshotPath)
	if err != nil {
		zap.L().Warn("offline snapshot unavailable", zap.Error(err))
	} else {
		opts = append(opts, resolve.WithOffline(resolve.NewSnapshotProvider(snap)))
	}
	if cfg.Google.Key != "" && cfg.Google.CX != "" {
		search := google.NewClient(cfg.Google.Key, cfg.Google.CX, google.WithBaseURL(cfg.Google.BaseURL))
		opts = append(opts, resolve.WithSearch(resolve.NewSearchProvider(search)))
	}

	oc := newOverpassClient()
	cascade := resolve.NewCascade(cache, resolve.NewOverpassProvider(oc), opts...)

	loopOpts := loopOptions(cfg.Enrich, cfg.Files.Output)
	// Cache hits are free; pacing comes from the Overpass limiter and the
	// periodic pause.
	loopOpts.Delay = 0
	counters, err := enrich.NewLoop(loopOpts).Run(ctx, enrich.NewWebsiteDriver(cascade, stats), venues)

	summary := cache.Summary()
	zap.L().Info("website cache",
		zap.Int("entries", summary.TotalCached),
		zap.Int("hits", summary.Hits),
		zap.Int("misses", summary.Misses),
		zap.String("hit_rate", summary.HitRate),
		zap.Int("overpass_requests", oc.Requests()),
		zap.Strings("failed_servers", oc.FailedServers()),
	)
	saveFilterLog(stats, cfg.Files.FilterLog)
	return counters, err
}

func printCounters(stage string, c model.Counters) {
	fmt.Printf("%s: attempted %d, found %d, failed %d, skipped %d\n",
		stage, c.Attempted, c.Found, c.Failed, c.Skipped)
}

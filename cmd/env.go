package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/config"
	"github.com/sells-group/venue-cli/internal/enrich"
	"github.com/sells-group/venue-cli/internal/filter"
	"github.com/sells-group/venue-cli/internal/metrics"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/venuefile"
	"github.com/sells-group/venue-cli/internal/webcache"
)

const cacheFileSQLite = "venue_websites.db"

// newStats builds the filter policy from config and an optional lists file.
func newStats(c *config.Config) (*filter.Stats, error) {
	lists := filter.DefaultLists().Merge(filter.Lists{
		Chains:          c.Filter.Chains,
		Keywords:        c.Filter.Keywords,
		GovDomains:      c.Filter.GovDomains,
		PropertyDomains: c.Filter.PropertyDomains,
		Directories:     c.Filter.Directories,
		SocialDomains:   c.Filter.SocialDomains,
	})
	if c.Filter.ListsFile != "" {
		fromFile, err := filter.LoadLists(c.Filter.ListsFile)
		if err != nil {
			return nil, err
		}
		lists = lists.Merge(fromFile)
	}
	policy := filter.NewPolicy(lists, filter.WithFuzzyThreshold(c.Filter.FuzzyThreshold))
	return filter.NewStats(policy), nil
}

// openCacheBackend returns the website cache backend selected by
// cache.driver. SQL backends are migrated before use.
func openCacheBackend(ctx context.Context, c config.CacheConfig) (webcache.Backend, error) {
	switch c.Driver {
	case "", "json":
		return webcache.NewJSONBackend(c.Dir), nil
	case "sqlite":
		dsn := c.DSN
		if dsn == "" {
			if err := os.MkdirAll(c.Dir, 0o755); err != nil {
				return nil, eris.Wrapf(err, "create cache dir %s", c.Dir)
			}
			dsn = filepath.Join(c.Dir, cacheFileSQLite)
		}
		b, err := webcache.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := b.Migrate(ctx); err != nil {
			_ = b.Close()
			return nil, err
		}
		return b, nil
	case "postgres":
		b, err := webcache.NewPostgres(ctx, c.DSN)
		if err != nil {
			return nil, err
		}
		if err := b.Migrate(ctx); err != nil {
			_ = b.Close()
			return nil, err
		}
		return b, nil
	default:
		return nil, eris.Errorf("unsupported cache driver: %s", c.Driver)
	}
}

// openCache loads the website cache and exposes it to the metrics
// collector.
func openCache(ctx context.Context, c config.CacheConfig) (*webcache.Store, error) {
	backend, err := openCacheBackend(ctx, c)
	if err != nil {
		return nil, err
	}
	opts := []webcache.Option{}
	if c.TTLDays > 0 {
		opts = append(opts, webcache.WithTTL(time.Duration(c.TTLDays)*24*time.Hour))
	}
	if c.FlushEvery > 0 {
		opts = append(opts, webcache.WithFlushEvery(c.FlushEvery))
	}
	store := webcache.New(ctx, backend, opts...)
	metrics.ObserveCache(store)
	return store, nil
}

// loopOptions maps the enrich config onto a Loop that checkpoints to path.
func loopOptions(c config.EnrichConfig, path string) enrich.Options {
	return enrich.Options{
		MaxRequests: c.MaxRequests,
		Delay:       time.Duration(c.DelayMs) * time.Millisecond,
		PauseEvery:  c.PauseEvery,
		Pause:       time.Duration(c.PauseMs) * time.Millisecond,
		SaveEvery:   c.SaveEvery,
		Save:        saveTo(path),
	}
}

func saveTo(path string) enrich.SaveFunc {
	return func(venues []model.Venue) error {
		return venuefile.Write(path, venues)
	}
}

// stageInput returns the enriched output when a previous stage wrote one,
// otherwise the assembled venue list.
func stageInput(files config.FilesConfig) string {
	if _, err := os.Stat(files.Output); err == nil {
		return files.Output
	}
	return files.Venues
}

// loadVenues reads a venue CSV, treating a missing file as an error the
// user can act on.
func loadVenues(path string) ([]model.Venue, error) {
	venues, err := venuefile.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, eris.Errorf("input file not found: %s (run build first)", path)
	}
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded venues", zap.String("path", path), zap.Int("venues", len(venues)))
	return venues, nil
}

// saveFilterLog writes the audit log. Failures are logged only.
func saveFilterLog(stats *filter.Stats, path string) {
	if err := stats.SaveLog(path); err != nil {
		zap.L().Warn("save filter log", zap.Error(err))
		return
	}
	zap.L().Info("filter log saved", zap.String("path", path), zap.Int("entries", len(stats.Entries())))
}

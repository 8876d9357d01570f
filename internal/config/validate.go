package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command mode depends on and reports every
// problem at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "build":
		if len(c.Region.PostcodePrefixes) == 0 {
			errs = append(errs, "region.postcode_prefixes is required")
		}
	case "websites":
		if len(c.Overpass.Servers) == 0 {
			errs = append(errs, "overpass.servers is required")
		}
		if c.Overpass.MaxRetries < 1 {
			errs = append(errs, "overpass.max_retries must be >= 1")
		}
	case "emails":
		if c.Hunter.Key == "" {
			errs = append(errs, "hunter.key is required")
		}
		if c.Hunter.ConfidenceThreshold < 0 || c.Hunter.ConfidenceThreshold > 100 {
			errs = append(errs, "hunter.confidence_threshold must be between 0 and 100")
		}
	case "contacts":
		if c.Scrape.Attempts < 1 {
			errs = append(errs, "scrape.attempts must be >= 1")
		}
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Cache.Driver {
	case "json", "sqlite":
	case "postgres":
		if c.Cache.DSN == "" {
			errs = append(errs, "cache.dsn is required for the postgres driver")
		}
	default:
		errs = append(errs, "cache.driver must be one of json, sqlite, postgres")
	}

	if c.Filter.FuzzyThreshold <= 0 || c.Filter.FuzzyThreshold > 1 {
		errs = append(errs, "filter.fuzzy_threshold must be in (0, 1]")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
